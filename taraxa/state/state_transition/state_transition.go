package state_transition

import (
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/log"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_evm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
)

// StateTransition applies finalized blocks. There is a single writer: a
// second ExecuteBlock while one is running is a programming error.
type StateTransition struct {
	db         state_db.DB
	caches     *state_cache.Caches
	prefetcher *state_cache.Prefetcher
	applier    Applier
	opts       Opts
	running    atomic.Bool
}

type Opts struct {
	ExpectedMaxTrxPerBlock uint32 `json:"expectedMaxTrxPerBlock" mapstructure:"expected_max_trx_per_block"`
}

func DefaultOpts() Opts {
	return Opts{ExpectedMaxTrxPerBlock: 256}
}

// Init wires the collaborators. caches and prefetcher may be nil.
func (self *StateTransition) Init(
	db state_db.DB,
	caches *state_cache.Caches,
	prefetcher *state_cache.Prefetcher,
	interpreter vm.Interpreter,
	cfg *state_common.ExecutionConfig,
	opts Opts,
) *StateTransition {
	self.db, self.caches, self.prefetcher, self.opts = db, caches, prefetcher, opts
	self.applier = Applier{Cfg: cfg, Interpreter: interpreter, Precompiles: vm.PrecompiledAddresses()}
	return self
}

func (self *StateTransition) Applier() *Applier {
	return &self.applier
}

func (self *StateTransition) trie_input(col state_db.Column) state_db.TrieInput {
	if self.caches == nil {
		return state_db.TrieInput{Reader: self.db, Col: col}
	}
	return self.caches.TrieInput(self.db, col)
}

func (self *StateTransition) new_batch() state_db.Batch {
	if self.caches == nil {
		return self.db.NewBatch()
	}
	return self.caches.WrapBatch(self.db.NewBatch())
}

// ExecuteBlock applies txs in order on top of parent_root and durably commits
// the resulting state together with the receipts. Nothing is persisted when an
// error is returned.
func (self *StateTransition) ExecuteBlock(
	parent_root common.Hash, txs []*state_common.Transaction, blk *vm.BlockContext,
) (ret *state_common.ExecutionResult, err error) {
	if !self.running.CompareAndSwap(false, true) {
		panic(state_common.ErrConcurrentExecution)
	}
	defer self.running.Store(false)
	defer state_common.RecoverStorageFault(&err)
	start := time.Now()

	if err = self.check_block(parent_root, txs, blk); err != nil {
		return nil, err
	}
	if self.prefetcher != nil && len(txs) != 0 {
		task := self.prefetcher.Prefetch(self.db, parent_root, prefetch_targets(txs))
		defer task.Wait()
	}
	world := new(state_world.World).Init(self.db, self.caches, &parent_root)
	st := new(state_evm.EVMState).Init(world, state_evm.Opts{
		AccountBufferSize: self.opts.ExpectedMaxTrxPerBlock * 4,
		RevertLogSize:     256,
	})
	pool := new(core.GasPool).AddGas(blk.GasLimit)
	ret = &state_common.ExecutionResult{BlockNum: blk.Number, Receipts: make([]*state_common.Receipt, 0, len(txs))}
	var log_idx uint
	for i, tx := range txs {
		idx := state_common.TxIndex(i)
		receipt, apply_err := self.applier.Apply(st, blk, pool, tx, idx, ApplyOpts{})
		if rejected, is_rejection := apply_err.(*state_common.RejectedTransaction); is_rejection {
			log.Debug("Transaction rejected", "block", blk.Number, "idx", idx, "hash", tx.Hash, "reason", rejected.Reason)
			ret.Rejected = append(ret.Rejected, rejected)
			st.Discard()
			continue
		}
		if apply_err != nil {
			return nil, apply_err
		}
		if err = st.Checkpoint(); err != nil {
			return nil, state_common.NewStorageFault(err, "checkpoint")
		}
		ret.GasUsed += receipt.GasUsed
		receipt.CumulativeGasUsed = ret.GasUsed
		for _, l := range receipt.Logs {
			l.Index = log_idx
			log_idx++
		}
		state_common.AccumulateBloom(&ret.Bloom, receipt.Logs)
		ret.Receipts = append(ret.Receipts, receipt)
	}

	batch := self.new_batch()
	if ret.StateRoot, err = world.Commit(batch); err != nil {
		batch.Discard()
		return nil, state_common.NewStorageFault(err, "commit state")
	}
	ret.ReceiptsRoot = commit_receipts(batch, blk.Number, ret.Receipts)
	desc := state_db.StateDescriptor{BlockNum: blk.Number, StateRoot: ret.StateRoot, ReceiptsRoot: ret.ReceiptsRoot}
	if err = batch.Commit(desc); err != nil {
		return nil, state_common.NewStorageFault(err, "commit batch")
	}
	log.Info("Committed block",
		"number", blk.Number, "root", ret.StateRoot, "txs", len(ret.Receipts), "rejected", len(ret.Rejected),
		"gas", ret.GasUsed, "elapsed", common.PrettyDuration(time.Since(start)))
	return ret, nil
}

func (self *StateTransition) check_block(parent_root common.Hash, txs []*state_common.Transaction, blk *vm.BlockContext) error {
	if blk.GasLimit == 0 {
		return state_common.NewProtocolViolation(state_common.ErrZeroBlockGasLimit)
	}
	if blk.BaseFee == nil {
		for _, tx := range txs {
			if tx.IsDynamicFee() {
				return state_common.NewProtocolViolation(state_common.ErrMissingBaseFee)
			}
		}
	}
	if state_common.IsEmptyStateRoot(&parent_root) {
		return nil
	}
	// the node cache is keyed by digest only, so it can not tell an account
	// trie root from any other node
	enc, err := state_db.TrieInput{Reader: self.db, Col: state_db.COL_acc_trie_node}.GetNode(&parent_root)
	if err != nil {
		return state_common.NewStorageFault(err, "read parent root")
	}
	if enc == nil {
		return state_common.NewProtocolViolation(state_common.ErrUnknownParentRoot, parent_root.Hex())
	}
	return nil
}

func prefetch_targets(txs []*state_common.Transaction) []state_cache.PrefetchTarget {
	ret := make([]state_cache.PrefetchTarget, 0, len(txs)*2)
	for _, tx := range txs {
		ret = append(ret, state_cache.PrefetchTarget{Addr: tx.From})
		if tx.To != nil {
			ret = append(ret, state_cache.PrefetchTarget{Addr: *tx.To})
		}
		for i := range tx.AccessList {
			ret = append(ret, state_cache.PrefetchTarget{Addr: tx.AccessList[i].Address, Slots: tx.AccessList[i].StorageKeys})
		}
	}
	return ret
}

// commit_receipts writes the receipts trie into batch and returns its root.
// Transaction positions, hashes and created addresses are not part of the
// root and go to the meta column next to it.
func commit_receipts(batch state_db.Batch, blk state_common.BlockNum, receipts []*state_common.Receipt) common.Hash {
	root, _ := ReceiptsRoot(receipts, state_db.TrieOutput{Batch: batch, Col: state_db.COL_receipts_trie_node})
	if len(receipts) != 0 {
		batch.Put(state_db.COL_meta, state_common.ReceiptsMetaKey(&root), state_common.EncodeReceiptsMeta(blk, receipts))
	}
	return root
}

// ReceiptsRoot builds the receipts trie in memory. out may be nil.
func ReceiptsRoot(receipts []*state_common.Receipt, out trie.Output) (common.Hash, error) {
	var w trie.Writer
	w.Init(nil)
	for i, r := range receipts {
		if err := w.Put(nil, state_common.ReceiptKey(state_common.TxIndex(i)), r.Encode()); err != nil {
			return common.Hash{}, err
		}
	}
	if out == nil {
		return w.Hash(), nil
	}
	return w.Commit(out), nil
}
