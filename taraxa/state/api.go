package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panjf2000/ants/v2"

	"github.com/Taraxa-project/taraxa-state/core"
	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_dry_runner"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_query"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_transition"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
)

type Opts struct {
	DB         db.Config                    `json:"db" mapstructure:"db"`
	Cache      state_cache.Config           `json:"cache" mapstructure:"cache"`
	Execution  state_common.ExecutionConfig `json:"execution" mapstructure:"execution"`
	Transition state_transition.Opts        `json:"transition" mapstructure:"transition"`
	// run without node/code caches and prefetching
	DisableCaches         bool `json:"disableCaches" mapstructure:"disable_caches"`
	SenderRecoveryWorkers int  `json:"senderRecoveryWorkers" mapstructure:"sender_recovery_workers"`
	ProofWorkers          int  `json:"proofWorkers" mapstructure:"proof_workers"`
}

func DefaultOpts() Opts {
	return Opts{
		DB:                    db.DefaultConfig(),
		Cache:                 state_cache.DefaultConfig(),
		Execution:             state_common.DefaultExecutionConfig(),
		Transition:            state_transition.DefaultOpts(),
		SenderRecoveryWorkers: 8,
		ProofWorkers:          4,
	}
}

// API owns the database, the caches and the worker pools, and hands them to
// the executor, the dry runner and the query service.
type API struct {
	db               state_db.DB
	caches           *state_cache.Caches
	prefetcher       *state_cache.Prefetcher
	sender_pool      *ants.Pool
	signer           types.Signer
	cfg              state_common.ExecutionConfig
	state_transition state_transition.StateTransition
	dry_runner       state_dry_runner.DryRunner
	query            state_query.Service
}

// New opens the configured database and runs the default interpreter on it.
func New(opts Opts) (*API, error) {
	store, err := db.Open(opts.DB)
	if err != nil {
		return nil, state_common.NewStorageFault(err, "open db")
	}
	ret, err := new(API).Init(store, vm.NewDefault(opts.Execution.ChainID, opts.Execution.Gas), opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	return ret, nil
}

// Init takes ownership of store: Close closes it.
func (self *API) Init(store state_db.DB, interpreter vm.Interpreter, opts Opts) (*API, error) {
	self.db, self.cfg = store, opts.Execution
	self.signer = types.LatestSignerForChainID(new(big.Int).SetUint64(self.cfg.ChainID))
	if !opts.DisableCaches {
		var err error
		if self.caches, err = state_cache.New(opts.Cache); err != nil {
			return nil, err
		}
		if self.prefetcher, err = state_cache.NewPrefetcher(self.caches, opts.Cache.PrefetchWorkers); err != nil {
			self.close_caches()
			return nil, err
		}
	}
	var err error
	if self.sender_pool, err = ants.NewPool(max(opts.SenderRecoveryWorkers, 1)); err != nil {
		self.close_caches()
		return nil, err
	}
	self.state_transition.Init(self.db, self.caches, self.prefetcher, interpreter, &self.cfg, opts.Transition)
	self.dry_runner.Init(self.db, self.caches, self.state_transition.Applier())
	self.query.Init(self.db, self.caches, opts.ProofWorkers)
	return self, nil
}

func (self *API) close_caches() {
	if self.prefetcher != nil {
		self.prefetcher.Close()
	}
	if self.caches != nil {
		self.caches.Close()
	}
}

func (self *API) Close() error {
	self.sender_pool.Release()
	self.close_caches()
	return self.db.Close()
}

func (self *API) Config() *state_common.ExecutionConfig {
	return &self.cfg
}

func (self *API) Signer() types.Signer {
	return self.signer
}

// Latest is the descriptor of the last committed block. IsNil() holds on an
// empty database.
func (self *API) Latest() (state_db.StateDescriptor, error) {
	ret, err := self.db.GetCommittedDescriptor()
	if err != nil {
		return ret, state_common.NewStorageFault(err, "read descriptor")
	}
	return ret, nil
}

// InitGenesis commits block 0 from alloc. It refuses to run on a database
// that already has a committed block.
func (self *API) InitGenesis(alloc core.GenesisAlloc) (ret state_db.StateDescriptor, err error) {
	latest, err := self.Latest()
	if err != nil {
		return
	}
	if !latest.IsNil() {
		return ret, state_common.NewProtocolViolation(state_common.ErrGenesisExists)
	}
	world := new(state_world.World).Init(self.db, self.caches, nil)
	for addr, acc := range alloc {
		addr := addr
		body := state_common.NewEmptyAccount()
		body.Nonce = acc.Nonce
		if acc.Balance != nil {
			body.Balance.Set(acc.Balance)
		}
		if len(acc.Code) != 0 {
			body.CodeHash = world.SetCode(acc.Code)
		}
		if err = world.SetAccount(&addr, body); err != nil {
			return ret, state_common.NewStorageFault(err, "genesis account")
		}
		for slot, value := range acc.Storage {
			slot, value := slot, value
			if err = world.SetStorage(&addr, &slot, &value); err != nil {
				return ret, state_common.NewStorageFault(err, "genesis storage")
			}
		}
	}
	batch := self.new_batch()
	root, err := world.Commit(batch)
	if err != nil {
		batch.Discard()
		return ret, state_common.NewStorageFault(err, "commit genesis")
	}
	ret = state_db.StateDescriptor{BlockNum: 0, StateRoot: root, ReceiptsRoot: trie.EmptyRoot}
	if err = batch.Commit(ret); err != nil {
		return ret, state_common.NewStorageFault(err, "commit genesis")
	}
	log.Info("Committed genesis", "root", root, "accounts", len(alloc))
	return ret, nil
}

func (self *API) new_batch() state_db.Batch {
	if self.caches == nil {
		return self.db.NewBatch()
	}
	return self.caches.WrapBatch(self.db.NewBatch())
}

// ExecuteBlock applies txs on top of parent_root. Any root the database
// holds may be used as the parent, which is how blocks are replayed.
func (self *API) ExecuteBlock(
	parent_root common.Hash, txs []*state_common.Transaction, blk *vm.BlockContext,
) (*state_common.ExecutionResult, error) {
	return self.state_transition.ExecuteBlock(parent_root, txs, blk)
}

// ExecuteNext applies txs on top of the last committed block. blk must carry
// the next block number.
func (self *API) ExecuteNext(txs []*state_common.Transaction, blk *vm.BlockContext) (*state_common.ExecutionResult, error) {
	latest, err := self.Latest()
	if err != nil {
		return nil, err
	}
	if latest.IsNil() || blk.Number != latest.BlockNum+1 {
		return nil, state_common.NewProtocolViolation(state_common.ErrBlockNumberGap, "block ", blk.Number)
	}
	return self.state_transition.ExecuteBlock(latest.StateRoot, txs, blk)
}

// ExecuteSignedBlock recovers the senders of a finalized block and applies
// it. A transaction whose sender cannot be recovered invalidates the block.
func (self *API) ExecuteSignedBlock(
	parent_root common.Hash, txs []*types.Transaction, blk *vm.BlockContext,
) (*state_common.ExecutionResult, error) {
	converted, err := state_transition.RecoverSenders(self.sender_pool, self.signer, txs)
	if err != nil {
		return nil, state_common.NewProtocolViolation(err)
	}
	return self.state_transition.ExecuteBlock(parent_root, converted, blk)
}

// DecodeTransactions decodes the binary encodings of signed transactions and
// recovers their senders.
func (self *API) DecodeTransactions(encoded [][]byte) ([]*state_common.Transaction, error) {
	txs := make([]*types.Transaction, len(encoded))
	for i, enc := range encoded {
		tx, err := state_transition.DecodeSigned(enc)
		if err != nil {
			return nil, &state_common.RejectedTransaction{TxIndex: state_common.TxIndex(i), Reason: err}
		}
		txs[i] = tx
	}
	return state_transition.RecoverSenders(self.sender_pool, self.signer, txs)
}

func (self *API) Simulate(tx *state_common.Transaction, root common.Hash, blk *vm.BlockContext) (*state_dry_runner.Result, error) {
	return self.dry_runner.Simulate(tx, root, blk)
}

func (self *API) EstimateGas(tx *state_common.Transaction, root common.Hash, blk *vm.BlockContext) (uint64, error) {
	return self.dry_runner.EstimateGas(tx, root, blk)
}

func (self *API) Query() *state_query.Service {
	return &self.query
}

// DB is exposed for tooling that reads nodes directly.
func (self *API) DB() state_db.DB {
	return self.db
}
