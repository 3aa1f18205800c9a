package state_query

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_leveldb"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_transition"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

var (
	funded_addr   = tests.Addr(1)
	contract_addr = tests.Addr(0xcc)
	contract_code = []byte{byte(vm.STOP)}
)

type query_test_ctx struct {
	tests.TestCtx
	db     *state_db_leveldb.DB
	caches *state_cache.Caches
	svc    *Service
	root   common.Hash
}

func new_query_test_ctx(t *testing.T) *query_test_ctx {
	ret := &query_test_ctx{TestCtx: tests.NewTestCtx(t)}
	var err error
	ret.db, err = state_db_leveldb.Open(state_db_leveldb.Opts{InMemory: true})
	ret.Require.NoError(err)
	ret.caches, err = state_cache.New(state_cache.DefaultConfig())
	ret.Require.NoError(err)
	w := new(state_world.World).Init(ret.db, nil, nil)
	acc := state_common.NewEmptyAccount()
	acc.Balance = uint256.NewInt(1e9)
	ret.Require.NoError(w.SetAccount(&funded_addr, acc))
	contract := state_common.NewEmptyAccount()
	contract.Nonce, contract.CodeHash = 1, w.SetCode(contract_code)
	ret.Require.NoError(w.SetAccount(&contract_addr, contract))
	for i := uint64(1); i <= 5; i++ {
		slot, val := tests.Hash(i), tests.Hash(i*100)
		ret.Require.NoError(w.SetStorage(&contract_addr, &slot, &val))
	}
	batch := ret.db.NewBatch()
	ret.root, err = w.Commit(batch)
	ret.Require.NoError(err)
	ret.Require.NoError(batch.Commit(state_db.StateDescriptor{StateRoot: ret.root}))
	ret.svc = new(Service).Init(ret.db, ret.caches, 4)
	return ret
}

func (self *query_test_ctx) Close() {
	self.db.Close()
	self.TestCtx.Close()
}

func TestReads(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	acc, err := tc.svc.GetAccount(tc.root, funded_addr)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(1e9), acc.Balance.Uint64())
	acc, err = tc.svc.GetAccount(tc.root, tests.Addr(77))
	tc.Require.NoError(err)
	tc.Assert.Equal(state_common.NewEmptyAccount(), acc)

	v, err := tc.svc.GetStorage(tc.root, contract_addr, tests.Hash(3))
	tc.Require.NoError(err)
	tc.Assert.Equal(tests.Hash(300), v)
	v, err = tc.svc.GetStorage(tc.root, contract_addr, tests.Hash(9))
	tc.Require.NoError(err)
	tc.Assert.Equal(common.Hash{}, v)

	contract, err := tc.svc.GetAccount(tc.root, contract_addr)
	tc.Require.NoError(err)
	code, err := tc.svc.GetCode(contract.CodeHash)
	tc.Require.NoError(err)
	tc.Assert.Equal(contract_code, code)
	code, err = tc.svc.GetCode(state_common.EmptyCodeHash)
	tc.Require.NoError(err)
	tc.Assert.Empty(code)
}

func TestUnknownRootIsNotFatal(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	_, err := tc.svc.GetAccount(tests.Hash(5), funded_addr)
	tc.Require.Error(err)
	tc.Assert.False(state_common.IsFatal(err))
}

func TestProofs(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	slots := []common.Hash{tests.Hash(1), tests.Hash(5), tests.Hash(99)}
	proof, err := tc.svc.GetProof(tc.root, contract_addr, slots)
	tc.Require.NoError(err)
	tc.Require.NotNil(proof.Account.Account)
	proven, err := VerifyAccountProof(tc.root, &proof.Account)
	tc.Require.NoError(err)
	tc.Assert.Equal(proof.Account.Account, proven)
	tc.Require.Len(proof.Storage, 3)
	for i, expected := range []common.Hash{tests.Hash(100), tests.Hash(500), {}} {
		tc.Assert.Equal(slots[i], proof.Storage[i].Key)
		tc.Assert.Equal(expected, proof.Storage[i].Value)
		v, err := VerifyStorageProof(proven.StorageRoot, &proof.Storage[i])
		tc.Require.NoError(err)
		tc.Assert.Equal(expected, v)
	}

	single, err := tc.svc.GetStorageProof(tc.root, contract_addr, tests.Hash(5))
	tc.Require.NoError(err)
	tc.Assert.Equal(proof.Storage[1], single)
	acc_proof, err := tc.svc.GetAccountProof(tc.root, contract_addr)
	tc.Require.NoError(err)
	tc.Assert.Equal(proof.Account, acc_proof)
}

func TestAbsenceProof(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	p, err := tc.svc.GetAccountProof(tc.root, tests.Addr(1234))
	tc.Require.NoError(err)
	tc.Assert.Nil(p.Account)
	tc.Assert.NotEmpty(p.Proof)
	proven, err := VerifyAccountProof(tc.root, &p)
	tc.Require.NoError(err)
	tc.Assert.Nil(proven)
}

func TestTamperedProofFails(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	p, err := tc.svc.GetAccountProof(tc.root, funded_addr)
	tc.Require.NoError(err)
	last := p.Proof[len(p.Proof)-1]
	last[len(last)-1] ^= 1
	proven, err := VerifyAccountProof(tc.root, &p)
	tc.Assert.Error(err)
	tc.Assert.Nil(proven)

	_, err = VerifyAccountProof(tests.Hash(42), &p)
	tc.Assert.Error(err)
}

func TestReceiptsAndOldRoots(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	cfg := state_common.DefaultExecutionConfig()
	st := new(state_transition.StateTransition).Init(
		tc.db, tc.caches, nil, vm.NewDefault(cfg.ChainID, cfg.Gas), &cfg, state_transition.DefaultOpts())
	to := tests.Addr(2)
	var txs []*state_common.Transaction
	for nonce := uint64(0); nonce < 3; nonce++ {
		txs = append(txs, &state_common.Transaction{
			Hash: tests.Hash(nonce + 1), From: funded_addr, To: &to, Nonce: nonce, Gas: 21000,
			GasPrice: uint256.NewInt(1), Value: uint256.NewInt(10),
		})
	}
	res, err := st.ExecuteBlock(tc.root, txs, &vm.BlockContext{Number: 1, GasLimit: 1e6})
	tc.Require.NoError(err)

	receipts, err := tc.svc.GetReceipts(res.ReceiptsRoot)
	tc.Require.NoError(err)
	tc.Require.Len(receipts, 3)
	for i, r := range receipts {
		tc.Assert.Equal(state_common.ReceiptSuccess, r.Status)
		tc.Assert.Equal(state_common.TxIndex(i), r.TxIndex)
		tc.Assert.Equal(res.Receipts[i].CumulativeGasUsed, r.CumulativeGasUsed)
		tc.Assert.Equal(uint64(21000), r.GasUsed)
	}

	old, err := tc.svc.GetAccount(tc.root, funded_addr)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(1e9), old.Balance.Uint64())
	latest, err := tc.svc.GetAccount(res.StateRoot, funded_addr)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(3), latest.Nonce)
	v, err := tc.svc.GetStorage(res.StateRoot, contract_addr, tests.Hash(2))
	tc.Require.NoError(err)
	tc.Assert.Equal(tests.Hash(200), v)
}

func (self *query_test_ctx) transition(db state_db.DB) *state_transition.StateTransition {
	cfg := state_common.DefaultExecutionConfig()
	return new(state_transition.StateTransition).Init(
		db, self.caches, nil, vm.NewDefault(cfg.ChainID, cfg.Gas), &cfg, state_transition.DefaultOpts())
}

func TestReceiptsKeepTransactionPositions(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	to := tests.Addr(2)
	// emits one log and deploys empty code
	init_code := []byte{byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.LOG0), byte(vm.STOP)}
	txs := []*state_common.Transaction{
		{Hash: tests.Hash(10), From: funded_addr, To: &to, Nonce: 5, Gas: 21000, GasPrice: uint256.NewInt(1)},
		{Hash: tests.Hash(11), From: funded_addr, To: &to, Nonce: 0, Gas: 21000, GasPrice: uint256.NewInt(1), Value: uint256.NewInt(1)},
		{Hash: tests.Hash(12), From: funded_addr, Nonce: 1, Gas: 100000, GasPrice: uint256.NewInt(1), Data: init_code},
	}
	res, err := tc.transition(tc.db).ExecuteBlock(tc.root, txs, &vm.BlockContext{Number: 4, GasLimit: 1e6})
	tc.Require.NoError(err)
	tc.Require.Len(res.Rejected, 1)
	tc.Assert.Equal(state_common.TxIndex(0), res.Rejected[0].TxIndex)
	tc.Require.Len(res.Receipts, 2)
	tc.Require.NotNil(res.Receipts[1].ContractAddress)
	tc.Assert.Equal(crypto.CreateAddress(funded_addr, 1), *res.Receipts[1].ContractAddress)

	receipts, err := tc.svc.GetReceipts(res.ReceiptsRoot)
	tc.Require.NoError(err)
	tc.Require.Len(receipts, 2)
	for i, r := range receipts {
		executed := res.Receipts[i]
		tc.Assert.Equal(state_common.TxIndex(i+1), r.TxIndex)
		tc.Assert.Equal(executed.TxIndex, r.TxIndex)
		tc.Assert.Equal(executed.TxHash, r.TxHash)
		tc.Assert.Equal(executed.ContractAddress, r.ContractAddress)
		tc.Assert.Equal(executed.Status, r.Status)
		tc.Assert.Equal(executed.GasUsed, r.GasUsed)
		tc.Assert.Equal(executed.CumulativeGasUsed, r.CumulativeGasUsed)
		tc.Require.Len(r.Logs, len(executed.Logs))
		for j, l := range r.Logs {
			tc.Assert.Equal(executed.Logs[j].Address, l.Address)
			tc.Assert.Equal(executed.Logs[j].BlockNumber, l.BlockNumber)
			tc.Assert.Equal(executed.Logs[j].TxHash, l.TxHash)
			tc.Assert.Equal(executed.Logs[j].TxIndex, l.TxIndex)
			tc.Assert.Equal(executed.Logs[j].Index, l.Index)
		}
	}
	tc.Assert.Nil(receipts[0].ContractAddress)
	tc.Require.Len(receipts[1].Logs, 1)
	tc.Assert.Equal(uint64(4), receipts[1].Logs[0].BlockNumber)
	tc.Assert.Equal(uint(2), receipts[1].Logs[0].TxIndex)
}

// commit_gate holds every batch commit until released.
type commit_gate struct {
	state_db.DB
	entered chan struct{}
	release chan struct{}
}

func (self *commit_gate) NewBatch() state_db.Batch {
	return &gated_batch{self.DB.NewBatch(), self}
}

type gated_batch struct {
	state_db.Batch
	gate *commit_gate
}

func (self *gated_batch) Commit(desc state_db.StateDescriptor) error {
	close(self.gate.entered)
	<-self.gate.release
	return self.Batch.Commit(desc)
}

func TestQueriesDuringBlockCommit(t *testing.T) {
	tc := new_query_test_ctx(t)
	defer tc.Close()
	gate := &commit_gate{DB: tc.db, entered: make(chan struct{}), release: make(chan struct{})}
	to := tests.Addr(2)
	tx := &state_common.Transaction{
		Hash: tests.Hash(1), From: funded_addr, To: &to, Gas: 21000, GasPrice: uint256.NewInt(1), Value: uint256.NewInt(10),
	}
	type outcome struct {
		res *state_common.ExecutionResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := tc.transition(gate).ExecuteBlock(tc.root, []*state_common.Transaction{tx}, &vm.BlockContext{Number: 1, GasLimit: 1e6})
		done <- outcome{res, err}
	}()
	select {
	case <-gate.entered:
	case o := <-done:
		tc.Require.FailNow("block finished without committing", "%v", o.err)
	case <-time.After(10 * time.Second):
		tc.Require.FailNow("block never reached its commit")
	}

	var (
		sender, receiver *state_common.Account
		proof            *Proof
		query_err        error
		queried          = make(chan struct{})
	)
	go func() {
		defer close(queried)
		if sender, query_err = tc.svc.GetAccount(tc.root, funded_addr); query_err != nil {
			return
		}
		if receiver, query_err = tc.svc.GetAccount(tc.root, to); query_err != nil {
			return
		}
		proof, query_err = tc.svc.GetProof(tc.root, contract_addr, []common.Hash{tests.Hash(1)})
	}()
	select {
	case <-queried:
	case <-time.After(10 * time.Second):
		close(gate.release)
		tc.Require.FailNow("queries waited for the block in flight")
	}
	tc.Require.NoError(query_err)
	tc.Assert.Equal(uint64(1e9), sender.Balance.Uint64())
	tc.Assert.Zero(sender.Nonce)
	tc.Assert.Equal(state_common.NewEmptyAccount(), receiver)
	proven, err := VerifyAccountProof(tc.root, &proof.Account)
	tc.Require.NoError(err)
	tc.Require.NotNil(proven)
	v, err := VerifyStorageProof(proven.StorageRoot, &proof.Storage[0])
	tc.Require.NoError(err)
	tc.Assert.Equal(tests.Hash(100), v)

	// an open snapshot does not hold the commit back either
	snap, err := tc.db.Snapshot()
	tc.Require.NoError(err)
	close(gate.release)
	var o outcome
	select {
	case o = <-done:
	case <-time.After(10 * time.Second):
		tc.Require.FailNow("commit waited for an open snapshot")
	}
	tc.Require.NoError(o.err)
	held, err := state_db.ReadDescriptor(snap)
	tc.Require.NoError(err)
	tc.Assert.Equal(tc.root, held.StateRoot)
	snap.Release()

	latest, err := tc.db.GetCommittedDescriptor()
	tc.Require.NoError(err)
	tc.Assert.Equal(o.res.StateRoot, latest.StateRoot)
	receiver, err = tc.svc.GetAccount(o.res.StateRoot, to)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(10), receiver.Balance.Uint64())
	receiver, err = tc.svc.GetAccount(tc.root, to)
	tc.Require.NoError(err)
	tc.Assert.Equal(state_common.NewEmptyAccount(), receiver)
}
