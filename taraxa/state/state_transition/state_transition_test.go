package state_transition

import (
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/panjf2000/ants/v2"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db/mock_state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_leveldb"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/files"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

var coinbase = tests.Addr(0xc0)

type transition_test_ctx struct {
	tests.TestCtx
	cfg    state_common.ExecutionConfig
	db     state_db.DB
	caches *state_cache.Caches
	st     *StateTransition
}

func new_transition_test_ctx(t *testing.T, cfg state_common.ExecutionConfig) *transition_test_ctx {
	ret := &transition_test_ctx{TestCtx: tests.NewTestCtx(t), cfg: cfg}
	db, err := state_db_leveldb.Open(state_db_leveldb.Opts{InMemory: true})
	ret.Require.NoError(err)
	ret.use_db(db)
	return ret
}

func (self *transition_test_ctx) use_db(db state_db.DB) {
	var err error
	self.db = db
	self.caches, err = state_cache.New(state_cache.DefaultConfig())
	self.Require.NoError(err)
	self.st = new(StateTransition).Init(db, self.caches, nil, vm.NewDefault(self.cfg.ChainID, self.cfg.Gas), &self.cfg, DefaultOpts())
}

func (self *transition_test_ctx) Close() {
	self.db.Close()
	self.TestCtx.Close()
}

type genesis_account struct {
	balance uint64
	code    []byte
}

func (self *transition_test_ctx) genesis(accounts map[common.Address]genesis_account) common.Hash {
	w := new(state_world.World).Init(self.db, nil, nil)
	for addr, acc := range accounts {
		addr, body := addr, state_common.NewEmptyAccount()
		body.Balance = uint256.NewInt(acc.balance)
		if len(acc.code) != 0 {
			body.Nonce, body.CodeHash = 1, w.SetCode(acc.code)
		}
		self.Require.NoError(w.SetAccount(&addr, body))
	}
	batch := self.db.NewBatch()
	root, err := w.Commit(batch)
	self.Require.NoError(err)
	self.Require.NoError(batch.Commit(state_db.StateDescriptor{BlockNum: 0, StateRoot: root}))
	return root
}

func (self *transition_test_ctx) world(root common.Hash) *state_world.World {
	return new(state_world.World).Init(self.db, self.caches, &root)
}

func (self *transition_test_ctx) account(root common.Hash, addr common.Address) *state_common.Account {
	acc, err := self.world(root).GetAccount(&addr)
	self.Require.NoError(err)
	return acc
}

func (self *transition_test_ctx) balance(root common.Hash, addr common.Address) uint64 {
	return self.account(root, addr).Balance.Uint64()
}

func block(n uint64, gas_limit uint64) *vm.BlockContext {
	return &vm.BlockContext{Number: n, Coinbase: coinbase, GasLimit: gas_limit, Time: 1000 + n}
}

func transfer(from, to common.Address, nonce, value, gas uint64) *state_common.Transaction {
	ret := &state_common.Transaction{
		From: from, To: &to, Nonce: nonce, Gas: gas, GasPrice: uint256.NewInt(1), Value: uint256.NewInt(value),
	}
	ret.Hash = keccak256.HashAndReturnByValue(from[:], to[:], uint256.NewInt(nonce).Bytes())
	return ret
}

func TestTransferWithCustomIntrinsicGas(t *testing.T) {
	cfg := state_common.DefaultExecutionConfig()
	cfg.Fees.TxGas = 21
	tc := new_transition_test_ctx(t, cfg)
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 100}})

	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, b, 0, 10, 21)}, block(1, 1000))
	tc.Require.NoError(err)
	tc.Require.Len(res.Receipts, 1)
	tc.Assert.Empty(res.Rejected)
	tc.Assert.Equal(state_common.ReceiptSuccess, res.Receipts[0].Status)
	tc.Assert.Equal(uint64(21), res.Receipts[0].GasUsed)
	tc.Assert.Equal(uint64(21), res.GasUsed)
	tc.Assert.Equal(uint64(69), tc.balance(res.StateRoot, a))
	tc.Assert.Equal(uint64(1), tc.account(res.StateRoot, a).Nonce)
	tc.Assert.Equal(uint64(10), tc.balance(res.StateRoot, b))
	tc.Assert.Equal(uint64(21), tc.balance(res.StateRoot, coinbase))

	desc, err := tc.db.GetCommittedDescriptor()
	tc.Require.NoError(err)
	tc.Assert.Equal(state_db.StateDescriptor{BlockNum: 1, StateRoot: res.StateRoot, ReceiptsRoot: res.ReceiptsRoot}, desc)
	expected_receipts_root, err := ReceiptsRoot(res.Receipts, nil)
	tc.Require.NoError(err)
	tc.Assert.Equal(expected_receipts_root, res.ReceiptsRoot)
}

func TestUnderfundedTransferIsRejected(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 21005}})

	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, b, 0, 10, 21000)}, block(1, 100000))
	tc.Require.NoError(err)
	tc.Assert.Empty(res.Receipts)
	tc.Require.Len(res.Rejected, 1)
	tc.Assert.True(errors.Is(res.Rejected[0], state_common.ErrInsufficientFunds))
	tc.Assert.Equal(uint64(0), res.GasUsed)
	tc.Assert.Equal(root, res.StateRoot)
	tc.Assert.Equal(trie.EmptyRoot, res.ReceiptsRoot)
}

func TestPrecheckRejections(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b, c := tests.Addr(1), tests.Addr(2), tests.Addr(3)
	root := tc.genesis(map[common.Address]genesis_account{
		a: {balance: 1e9},
		c: {balance: 1e9, code: []byte{0x00}},
	})
	low_fee_cap := transfer(a, b, 0, 1, 21000)
	low_fee_cap.GasPrice, low_fee_cap.GasFeeCap, low_fee_cap.GasTipCap = nil, new(uint256.Int), new(uint256.Int)
	blk := block(1, 1e6)
	blk.BaseFee = uint256.NewInt(1)
	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{
		transfer(a, b, 1, 1, 21000),
		transfer(a, b, 0, 1, 20999),
		transfer(c, b, 1, 1, 21000),
		low_fee_cap,
		transfer(a, b, 0, 1, 21000),
		transfer(a, b, 0, 1, 21000),
	}, blk)
	tc.Require.NoError(err)
	tc.Require.Len(res.Rejected, 5)
	reasons := []error{
		state_common.ErrNonceTooHigh,
		state_common.ErrIntrinsicGas,
		state_common.ErrSenderNoEOA,
		state_common.ErrFeeCapTooLow,
		state_common.ErrNonceTooLow,
	}
	for i, reason := range reasons {
		tc.Assert.Equal(reason, res.Rejected[i].Reason, i)
	}
	tc.Assert.Equal(state_common.TxIndex(5), res.Rejected[4].TxIndex)
	tc.Require.Len(res.Receipts, 1)
	tc.Assert.Equal(state_common.TxIndex(4), res.Receipts[0].TxIndex)
}

func TestContractCreation(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a := tests.Addr(1)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	// returns one zero byte as the runtime code
	init_code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 0, byte(vm.RETURN)}
	tx := &state_common.Transaction{From: a, Gas: 100000, GasPrice: uint256.NewInt(1), Data: init_code}

	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{tx}, block(1, 1e6))
	tc.Require.NoError(err)
	tc.Require.Len(res.Receipts, 1)
	receipt := res.Receipts[0]
	tc.Assert.Equal(state_common.ReceiptSuccess, receipt.Status)
	expected_addr := crypto.CreateAddress(a, 0)
	tc.Require.NotNil(receipt.ContractAddress)
	tc.Assert.Equal(expected_addr, *receipt.ContractAddress)

	contract := tc.account(res.StateRoot, expected_addr)
	tc.Assert.Equal(uint64(1), contract.Nonce)
	tc.Assert.Equal(trie.EmptyRoot, contract.StorageRoot)
	tc.Assert.Equal(crypto.Keccak256Hash([]byte{0}), contract.CodeHash)
	code, err := tc.world(res.StateRoot).GetCode(&contract.CodeHash)
	tc.Require.NoError(err)
	tc.Assert.Equal([]byte{0}, code)
	sender := tc.account(res.StateRoot, a)
	tc.Assert.Equal(uint64(1), sender.Nonce)
	tc.Assert.Equal(uint64(1e9)-receipt.GasUsed, sender.Balance.Uint64())
}

func TestRevertKeepsStorageAndChargesGas(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, c := tests.Addr(1), tests.Addr(0xcc)
	code := []byte{
		byte(vm.PUSH1), 1, byte(vm.PUSH1), 0, byte(vm.SSTORE),
		byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.REVERT),
	}
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}, c: {code: code}})

	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, c, 0, 0, 100000)}, block(1, 1e6))
	tc.Require.NoError(err)
	tc.Require.Len(res.Receipts, 1)
	receipt := res.Receipts[0]
	tc.Assert.Equal(state_common.ReceiptReverted, receipt.Status)
	tc.Assert.Equal(vm.ErrExecutionReverted, receipt.Err)
	tc.Assert.Greater(receipt.GasUsed, uint64(21000+22100))
	tc.Assert.Less(receipt.GasUsed, uint64(100000))

	slot := common.Hash{}
	v, err := tc.world(res.StateRoot).GetStorage(&c, &slot)
	tc.Require.NoError(err)
	tc.Assert.Equal(common.Hash{}, v)
	tc.Assert.Equal(trie.EmptyRoot, tc.account(res.StateRoot, c).StorageRoot)
	sender := tc.account(res.StateRoot, a)
	tc.Assert.Equal(uint64(1), sender.Nonce)
	tc.Assert.Equal(uint64(1e9)-receipt.GasUsed, sender.Balance.Uint64())
}

func TestFaultConsumesAllGas(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, c := tests.Addr(1), tests.Addr(0xcc)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}, c: {code: []byte{byte(vm.INVALID)}}})
	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, c, 0, 5, 50000)}, block(1, 1e6))
	tc.Require.NoError(err)
	receipt := res.Receipts[0]
	tc.Assert.Equal(state_common.ReceiptFailed, receipt.Status)
	tc.Assert.Equal(uint64(50000), receipt.GasUsed)
	tc.Assert.Equal(uint64(0), tc.balance(res.StateRoot, c))
	tc.Assert.Equal(uint64(1e9-50000), tc.balance(res.StateRoot, a))
	tc.Assert.Equal(uint64(1), tc.account(res.StateRoot, a).Nonce)
}

func TestLogsAndBloom(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, c := tests.Addr(1), tests.Addr(0xcc)
	topic := tests.Hash(0xabc)
	code := append([]byte{byte(vm.PUSH32)}, topic[:]...)
	code = append(code, byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.LOG1), byte(vm.STOP))
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}, c: {code: code}})
	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{
		transfer(a, c, 0, 0, 100000),
		transfer(a, c, 1, 0, 100000),
	}, block(7, 1e6))
	tc.Require.NoError(err)
	tc.Require.Len(res.Receipts, 2)
	for i, r := range res.Receipts {
		tc.Require.Len(r.Logs, 1)
		l := r.Logs[0]
		tc.Assert.Equal(c, l.Address)
		tc.Assert.Equal([]common.Hash{topic}, l.Topics)
		tc.Assert.Equal(uint64(7), l.BlockNumber)
		tc.Assert.Equal(uint(i), l.TxIndex)
		tc.Assert.Equal(uint(i), l.Index)
		tc.Assert.True(types.BloomLookup(r.Bloom, topic))
	}
	tc.Assert.True(types.BloomLookup(res.Bloom, c))
	tc.Assert.False(types.BloomLookup(res.Bloom, tests.Hash(0xdef)))
}

func TestBlockGasLimitIsProtocolViolation(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	_, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{
		transfer(a, b, 0, 1, 21000),
		transfer(a, b, 1, 1, 21000),
	}, block(1, 30000))
	var violation *state_common.ProtocolViolation
	tc.Require.True(errors.As(err, &violation))
	tc.Assert.True(errors.Is(err, state_common.ErrGasLimitReached))
	desc, err := tc.db.GetCommittedDescriptor()
	tc.Require.NoError(err)
	tc.Assert.Equal(root, desc.StateRoot)
	tc.Assert.Equal(uint64(0), desc.BlockNum)
}

func TestMalformedBlockContext(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	var violation *state_common.ProtocolViolation

	_, err := tc.st.ExecuteBlock(root, nil, block(1, 0))
	tc.Assert.True(errors.As(err, &violation))
	tc.Assert.True(errors.Is(err, state_common.ErrZeroBlockGasLimit))

	dynamic := transfer(a, b, 0, 1, 21000)
	dynamic.GasPrice, dynamic.GasFeeCap = nil, uint256.NewInt(10)
	_, err = tc.st.ExecuteBlock(root, []*state_common.Transaction{dynamic}, block(1, 1e6))
	tc.Assert.True(errors.Is(err, state_common.ErrMissingBaseFee))

	_, err = tc.st.ExecuteBlock(tests.Hash(12345), nil, block(1, 1e6))
	tc.Assert.True(errors.As(err, &violation))
	tc.Assert.True(errors.Is(err, state_common.ErrUnknownParentRoot))
}

func TestCachedNodeOfOtherTrieIsNotAParentRoot(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, b, 0, 1, 21000)}, block(1, 1e6))
	tc.Require.NoError(err)
	_, cached := tc.caches.Nodes.Get(&res.ReceiptsRoot)
	tc.Require.True(cached)

	_, err = tc.st.ExecuteBlock(res.ReceiptsRoot, nil, block(2, 1e6))
	var violation *state_common.ProtocolViolation
	tc.Assert.True(errors.As(err, &violation))
	tc.Assert.True(errors.Is(err, state_common.ErrUnknownParentRoot))
}

func TestDynamicFeeAndBurn(t *testing.T) {
	cfg := state_common.DefaultExecutionConfig()
	cfg.Fees.BurnPercent = 50
	tc := new_transition_test_ctx(t, cfg)
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	tx := transfer(a, b, 0, 1000, 21000)
	tx.GasPrice, tx.GasFeeCap, tx.GasTipCap = nil, uint256.NewInt(10), uint256.NewInt(3)
	blk := block(1, 1e6)
	blk.BaseFee = uint256.NewInt(5)
	res, err := tc.st.ExecuteBlock(root, []*state_common.Transaction{tx}, blk)
	tc.Require.NoError(err)
	tc.Require.Len(res.Receipts, 1)
	// effective price is min(10, 5+3)
	fee := uint64(21000 * 8)
	tc.Assert.Equal(uint64(1e9)-fee-1000, tc.balance(res.StateRoot, a))
	tc.Assert.Equal(fee/2, tc.balance(res.StateRoot, coinbase))
	total := tc.balance(res.StateRoot, a) + tc.balance(res.StateRoot, b) + tc.balance(res.StateRoot, coinbase)
	tc.Assert.Equal(uint64(1e9)-fee/2, total)
}

func TestDeterminismAndConservation(t *testing.T) {
	accounts := map[common.Address]genesis_account{}
	var txs []*state_common.Transaction
	for i := uint64(1); i <= 10; i++ {
		accounts[tests.Addr(i)] = genesis_account{balance: 1e9}
		txs = append(txs, transfer(tests.Addr(i), tests.Addr(i%10+1), 0, i*1000, 21000))
	}
	var results []*state_common.ExecutionResult
	for run := 0; run < 2; run++ {
		tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
		root := tc.genesis(accounts)
		res, err := tc.st.ExecuteBlock(root, txs, block(1, 1e7))
		tc.Require.NoError(err)
		var total, cumulative uint64
		for i := uint64(1); i <= 10; i++ {
			total += tc.balance(res.StateRoot, tests.Addr(i))
		}
		total += tc.balance(res.StateRoot, coinbase)
		tc.Assert.Equal(uint64(10*1e9), total)
		for _, r := range res.Receipts {
			tc.Assert.GreaterOrEqual(r.CumulativeGasUsed, cumulative)
			cumulative = r.CumulativeGasUsed
		}
		tc.Assert.Equal(res.GasUsed, cumulative)
		tc.Assert.LessOrEqual(cumulative, uint64(1e7))
		results = append(results, res)
		tc.Close()
	}
	tc := tests.NewTestCtx(t)
	tc.Assert.Equal(results[0].StateRoot, results[1].StateRoot)
	tc.Assert.Equal(results[0].ReceiptsRoot, results[1].ReceiptsRoot)
	tc.Assert.Equal(results[0].Bloom, results[1].Bloom)
}

func TestReplayOnCopiedDatabase(t *testing.T) {
	tc := tests.NewTestCtx(t)
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	dir := filepath.Join(tc.DataDir(), "orig")
	db, err := state_db_leveldb.Open(state_db_leveldb.Opts{Path: dir})
	tc.Require.NoError(err)
	ctx := &transition_test_ctx{TestCtx: tc, cfg: state_common.DefaultExecutionConfig()}
	ctx.use_db(db)
	root := ctx.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	tc.Require.NoError(db.Close())

	copy_dir := filepath.Join(tc.DataDir(), "copy")
	tc.Require.NoError(files.Copy(dir, copy_dir))
	var roots []common.Hash
	for _, path := range []string{dir, copy_dir} {
		db, err := state_db_leveldb.Open(state_db_leveldb.Opts{Path: path})
		tc.Require.NoError(err)
		ctx.use_db(db)
		desc, err := db.GetCommittedDescriptor()
		tc.Require.NoError(err)
		tc.Assert.Equal(root, desc.StateRoot)
		res, err := ctx.st.ExecuteBlock(desc.StateRoot, []*state_common.Transaction{transfer(a, b, 0, 7, 21000)}, block(1, 1e6))
		tc.Require.NoError(err)
		roots = append(roots, res.StateRoot)
		tc.Require.NoError(db.Close())
	}
	tc.Assert.Equal(roots[0], roots[1])
}

func TestCommitFailureIsStorageFault(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	db := mock_state_db.NewMockDB(ctrl)
	batch := mock_state_db.NewMockBatch(ctrl)
	db.EXPECT().NewBatch().Return(batch)
	batch.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	batch.EXPECT().Commit(gomock.Any()).Return(errors.New("disk full"))
	st := new(StateTransition).Init(db, nil, nil, vm.NewDefault(tc.cfg.ChainID, tc.cfg.Gas), &tc.cfg, DefaultOpts())
	_, err := st.ExecuteBlock(trie.EmptyRoot, nil, block(1, 1e6))
	tc.Require.Error(err)
	tc.Assert.True(state_common.IsFatal(err))
}

func TestReadFailureIsStorageFault(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	a, b := tests.Addr(1), tests.Addr(2)
	root := tc.genesis(map[common.Address]genesis_account{a: {balance: 1e9}})
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	db := mock_state_db.NewMockDB(ctrl)
	// the parent root check passes, every later read fails
	db.EXPECT().Get(state_db.COL_acc_trie_node, gomock.Any(), gomock.Any()).DoAndReturn(
		func(col state_db.Column, key *common.Hash, cb func([]byte)) error {
			return tc.db.Get(col, key, cb)
		}).Times(1)
	db.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("io error")).AnyTimes()
	st := new(StateTransition).Init(db, nil, nil, vm.NewDefault(tc.cfg.ChainID, tc.cfg.Gas), &tc.cfg, DefaultOpts())
	_, err := st.ExecuteBlock(root, []*state_common.Transaction{transfer(a, b, 0, 1, 21000)}, block(1, 1e6))
	tc.Require.Error(err)
	tc.Assert.True(state_common.IsFatal(err))
	tc.Assert.False(st.running.Load())
}

func TestConcurrentExecutionPanics(t *testing.T) {
	tc := new_transition_test_ctx(t, state_common.DefaultExecutionConfig())
	defer tc.Close()
	tc.st.running.Store(true)
	tc.Assert.PanicsWithValue(state_common.ErrConcurrentExecution, func() {
		_, _ = tc.st.ExecuteBlock(trie.EmptyRoot, nil, block(1, 1e6))
	})
}

func TestRecoverSenders(t *testing.T) {
	tc := tests.NewTestCtx(t)
	cfg := state_common.DefaultExecutionConfig()
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(cfg.ChainID))
	key, err := crypto.GenerateKey()
	tc.Require.NoError(err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	to := tests.Addr(2)
	var signed []*types.Transaction
	for i := uint64(0); i < 16; i++ {
		tx, err := types.SignNewTx(key, signer, &types.DynamicFeeTx{
			ChainID: signer.ChainID(), Nonce: i, GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(10),
			Gas: 21000, To: &to, Value: big.NewInt(5),
		})
		tc.Require.NoError(err)
		enc, err := tx.MarshalBinary()
		tc.Require.NoError(err)
		decoded, err := DecodeSigned(enc)
		tc.Require.NoError(err)
		signed = append(signed, decoded)
	}
	pool, err := ants.NewPool(4)
	tc.Require.NoError(err)
	defer pool.Release()
	txs, err := RecoverSenders(pool, signer, signed)
	tc.Require.NoError(err)
	for i, tx := range txs {
		tc.Assert.Equal(from, tx.From)
		tc.Assert.Equal(uint64(i), tx.Nonce)
		tc.Assert.Equal(signed[i].Hash(), tx.Hash)
		tc.Assert.True(tx.IsDynamicFee())
		tc.Assert.Equal(uint64(10), tx.GasFeeCap.Uint64())
	}

	other := types.LatestSignerForChainID(big.NewInt(1))
	_, err = RecoverSenders(nil, other, signed[:1])
	tc.Assert.True(errors.Is(err, state_common.ErrChainIDMismatch))
}
