package state_evm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_leveldb"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

type state_test_ctx struct {
	tests.TestCtx
	db    *state_db_leveldb.DB
	world *state_world.World
	st    *EVMState
}

func new_state_test_ctx(t *testing.T) *state_test_ctx {
	ret := &state_test_ctx{TestCtx: tests.NewTestCtx(t)}
	var err error
	ret.db, err = state_db_leveldb.Open(state_db_leveldb.Opts{InMemory: true})
	ret.Require.NoError(err)
	ret.world = new(state_world.World).Init(ret.db, nil, nil)
	ret.st = new(EVMState).Init(ret.world, Opts{})
	return ret
}

func (self *state_test_ctx) Close() {
	self.db.Close()
	self.TestCtx.Close()
}

func (self *state_test_ctx) root() common.Hash {
	ret, err := self.world.StateRoot()
	self.Require.NoError(err)
	return ret
}

func TestRevertRestoresEverything(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	st, a, slot := tc.st, tests.Addr(1), tests.Hash(1)
	st.AddBalance(a, uint256.NewInt(10))
	snap := st.Snapshot()
	st.AddBalance(a, uint256.NewInt(5))
	st.SetNonce(a, 3)
	st.SetState(a, &slot, tests.Hash(9))
	st.SetCode(a, []byte{1})
	st.AddRefund(7)
	st.AddLog(&types.Log{Address: a})
	st.AddAddressToAccessList(tests.Addr(2))
	st.AddSlotToAccessList(a, slot)
	st.RevertToSnapshot(snap)

	tc.Assert.Equal(uint64(10), st.GetBalance(a).Uint64())
	tc.Assert.Equal(uint64(0), st.GetNonce(a))
	tc.Assert.Equal(common.Hash{}, st.GetState(a, &slot))
	tc.Assert.Equal(state_common.EmptyCodeHash, st.GetCodeHash(a))
	tc.Assert.Equal(uint64(0), st.GetRefund())
	tc.Assert.Empty(st.GetLogs())
	tc.Assert.False(st.AddressInAccessList(tests.Addr(2)))
	addr_ok, slot_ok := st.SlotInAccessList(a, slot)
	tc.Assert.False(addr_ok)
	tc.Assert.False(slot_ok)
}

func TestCreatedAccountRevertsToAbsent(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	a := tests.Addr(1)
	tc.Assert.False(tc.st.Exist(a))
	snap := tc.st.Snapshot()
	tc.st.SetNonce(a, 1)
	tc.Assert.True(tc.st.Exist(a))
	tc.st.RevertToSnapshot(snap)
	tc.Assert.False(tc.st.Exist(a))
	tc.Assert.Equal(common.Hash{}, tc.st.GetCodeHash(a))
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.Equal(trie.EmptyRoot, tc.root())
}

func TestCheckpointFlushesToWorld(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	a, b, slot := tests.Addr(1), tests.Addr(2), tests.Hash(1)
	tc.st.AddBalance(a, uint256.NewInt(100))
	tc.st.SetNonce(b, 1)
	tc.st.SetCode(b, []byte{0x60, 0x01})
	tc.st.SetState(b, &slot, tests.Hash(42))
	tc.Assert.Equal(common.Hash{}, tc.st.GetCommittedState(b, &slot))
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.Equal(tests.Hash(42), tc.st.GetCommittedState(b, &slot))

	acc, err := tc.world.GetAccount(&a)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(100), acc.Balance.Uint64())
	acc, err = tc.world.GetAccount(&b)
	tc.Require.NoError(err)
	code, err := tc.world.GetCode(&acc.CodeHash)
	tc.Require.NoError(err)
	tc.Assert.Equal([]byte{0x60, 0x01}, code)
	v, err := tc.world.GetStorage(&b, &slot)
	tc.Require.NoError(err)
	tc.Assert.Equal(tests.Hash(42), v)

	fresh := new(EVMState).Init(tc.world, Opts{})
	tc.Assert.Equal(tests.Hash(42), fresh.GetState(b, &slot))
	tc.Assert.Equal([]byte{0x60, 0x01}, fresh.GetCode(b))
	tc.Assert.Equal(2, fresh.GetCodeSize(b))
}

func TestTouchedEmptyAccountIsRemoved(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	a := tests.Addr(1)
	tc.st.AddBalance(a, new(uint256.Int))
	tc.Assert.True(tc.st.Exist(a))
	tc.Assert.True(tc.st.Empty(a))
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.False(tc.st.Exist(a))
	tc.Assert.Equal(trie.EmptyRoot, tc.root())
}

func TestSelfDestructDeletesAtCheckpoint(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	a, slot := tests.Addr(1), tests.Hash(1)
	tc.st.AddBalance(a, uint256.NewInt(5))
	tc.st.SetNonce(a, 1)
	tc.st.SetState(a, &slot, tests.Hash(3))
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.NotEqual(trie.EmptyRoot, tc.root())

	tc.st.SelfDestruct(a)
	tc.Assert.True(tc.st.HasSelfDestructed(a))
	tc.Assert.True(tc.st.Exist(a))
	tc.Assert.True(tc.st.GetBalance(a).IsZero())
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.False(tc.st.Exist(a))
	tc.Assert.Equal(common.Hash{}, tc.st.GetState(a, &slot))
	tc.Assert.Equal(trie.EmptyRoot, tc.root())

	tc.st.SetNonce(a, 1)
	tc.Assert.Equal(common.Hash{}, tc.st.GetState(a, &slot))
}

func TestAccessListPreparation(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	sender, dst, coinbase := tests.Addr(1), tests.Addr(2), tests.Addr(3)
	listed, slot := tests.Addr(4), tests.Hash(5)
	precompiles := []common.Address{common.BytesToAddress([]byte{1})}
	tc.st.PrepareAccessList(sender, &dst, precompiles,
		types.AccessList{{Address: listed, StorageKeys: []common.Hash{slot}}}, coinbase)
	for _, addr := range []common.Address{sender, dst, coinbase, listed, precompiles[0]} {
		tc.Assert.True(tc.st.AddressInAccessList(addr), addr.Hex())
	}
	_, slot_ok := tc.st.SlotInAccessList(listed, slot)
	tc.Assert.True(slot_ok)
	addrs, slots := tc.st.access_list.Len()
	tc.Assert.Equal(5, addrs)
	tc.Assert.Equal(1, slots)
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.False(tc.st.AddressInAccessList(sender))
}

func TestDiscardLeavesWorldUntouched(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	a := tests.Addr(1)
	tc.st.AddBalance(a, uint256.NewInt(1))
	tc.Require.NoError(tc.st.Checkpoint())
	before := tc.root()
	tc.st.AddBalance(a, uint256.NewInt(1))
	tc.st.AddLog(&types.Log{})
	tc.st.Discard()
	tc.Assert.Equal(uint64(1), tc.st.GetBalance(a).Uint64())
	tc.Assert.Empty(tc.st.GetLogs())
	tc.Require.NoError(tc.st.Checkpoint())
	tc.Assert.Equal(before, tc.root())
}

func TestSubRefundBelowZeroPanics(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	tc.st.AddRefund(1)
	tc.Assert.Panics(func() { tc.st.SubRefund(2) })
}

func TestStorageFaultPanics(t *testing.T) {
	tc := new_state_test_ctx(t)
	defer tc.Close()
	root := tests.Hash(7)
	st := new(EVMState).Init(new(state_world.World).Init(tc.db, nil, &root), Opts{})
	err := func() (err error) {
		defer state_common.RecoverStorageFault(&err)
		st.GetBalance(tests.Addr(1))
		return
	}()
	tc.Assert.Error(err)
	_, is_fault := err.(*state_common.StorageFault)
	tc.Assert.True(is_fault)
}
