package state_evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

// EVMState is the journaled view a block executes against. Accounts stay
// loaded for the whole block; the journal, logs, refund and access list are
// per transaction and reset by Checkpoint.
// Reads that fail in the underlying store panic with a StorageFault, see
// state_common.RecoverStorageFault.
type EVMState struct {
	in          World
	accounts    map[common.Address]*Account
	dirties     Dirties
	access_list AccessList
	reverts     []func()
	logs        []*types.Log
	refund      uint64
}

type Opts struct {
	AccountBufferSize uint32
	RevertLogSize     uint32
}

func (self *EVMState) Init(in World, opts Opts) *EVMState {
	self.in = in
	self.accounts = make(map[common.Address]*Account, opts.AccountBufferSize)
	self.dirties.Init()
	self.access_list.Init()
	self.reverts = make([]func(), 0, opts.RevertLogSize)
	return self
}

func (self *EVMState) GetAccountConcrete(addr *common.Address) *Account {
	if acc := self.accounts[*addr]; acc != nil {
		return acc
	}
	acc := &Account{host: self, addr: *addr}
	body, err := self.in.GetAccount(addr)
	state_common.PanicIfStorageErr(err)
	if !body.IsEmpty() {
		acc.AccountBody = &AccountBody{Account: *body}
	}
	self.accounts[*addr] = acc
	return acc
}

func (self *EVMState) Exist(addr common.Address) bool {
	return self.GetAccountConcrete(&addr).IsNotNIL()
}

func (self *EVMState) Empty(addr common.Address) bool {
	return self.GetAccountConcrete(&addr).IsEIP161Empty()
}

func (self *EVMState) GetBalance(addr common.Address) *uint256.Int {
	return self.GetAccountConcrete(&addr).GetBalance()
}

func (self *EVMState) AddBalance(addr common.Address, amount *uint256.Int) {
	self.GetAccountConcrete(&addr).AddBalance(amount)
}

func (self *EVMState) SubBalance(addr common.Address, amount *uint256.Int) {
	self.GetAccountConcrete(&addr).SubBalance(amount)
}

func (self *EVMState) GetNonce(addr common.Address) uint64 {
	return self.GetAccountConcrete(&addr).GetNonce()
}

func (self *EVMState) SetNonce(addr common.Address, nonce uint64) {
	self.GetAccountConcrete(&addr).SetNonce(nonce)
}

func (self *EVMState) GetCode(addr common.Address) []byte {
	return self.GetAccountConcrete(&addr).GetCode()
}

func (self *EVMState) GetCodeHash(addr common.Address) common.Hash {
	return self.GetAccountConcrete(&addr).GetCodeHash()
}

func (self *EVMState) GetCodeSize(addr common.Address) int {
	return len(self.GetAccountConcrete(&addr).GetCode())
}

func (self *EVMState) SetCode(addr common.Address, code []byte) {
	self.GetAccountConcrete(&addr).SetCode(code)
}

func (self *EVMState) GetState(addr common.Address, key *common.Hash) common.Hash {
	return self.GetAccountConcrete(&addr).GetState(key)
}

func (self *EVMState) GetCommittedState(addr common.Address, key *common.Hash) common.Hash {
	acc := self.GetAccountConcrete(&addr)
	if !acc.IsNotNIL() {
		return common.Hash{}
	}
	return acc.GetCommittedState(key)
}

func (self *EVMState) SetState(addr common.Address, key *common.Hash, value common.Hash) {
	self.GetAccountConcrete(&addr).SetState(key, value)
}

func (self *EVMState) SelfDestruct(addr common.Address) {
	self.GetAccountConcrete(&addr).Suicide()
}

func (self *EVMState) HasSelfDestructed(addr common.Address) bool {
	return self.GetAccountConcrete(&addr).HasSuicided()
}

func (self *EVMState) AddRefund(gas uint64) {
	prev := self.refund
	self.register_change(func() {
		self.refund = prev
	})
	self.refund += gas
}

func (self *EVMState) SubRefund(gas uint64) {
	if gas > self.refund {
		panic("Refund counter below zero")
	}
	prev := self.refund
	self.register_change(func() {
		self.refund = prev
	})
	self.refund -= gas
}

func (self *EVMState) GetRefund() uint64 {
	return self.refund
}

func (self *EVMState) AddressInAccessList(addr common.Address) bool {
	return self.access_list.ContainsAddress(addr)
}

func (self *EVMState) SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool) {
	return self.access_list.Contains(addr, slot)
}

func (self *EVMState) AddAddressToAccessList(addr common.Address) {
	if self.access_list.addrs.Add(addr) {
		self.register_change(func() {
			self.access_list.addrs.Remove(addr)
		})
	}
}

func (self *EVMState) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	self.AddAddressToAccessList(addr)
	if key := (access_list_slot{addr, slot}); self.access_list.slots.Add(key) {
		self.register_change(func() {
			self.access_list.slots.Remove(key)
		})
	}
}

// PrepareAccessList warms what every transaction starts with: the sender,
// the destination, the precompiles, the coinbase and the declared list.
func (self *EVMState) PrepareAccessList(
	sender common.Address, dst *common.Address, precompiles []common.Address, list types.AccessList, coinbase common.Address) {
	self.AddAddressToAccessList(sender)
	if dst != nil {
		self.AddAddressToAccessList(*dst)
	}
	for _, addr := range precompiles {
		self.AddAddressToAccessList(addr)
	}
	for i := range list {
		self.AddAddressToAccessList(list[i].Address)
		for _, slot := range list[i].StorageKeys {
			self.AddSlotToAccessList(list[i].Address, slot)
		}
	}
	self.AddAddressToAccessList(coinbase)
}

func (self *EVMState) AddLog(log *types.Log) {
	pos := len(self.logs)
	self.register_change(func() {
		self.logs = self.logs[:pos]
	})
	self.logs = append(self.logs, log)
}

func (self *EVMState) GetLogs() []*types.Log {
	return self.logs
}

func (self *EVMState) Snapshot() int {
	return len(self.reverts)
}

func (self *EVMState) RevertToSnapshot(snapshot int) {
	for i := len(self.reverts) - 1; i >= snapshot; i-- {
		self.reverts[i]()
		self.reverts[i] = nil
	}
	self.reverts = self.reverts[:snapshot]
}

func (self *EVMState) register_change(revert func()) {
	self.reverts = append(self.reverts, revert)
}

// Checkpoint closes a transaction: the net changes of every touched account
// go to the world in first-touch order, and the per-transaction state is
// dropped. It must be called for every executed transaction, reverted or not.
func (self *EVMState) Checkpoint() error {
	if err := self.dirties.for_each(func(acc *Account) error {
		return acc.flush(self.in)
	}); err != nil {
		return err
	}
	self.dirties.clear()
	for i := range self.reverts {
		self.reverts[i] = nil
	}
	self.reverts = self.reverts[:0]
	self.logs = nil
	self.refund = 0
	self.access_list.reset()
	return nil
}

// Discard drops the current transaction without flushing anything. Accounts
// touched by it are evicted so that later reads go to the world again.
func (self *EVMState) Discard() {
	self.RevertToSnapshot(0)
	_ = self.dirties.for_each(func(acc *Account) error {
		delete(self.accounts, acc.addr)
		return nil
	})
	self.dirties.clear()
	self.logs = nil
	self.refund = 0
	self.access_list.reset()
}

var _ vm.Host = (*EVMState)(nil)
