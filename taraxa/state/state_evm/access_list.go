package state_evm

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

type access_list_slot struct {
	addr common.Address
	slot common.Hash
}

// AccessList is the per-transaction warm set. Additions are journaled on the
// owning EVMState.
type AccessList struct {
	addrs mapset.Set[common.Address]
	slots mapset.Set[access_list_slot]
}

func (self *AccessList) Init() *AccessList {
	self.addrs = mapset.NewThreadUnsafeSet[common.Address]()
	self.slots = mapset.NewThreadUnsafeSet[access_list_slot]()
	return self
}

func (self *AccessList) ContainsAddress(addr common.Address) bool {
	return self.addrs.Contains(addr)
}

func (self *AccessList) Contains(addr common.Address, slot common.Hash) (addr_present bool, slot_present bool) {
	return self.addrs.Contains(addr), self.slots.Contains(access_list_slot{addr, slot})
}

func (self *AccessList) Len() (addrs int, slots int) {
	return self.addrs.Cardinality(), self.slots.Cardinality()
}

func (self *AccessList) reset() {
	self.addrs.Clear()
	self.slots.Clear()
}
