package state_evm

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Dirties keeps the accounts touched since the last checkpoint in the order
// they were first touched, so that flushing is deterministic.
type Dirties struct {
	set *linkedhashset.Set
}

func (self *Dirties) Init() *Dirties {
	self.set = linkedhashset.New()
	return self
}

func (self *Dirties) add(acc *Account) {
	self.set.Add(acc)
}

func (self *Dirties) for_each(cb func(*Account) error) error {
	for it := self.set.Iterator(); it.Next(); {
		if err := cb(it.Value().(*Account)); err != nil {
			return err
		}
	}
	return nil
}

func (self *Dirties) len() int {
	return self.set.Size()
}

func (self *Dirties) clear() {
	self.set.Clear()
}
