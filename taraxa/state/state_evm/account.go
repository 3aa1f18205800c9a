package state_evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

type Account struct {
	host *EVMState
	addr common.Address
	// nil while the account is absent from the state
	*AccountBody
	// values as of the last checkpoint, filled on demand
	storage_origin EVMStorage
}

type AccountBody struct {
	state_common.Account
	code          []byte
	code_dirty    bool
	storage_dirty EVMStorage
	suicided      bool
}

func (self *Account) Address() *common.Address {
	return &self.addr
}

func (self *Account) IsNotNIL() bool {
	return self.AccountBody != nil
}

func (self *Account) IsEIP161Empty() bool {
	return !self.IsNotNIL() || self.Account.IsEmpty()
}

func (self *Account) GetBalance() *uint256.Int {
	if !self.IsNotNIL() {
		return new(uint256.Int)
	}
	return self.Balance
}

func (self *Account) GetNonce() uint64 {
	if !self.IsNotNIL() {
		return 0
	}
	return self.Nonce
}

func (self *Account) GetCodeHash() common.Hash {
	if !self.IsNotNIL() {
		return common.Hash{}
	}
	return self.CodeHash
}

func (self *Account) GetCode() []byte {
	if !self.IsNotNIL() || !self.HasCode() {
		return nil
	}
	if self.code == nil {
		code, err := self.host.in.GetCode(&self.CodeHash)
		state_common.PanicIfStorageErr(err)
		self.code = code
	}
	return self.code
}

func (self *Account) GetState(key *common.Hash) common.Hash {
	if !self.IsNotNIL() {
		return common.Hash{}
	}
	if value, present := self.storage_dirty[*key]; present {
		return value
	}
	return self.GetCommittedState(key)
}

func (self *Account) GetCommittedState(key *common.Hash) common.Hash {
	if ret, present := self.storage_origin[*key]; present {
		return ret
	}
	ret, err := self.host.in.GetStorage(&self.addr, key)
	state_common.PanicIfStorageErr(err)
	if self.storage_origin == nil {
		self.storage_origin = make(EVMStorage)
	}
	self.storage_origin[*key] = ret
	return ret
}

func (self *Account) SetState(key *common.Hash, value common.Hash) {
	self.ensure_exists()
	prev, was_dirty := self.storage_dirty[*key]
	if !was_dirty {
		prev = self.GetCommittedState(key)
	}
	if was_dirty && prev == value {
		return
	}
	k := *key
	self.register_change(func() {
		if was_dirty {
			self.storage_dirty[k] = prev
		} else {
			delete(self.storage_dirty, k)
		}
	})
	if self.storage_dirty == nil {
		self.storage_dirty = make(EVMStorage)
	}
	self.storage_dirty[k] = value
}

func (self *Account) HasSuicided() bool {
	return self.IsNotNIL() && self.suicided
}

// AddBalance touches the account even for a zero amount, which is what makes
// an empty account eligible for removal.
func (self *Account) AddBalance(amount *uint256.Int) {
	self.ensure_exists()
	if amount.IsZero() {
		self.host.dirties.add(self)
		return
	}
	self.set_balance(new(uint256.Int).Add(self.Balance, amount))
}

func (self *Account) SubBalance(amount *uint256.Int) {
	self.ensure_exists()
	if !amount.IsZero() {
		self.set_balance(new(uint256.Int).Sub(self.Balance, amount))
	}
}

func (self *Account) set_balance(amount *uint256.Int) {
	balance_prev := self.Balance
	self.Balance = amount
	self.register_change(func() {
		self.Balance = balance_prev
	})
}

func (self *Account) SetNonce(nonce uint64) {
	self.ensure_exists()
	prev := self.Nonce
	self.Nonce = nonce
	self.register_change(func() {
		self.Nonce = prev
	})
}

func (self *Account) SetCode(code []byte) {
	self.ensure_exists()
	if len(code) == 0 {
		return
	}
	code_prev, code_hash_prev, dirty_prev := self.code, self.CodeHash, self.code_dirty
	self.register_change(func() {
		self.code, self.CodeHash, self.code_dirty = code_prev, code_hash_prev, dirty_prev
	})
	self.code, self.CodeHash, self.code_dirty = code, keccak256.HashAndReturnByValue(code), true
}

func (self *Account) Suicide() {
	if !self.IsNotNIL() {
		return
	}
	suicided, balance_prev := self.suicided, self.Balance
	self.register_change(func() {
		self.suicided, self.Balance = suicided, balance_prev
	})
	self.suicided, self.Balance = true, new(uint256.Int)
}

func (self *Account) ensure_exists() {
	if self.IsNotNIL() {
		return
	}
	self.AccountBody = &AccountBody{Account: *state_common.NewEmptyAccount()}
	self.register_change(func() {
		self.AccountBody = nil
	})
}

func (self *Account) register_change(revert func()) {
	self.host.dirties.add(self)
	self.host.register_change(revert)
}

// flush hands the net change to sink. Deleted accounts also lose the cached
// committed storage.
func (self *Account) flush(sink Sink) (err error) {
	if self.IsEIP161Empty() || self.suicided {
		self.AccountBody = nil
		self.storage_origin = nil
		return sink.DeleteAccount(&self.addr)
	}
	if self.code_dirty {
		sink.SetCode(self.code)
		self.code_dirty = false
	}
	for k, v := range self.storage_dirty {
		k, v := k, v
		if err = sink.SetStorage(&self.addr, &k, &v); err != nil {
			return
		}
		if self.storage_origin == nil {
			self.storage_origin = make(EVMStorage)
		}
		self.storage_origin[k] = v
	}
	self.storage_dirty = nil
	return sink.SetAccount(&self.addr, &self.Account)
}
