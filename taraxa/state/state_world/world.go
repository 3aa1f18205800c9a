package state_world

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// World is a mutable view of the state at one root. Reads go through the
// node cache into the store, writes stay in memory until Commit.
// Not safe for concurrent use.
type World struct {
	r        state_db.Reader
	caches   *state_cache.Caches
	acc_in   trie.Input
	stor_in  trie.Input
	accounts trie.Writer
	storage  map[common.Address]*storage_trie
	code     map[common.Hash][]byte
}

type storage_trie struct {
	trie.Writer
	dirty bool
}

// Init opens the world at root. caches may be nil.
func (self *World) Init(r state_db.Reader, caches *state_cache.Caches, root *common.Hash) *World {
	self.r, self.caches = r, caches
	self.acc_in = self.trie_input(state_db.COL_acc_trie_node)
	self.stor_in = self.trie_input(state_db.COL_storage_trie_node)
	self.accounts.Init(root)
	self.storage = make(map[common.Address]*storage_trie)
	self.code = make(map[common.Hash][]byte)
	return self
}

func (self *World) trie_input(col state_db.Column) trie.Input {
	if self.caches == nil {
		return state_db.TrieInput{Reader: self.r, Col: col}
	}
	return self.caches.TrieInput(self.r, col)
}

func acc_key(addr *common.Address) *common.Hash {
	return keccak256.Hash(addr[:])
}

// GetAccount returns a private copy. Absent accounts read as the canonical
// empty account.
func (self *World) GetAccount(addr *common.Address) (*state_common.Account, error) {
	acc, _, err := self.get_account(addr)
	return acc, err
}

func (self *World) get_account(addr *common.Address) (*state_common.Account, bool, error) {
	enc, err := self.accounts.Get(self.acc_in, acc_key(addr))
	if err != nil {
		return nil, false, err
	}
	if enc == nil {
		return state_common.NewEmptyAccount(), false, nil
	}
	acc, err := state_common.DecodeAccount(enc)
	if err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

// SetAccount stores acc. An empty account is removed together with its
// storage. The storage root of acc is replaced by the one of the open storage
// trie, if any.
func (self *World) SetAccount(addr *common.Address, acc *state_common.Account) error {
	if acc.IsEmpty() {
		return self.DeleteAccount(addr)
	}
	if st := self.storage[*addr]; st != nil {
		st.dirty = true
	}
	return self.accounts.Put(self.acc_in, acc_key(addr), acc.Encode())
}

func (self *World) DeleteAccount(addr *common.Address) error {
	st := &storage_trie{dirty: true}
	st.Init(&trie.EmptyRoot)
	self.storage[*addr] = st
	return self.accounts.Delete(self.acc_in, acc_key(addr))
}

func (self *World) GetCode(code_hash *common.Hash) ([]byte, error) {
	if *code_hash == state_common.EmptyCodeHash {
		return nil, nil
	}
	if code, present := self.code[*code_hash]; present {
		return code, nil
	}
	if self.caches != nil {
		return self.caches.GetCode(self.r, code_hash)
	}
	return state_db.ExtendedReader{Reader: self.r}.GetCode(code_hash)
}

// SetCode registers a blob and returns its digest. Blobs are write-once, so
// setting known code is a no-op.
func (self *World) SetCode(code []byte) common.Hash {
	if len(code) == 0 {
		return state_common.EmptyCodeHash
	}
	code_hash := keccak256.HashAndReturnByValue(code)
	self.code[code_hash] = code
	return code_hash
}

func (self *World) open_storage(addr *common.Address) (*storage_trie, error) {
	if st := self.storage[*addr]; st != nil {
		return st, nil
	}
	acc, err := self.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	st := new(storage_trie)
	st.Init(&acc.StorageRoot)
	self.storage[*addr] = st
	return st, nil
}

func (self *World) GetStorage(addr *common.Address, slot *common.Hash) (ret common.Hash, err error) {
	st, err := self.open_storage(addr)
	if err != nil {
		return
	}
	enc, err := st.Get(self.stor_in, keccak256.Hash(slot[:]))
	if err != nil || enc == nil {
		return
	}
	return state_common.DecodeStorageValue(enc)
}

// SetStorage writes value. Zero deletes the slot.
func (self *World) SetStorage(addr *common.Address, slot *common.Hash, value *common.Hash) (err error) {
	st, err := self.open_storage(addr)
	if err != nil {
		return
	}
	key := keccak256.Hash(slot[:])
	if *value == (common.Hash{}) {
		err = st.Delete(self.stor_in, key)
	} else {
		err = st.Put(self.stor_in, key, state_common.EncodeStorageValue(value))
	}
	st.dirty = true
	return
}

// sync_storage folds the roots of modified storage tries into their
// accounts. With a batch the tries are committed into it.
func (self *World) sync_storage(batch state_db.Batch) error {
	for addr := range self.storage {
		st := self.storage[addr]
		if !st.dirty {
			continue
		}
		var root common.Hash
		if batch != nil {
			root = st.Commit(state_db.TrieOutput{Batch: batch, Col: state_db.COL_storage_trie_node})
			st.dirty = false
		} else {
			root = st.Hash()
		}
		acc, present, err := self.get_account(&addr)
		if err != nil {
			return err
		}
		if !present || acc.StorageRoot == root {
			continue
		}
		acc.StorageRoot = root
		if err = self.accounts.Put(self.acc_in, acc_key(&addr), acc.Encode()); err != nil {
			return err
		}
	}
	return nil
}

// StateRoot hashes the pending changes without persisting anything.
func (self *World) StateRoot() (common.Hash, error) {
	if err := self.sync_storage(nil); err != nil {
		return common.Hash{}, err
	}
	return self.accounts.Hash(), nil
}

// Commit writes storage tries, the account trie and new code blobs into batch
// and returns the new state root. The batch is not committed here.
func (self *World) Commit(batch state_db.Batch) (common.Hash, error) {
	if err := self.sync_storage(batch); err != nil {
		return common.Hash{}, err
	}
	for code_hash, code := range self.code {
		code_hash := code_hash
		batch.Put(state_db.COL_code, &code_hash, code)
	}
	self.code = make(map[common.Hash][]byte)
	return self.accounts.Commit(state_db.TrieOutput{Batch: batch, Col: state_db.COL_acc_trie_node}), nil
}
