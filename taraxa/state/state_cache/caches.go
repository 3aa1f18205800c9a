package state_cache

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
)

// Caches is owned by the composition root: created at start, reset or dropped
// at shutdown. Readers of any root share it.
type Caches struct {
	Nodes *NodeCache
	Code  *CodeCache
}

func New(cfg Config) (*Caches, error) {
	nodes, err := NewNodeCache(cfg.NodeCacheBackend, cfg.NodeCacheMB)
	if err != nil {
		return nil, err
	}
	return &Caches{nodes, NewCodeCache(cfg.CodeCacheShards, cfg.CodeCacheShardEntries)}, nil
}

func (self *Caches) TrieInput(r state_db.Reader, col state_db.Column) state_db.TrieInput {
	return state_db.TrieInput{Reader: r, Col: col, Cache: self.Nodes}
}

func (self *Caches) GetCode(r state_db.Reader, code_hash *common.Hash) (ret []byte, err error) {
	if ret, present := self.Code.Get(code_hash); present {
		return ret, nil
	}
	if ret, err = (state_db.ExtendedReader{Reader: r}).GetCode(code_hash); err == nil && len(ret) != 0 {
		self.Code.Put(code_hash, ret)
	}
	return
}

func (self *Caches) Close() {
	self.Nodes.Reset()
	self.Code.Purge()
}

// WrapBatch returns a batch that hands its trie nodes and code to the caches
// once the commit is durable.
func (self *Caches) WrapBatch(batch state_db.Batch) state_db.Batch {
	return &caching_batch{Batch: batch, caches: self}
}

type caching_batch struct {
	state_db.Batch
	caches  *Caches
	pending []pending_entry
}

type pending_entry struct {
	col   state_db.Column
	key   common.Hash
	value []byte
}

func (self *caching_batch) Put(col state_db.Column, key *common.Hash, value []byte) {
	self.Batch.Put(col, key, value)
	if col != state_db.COL_meta {
		self.pending = append(self.pending, pending_entry{col, *key, value})
	}
}

func (self *caching_batch) Commit(desc state_db.StateDescriptor) error {
	if err := self.Batch.Commit(desc); err != nil {
		self.pending = nil
		return err
	}
	for i := range self.pending {
		e := &self.pending[i]
		if e.col == state_db.COL_code {
			self.caches.Code.Put(&e.key, e.value)
		} else {
			self.caches.Nodes.Put(&e.key, e.value)
		}
	}
	self.pending = nil
	return nil
}

func (self *caching_batch) Discard() {
	self.pending = nil
	self.Batch.Discard()
}
