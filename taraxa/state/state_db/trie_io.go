package state_db

import (
	"github.com/ethereum/go-ethereum/common"
)

// NodeCache keeps encodings of committed trie nodes by digest.
type NodeCache interface {
	Get(node_hash *common.Hash) ([]byte, bool)
	Put(node_hash *common.Hash, enc []byte)
}

// TrieInput reads the nodes of one trie column, through Cache when set.
type TrieInput struct {
	Reader
	Col   Column
	Cache NodeCache
}

func (self TrieInput) GetNode(node_hash *common.Hash) (ret []byte, err error) {
	if self.Cache != nil {
		if ret, present := self.Cache.Get(node_hash); present {
			return ret, nil
		}
	}
	if err = self.Get(self.Col, node_hash, func(v []byte) {
		ret = common.CopyBytes(v)
	}); err != nil {
		return nil, err
	}
	if ret != nil && self.Cache != nil {
		self.Cache.Put(node_hash, ret)
	}
	return
}

// TrieOutput routes the nodes produced by a trie commit into a batch column.
type TrieOutput struct {
	Batch
	Col Column
}

func (self TrieOutput) PutNode(node_hash *common.Hash, enc []byte) {
	self.Put(self.Col, node_hash, enc)
}
