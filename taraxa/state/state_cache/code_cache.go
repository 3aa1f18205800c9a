package state_cache

import (
	"github.com/dchest/siphash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
)

var (
	code_cache_hit  = metrics.NewRegisteredCounter("state/cache/code/hit", nil)
	code_cache_miss = metrics.NewRegisteredCounter("state/cache/code/miss", nil)
)

const siphash_k0, siphash_k1 = 0x7461726178610001, 0x7374617465000002

// CodeCache keeps contract code by code hash in independently locked ARC
// shards.
type CodeCache struct {
	shards []*lru.ARCCache
}

func NewCodeCache(shard_count, shard_entries int) *CodeCache {
	shard_count = util.CeilPow2(shard_count)
	if shard_entries < 1 {
		shard_entries = 1
	}
	self := &CodeCache{shards: make([]*lru.ARCCache, shard_count)}
	for i := range self.shards {
		shard, err := lru.NewARC(shard_entries)
		util.PanicIfNotNil(err)
		self.shards[i] = shard
	}
	return self
}

func (self *CodeCache) shard(code_hash *common.Hash) *lru.ARCCache {
	return self.shards[siphash.Hash(siphash_k0, siphash_k1, code_hash[:])&uint64(len(self.shards)-1)]
}

func (self *CodeCache) Get(code_hash *common.Hash) ([]byte, bool) {
	if v, present := self.shard(code_hash).Get(*code_hash); present {
		code_cache_hit.Inc(1)
		return v.([]byte), true
	}
	code_cache_miss.Inc(1)
	return nil, false
}

// Put stores code, which must not be modified afterwards.
func (self *CodeCache) Put(code_hash *common.Hash, code []byte) {
	self.shard(code_hash).Add(*code_hash, code)
}

func (self *CodeCache) Purge() {
	for _, s := range self.shards {
		s.Purge()
	}
}
