package state_cache

import (
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/allegro/bigcache"
	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/util/bin"
)

var (
	node_cache_hit  = metrics.NewRegisteredCounter("state/cache/node/hit", nil)
	node_cache_miss = metrics.NewRegisteredCounter("state/cache/node/miss", nil)
)

// NodeCache holds encodings of committed trie nodes. Safe for concurrent use.
// Nodes are immutable, so an entry never goes stale.
type NodeCache struct {
	backend node_cache_backend
}

type node_cache_backend interface {
	get(key []byte) ([]byte, bool)
	set(key, value []byte)
	reset()
}

func NewNodeCache(backend string, size_mb int) (*NodeCache, error) {
	size := size_mb << 20
	switch backend {
	case "freecache", "":
		return &NodeCache{free_cache{freecache.NewCache(size)}}, nil
	case "fastcache":
		return &NodeCache{fast_cache{fastcache.New(size)}}, nil
	case "bigcache":
		cfg := bigcache.DefaultConfig(24 * time.Hour)
		cfg.HardMaxCacheSize = size_mb
		cfg.Verbose = false
		c, err := bigcache.NewBigCache(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "creating bigcache")
		}
		return &NodeCache{big_cache{c}}, nil
	case "none":
		return &NodeCache{no_cache{}}, nil
	}
	return nil, errors.Errorf("unknown node cache backend %q", backend)
}

func (self *NodeCache) Get(node_hash *common.Hash) ([]byte, bool) {
	ret, present := self.backend.get(node_hash[:])
	if present {
		node_cache_hit.Inc(1)
	} else {
		node_cache_miss.Inc(1)
	}
	return ret, present
}

func (self *NodeCache) Put(node_hash *common.Hash, enc []byte) {
	self.backend.set(node_hash[:], enc)
}

func (self *NodeCache) Reset() {
	self.backend.reset()
}

type free_cache struct{ c *freecache.Cache }

func (self free_cache) get(key []byte) ([]byte, bool) {
	ret, err := self.c.Get(key)
	return ret, err == nil
}

func (self free_cache) set(key, value []byte) {
	// too large entries are just not cached
	_ = self.c.Set(key, value, 0)
}

func (self free_cache) reset() { self.c.Clear() }

type fast_cache struct{ c *fastcache.Cache }

func (self fast_cache) get(key []byte) ([]byte, bool) {
	return self.c.HasGet(nil, key)
}

func (self fast_cache) set(key, value []byte) { self.c.Set(key, value) }
func (self fast_cache) reset()                { self.c.Reset() }

type big_cache struct{ c *bigcache.BigCache }

func (self big_cache) get(key []byte) ([]byte, bool) {
	ret, err := self.c.Get(bin.StringView(key))
	return ret, err == nil
}

func (self big_cache) set(key, value []byte) {
	_ = self.c.Set(string(key), value)
}

func (self big_cache) reset() { _ = self.c.Reset() }

type no_cache struct{}

func (no_cache) get([]byte) ([]byte, bool) { return nil, false }
func (no_cache) set(_, _ []byte)           {}
func (no_cache) reset()                    {}
