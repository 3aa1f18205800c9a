package state_cache

type Config struct {
	// freecache, fastcache, bigcache or none
	NodeCacheBackend      string `json:"node_cache_backend" mapstructure:"node_cache_backend"`
	NodeCacheMB           int    `json:"node_cache_mb" mapstructure:"node_cache_mb"`
	CodeCacheShards       int    `json:"code_cache_shards" mapstructure:"code_cache_shards"`
	CodeCacheShardEntries int    `json:"code_cache_shard_entries" mapstructure:"code_cache_shard_entries"`
	PrefetchWorkers       int    `json:"prefetch_workers" mapstructure:"prefetch_workers"`
}

func DefaultConfig() Config {
	return Config{
		NodeCacheBackend:      "freecache",
		NodeCacheMB:           256,
		CodeCacheShards:       16,
		CodeCacheShardEntries: 256,
		PrefetchWorkers:       8,
	}
}
