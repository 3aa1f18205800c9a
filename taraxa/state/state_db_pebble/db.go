package state_db_pebble

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
)

// DB prefixes keys with the column id, like the leveldb backend.
type DB struct {
	db    *pebble.DB
	opts  Opts
	opt_w *pebble.WriteOptions
}

type Opts struct {
	Path         string `json:"path"`
	InMemory     bool   `json:"in_memory"`
	CacheMB      int    `json:"cache_mb"`
	MaxOpenFiles int    `json:"max_open_files"`
	NoSync       bool   `json:"no_sync"`
}

func Open(opts Opts) (*DB, error) {
	self := &DB{opts: opts, opt_w: pebble.Sync}
	if opts.NoSync {
		self.opt_w = pebble.NoSync
	}
	pebble_opts := &pebble.Options{MaxOpenFiles: opts.MaxOpenFiles}
	if opts.CacheMB > 0 {
		cache := pebble.NewCache(int64(opts.CacheMB) << 20)
		defer cache.Unref()
		pebble_opts.Cache = cache
	}
	path := opts.Path
	if opts.InMemory {
		pebble_opts.FS = vfs.NewMem()
		if path == "" {
			path = "mem"
		}
	}
	db, err := pebble.Open(path, pebble_opts)
	if err != nil {
		return nil, state_common.NewStorageFault(err, "opening pebble at "+opts.Path)
	}
	self.db = db
	return self, nil
}

type db_key [1 + common.HashLength]byte

func to_db_key(col state_db.Column, key *common.Hash) (ret db_key) {
	ret[0] = col
	copy(ret[1:], key[:])
	return
}

func get(r pebble.Reader, col state_db.Column, key *common.Hash, cb func([]byte)) error {
	k := to_db_key(col, key)
	v, closer, err := r.Get(k[:])
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return state_common.NewStorageFault(err, "pebble get")
	}
	defer closer.Close()
	cb(v)
	return nil
}

func (self *DB) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return get(self.db, col, key, cb)
}

func (self *DB) Snapshot() (state_db.Snapshot, error) {
	return snapshot{self.db.NewSnapshot()}, nil
}

func (self *DB) NewBatch() state_db.Batch {
	return state_db.NewAsyncBatch(&raw_batch{db: self, batch: self.db.NewBatch()})
}

func (self *DB) GetCommittedDescriptor() (state_db.StateDescriptor, error) {
	return state_db.ReadDescriptor(self)
}

func (self *DB) Close() error {
	return self.db.Close()
}

type snapshot struct {
	snap *pebble.Snapshot
}

func (self snapshot) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return get(self.snap, col, key, cb)
}

func (self snapshot) Release() {
	self.snap.Close()
}

type raw_batch struct {
	db    *DB
	batch *pebble.Batch
	err   error
}

func (self *raw_batch) Put(col state_db.Column, key *common.Hash, value []byte) {
	if self.err != nil {
		return
	}
	k := to_db_key(col, key)
	self.err = self.batch.Set(k[:], value, nil)
}

func (self *raw_batch) Write() error {
	if self.err != nil {
		return self.err
	}
	return self.batch.Commit(self.db.opt_w)
}

func (self *raw_batch) Close() {
	self.batch.Close()
}
