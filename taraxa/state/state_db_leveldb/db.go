package state_db_leveldb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
)

// DB keeps every column in one keyspace, prefixing keys with the column id.
type DB struct {
	db    *leveldb.DB
	opts  Opts
	opt_w opt.WriteOptions
}

type Opts struct {
	Path string `json:"path"`
	// Empty Path with InMemory keeps the database in memory, for tests and dry runs.
	InMemory       bool `json:"in_memory"`
	CacheMB        int  `json:"cache_mb"`
	OpenFilesCache int  `json:"open_files_cache"`
	NoSync         bool `json:"no_sync"`
}

func Open(opts Opts) (*DB, error) {
	self := &DB{opts: opts, opt_w: opt.WriteOptions{Sync: !opts.NoSync}}
	var err error
	if opts.InMemory {
		self.db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		self.db, err = leveldb.OpenFile(opts.Path, &opt.Options{
			BlockCacheCapacity:     opts.CacheMB * opt.MiB,
			OpenFilesCacheCapacity: opts.OpenFilesCache,
		})
	}
	if err != nil {
		return nil, state_common.NewStorageFault(err, "opening leveldb at "+opts.Path)
	}
	return self, nil
}

type db_key [1 + common.HashLength]byte

func to_db_key(col state_db.Column, key *common.Hash) (ret db_key) {
	ret[0] = col
	copy(ret[1:], key[:])
	return
}

type ldb_reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
}

func get(r ldb_reader, col state_db.Column, key *common.Hash, cb func([]byte)) error {
	k := to_db_key(col, key)
	v, err := r.Get(k[:], nil)
	if err == leveldb.ErrNotFound {
		return nil
	}
	if err != nil {
		return state_common.NewStorageFault(err, "leveldb get")
	}
	cb(v)
	return nil
}

func (self *DB) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return get(self.db, col, key, cb)
}

func (self *DB) Snapshot() (state_db.Snapshot, error) {
	snap, err := self.db.GetSnapshot()
	if err != nil {
		return nil, state_common.NewStorageFault(err, "leveldb snapshot")
	}
	return snapshot{snap}, nil
}

func (self *DB) NewBatch() state_db.Batch {
	return state_db.NewAsyncBatch(&raw_batch{db: self})
}

func (self *DB) GetCommittedDescriptor() (state_db.StateDescriptor, error) {
	return state_db.ReadDescriptor(self)
}

func (self *DB) Close() error {
	return self.db.Close()
}

type snapshot struct {
	snap *leveldb.Snapshot
}

func (self snapshot) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return get(self.snap, col, key, cb)
}

func (self snapshot) Release() {
	self.snap.Release()
}

type raw_batch struct {
	db    *DB
	batch leveldb.Batch
}

func (self *raw_batch) Put(col state_db.Column, key *common.Hash, value []byte) {
	k := to_db_key(col, key)
	self.batch.Put(k[:], value)
}

func (self *raw_batch) Write() error {
	return self.db.db.Write(&self.batch, &self.db.opt_w)
}

func (self *raw_batch) Close() {
	self.batch.Reset()
}
