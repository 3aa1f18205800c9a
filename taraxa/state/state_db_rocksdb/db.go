//go:build rocksdb

package state_db_rocksdb

import (
	"runtime"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tecbot/gorocksdb"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
)

// DB maps every column to its own column family.
type DB struct {
	db                *gorocksdb.DB
	cf_handle_default *gorocksdb.ColumnFamilyHandle
	cf_handles        [state_db.COL_COUNT]*gorocksdb.ColumnFamilyHandle
	opts_r            *gorocksdb.ReadOptions
	opts_w            *gorocksdb.WriteOptions
	opts              Opts
}

type Opts struct {
	Path   string `json:"path"`
	NoSync bool   `json:"no_sync"`
}

func Open(opts Opts) (*DB, error) {
	self := &DB{opts: opts}
	new_db_opts := func() *gorocksdb.Options {
		ret := gorocksdb.NewDefaultOptions()
		ret.SetErrorIfExists(false)
		ret.SetCreateIfMissing(true)
		ret.SetCreateIfMissingColumnFamilies(true)
		ret.IncreaseParallelism(runtime.NumCPU())
		ret.SetMaxFileOpeningThreads(runtime.NumCPU())
		return ret
	}
	const real_col_cnt = 1 + state_db.COL_COUNT
	cf_opts_default := gorocksdb.NewDefaultOptions()
	defer cf_opts_default.Destroy()
	cfnames, cfopts := [real_col_cnt]string{"default"}, [real_col_cnt]*gorocksdb.Options{cf_opts_default}
	for i := state_db.Column(1); i < real_col_cnt; i++ {
		cf_opts := new_db_opts()
		defer cf_opts.Destroy()
		if col := i - 1; col != state_db.COL_meta {
			// every lookup is by digest
			cf_opts.OptimizeForPointLookup(256)
		}
		cfnames[i], cfopts[i] = strconv.Itoa(int(i)), cf_opts
	}
	db_opts := new_db_opts()
	defer db_opts.Destroy()
	db, cf_handles, err := gorocksdb.OpenDbColumnFamilies(db_opts, opts.Path, cfnames[:], cfopts[:])
	if err != nil {
		return nil, state_common.NewStorageFault(err, "opening rocksdb at "+opts.Path)
	}
	self.db = db
	self.cf_handle_default = cf_handles[0]
	copy(self.cf_handles[:], cf_handles[1:])
	self.opts_r = gorocksdb.NewDefaultReadOptions()
	self.opts_r.SetVerifyChecksums(false)
	self.opts_w = gorocksdb.NewDefaultWriteOptions()
	self.opts_w.SetSync(!opts.NoSync)
	return self, nil
}

func (self *DB) get(opts_r *gorocksdb.ReadOptions, col state_db.Column, key *common.Hash, cb func([]byte)) error {
	v_slice, err := self.db.GetCF(opts_r, self.cf_handles[col], key[:])
	if err != nil {
		return state_common.NewStorageFault(err, "rocksdb get")
	}
	defer v_slice.Free()
	if v := v_slice.Data(); len(v) != 0 {
		cb(v)
	}
	return nil
}

func (self *DB) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return self.get(self.opts_r, col, key, cb)
}

func (self *DB) Snapshot() (state_db.Snapshot, error) {
	snap := self.db.NewSnapshot()
	opts_r := gorocksdb.NewDefaultReadOptions()
	opts_r.SetVerifyChecksums(false)
	opts_r.SetSnapshot(snap)
	return &snapshot{self, snap, opts_r}, nil
}

// Checkpoint writes a consistent copy of the database into dir while it stays
// open.
func (self *DB) Checkpoint(dir string) error {
	c, err := self.db.NewCheckpoint()
	if err != nil {
		return err
	}
	defer c.Destroy()
	return c.CreateCheckpoint(dir, 0)
}

func (self *DB) NewBatch() state_db.Batch {
	return state_db.NewAsyncBatch(&raw_batch{self, gorocksdb.NewWriteBatch()})
}

func (self *DB) GetCommittedDescriptor() (state_db.StateDescriptor, error) {
	return state_db.ReadDescriptor(self)
}

func (self *DB) Close() error {
	self.opts_r.Destroy()
	self.opts_w.Destroy()
	for _, cf := range self.cf_handles {
		cf.Destroy()
	}
	self.cf_handle_default.Destroy()
	self.db.Close()
	return nil
}

type snapshot struct {
	*DB
	snap   *gorocksdb.Snapshot
	opts_r *gorocksdb.ReadOptions
}

func (self *snapshot) Get(col state_db.Column, key *common.Hash, cb func([]byte)) error {
	return self.get(self.opts_r, col, key, cb)
}

func (self *snapshot) Release() {
	self.opts_r.Destroy()
	self.db.ReleaseSnapshot(self.snap)
}

type raw_batch struct {
	*DB
	batch *gorocksdb.WriteBatch
}

func (self *raw_batch) Put(col state_db.Column, key *common.Hash, value []byte) {
	self.batch.PutCF(self.cf_handles[col], key[:], value)
}

func (self *raw_batch) Write() error {
	return self.db.Write(self.opts_w, self.batch)
}

func (self *raw_batch) Close() {
	self.batch.Destroy()
}
