package db

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

func get(tc tests.TestCtx, r state_db.Reader, col state_db.Column, key common.Hash) []byte {
	ret, err := state_db.ExtendedReader{Reader: r}.GetBytes(col, &key)
	tc.Require.NoError(err)
	return ret
}

func each_backend(t *testing.T, f func(tc tests.TestCtx, cfg Config)) {
	for _, typ := range []string{"memory", "leveldb", "pebble"} {
		typ := typ
		t.Run(typ, func(t *testing.T) {
			tc := tests.NewTestCtx(t)
			defer tc.Close()
			cfg := DefaultConfig()
			cfg.Type, cfg.Path = typ, filepath.Join(tc.DataDir(), "db")
			f(tc, cfg)
		})
	}
}

func TestCommitIsVisibleWithDescriptor(t *testing.T) {
	each_backend(t, func(tc tests.TestCtx, cfg Config) {
		db, err := Open(cfg)
		tc.Require.NoError(err)
		defer db.Close()

		desc, err := db.GetCommittedDescriptor()
		tc.Require.NoError(err)
		tc.Assert.True(desc.IsNil())

		batch := db.NewBatch()
		batch.Put(state_db.COL_acc_trie_node, &common.Hash{1}, []byte("node"))
		batch.Put(state_db.COL_code, &common.Hash{1}, []byte("code"))
		tc.Assert.Nil(get(tc, db, state_db.COL_acc_trie_node, common.Hash{1}))
		tc.Require.NoError(batch.Commit(state_db.StateDescriptor{BlockNum: 7, StateRoot: common.Hash{2}}))

		tc.Assert.Equal([]byte("node"), get(tc, db, state_db.COL_acc_trie_node, common.Hash{1}))
		tc.Assert.Equal([]byte("code"), get(tc, db, state_db.COL_code, common.Hash{1}))
		tc.Assert.Nil(get(tc, db, state_db.COL_storage_trie_node, common.Hash{1}))
		desc, err = db.GetCommittedDescriptor()
		tc.Require.NoError(err)
		tc.Assert.Equal(state_db.StateDescriptor{BlockNum: 7, StateRoot: common.Hash{2}}, desc)
	})
}

func TestSnapshotIsFixed(t *testing.T) {
	each_backend(t, func(tc tests.TestCtx, cfg Config) {
		db, err := Open(cfg)
		tc.Require.NoError(err)
		defer db.Close()

		batch := db.NewBatch()
		batch.Put(state_db.COL_code, &common.Hash{1}, []byte{1})
		tc.Require.NoError(batch.Commit(state_db.StateDescriptor{BlockNum: 0}))

		snap, err := db.Snapshot()
		tc.Require.NoError(err)
		defer snap.Release()

		batch = db.NewBatch()
		batch.Put(state_db.COL_code, &common.Hash{2}, []byte{2})
		tc.Require.NoError(batch.Commit(state_db.StateDescriptor{BlockNum: 1}))

		tc.Assert.Nil(get(tc, snap, state_db.COL_code, common.Hash{2}))
		tc.Assert.Equal([]byte{1}, get(tc, snap, state_db.COL_code, common.Hash{1}))
		tc.Assert.Equal([]byte{2}, get(tc, db, state_db.COL_code, common.Hash{2}))
		desc, err := state_db.ReadDescriptor(snap)
		tc.Require.NoError(err)
		tc.Assert.Equal(uint64(0), desc.BlockNum)
	})
}

func TestDiscardedBatchLeavesNothing(t *testing.T) {
	each_backend(t, func(tc tests.TestCtx, cfg Config) {
		db, err := Open(cfg)
		tc.Require.NoError(err)
		defer db.Close()
		batch := db.NewBatch()
		batch.Put(state_db.COL_code, &common.Hash{3}, []byte{3})
		batch.Discard()
		tc.Assert.Nil(get(tc, db, state_db.COL_code, common.Hash{3}))
		desc, err := db.GetCommittedDescriptor()
		tc.Require.NoError(err)
		tc.Assert.True(desc.IsNil())
	})
}

func TestReopen(t *testing.T) {
	for _, typ := range []string{"leveldb", "pebble"} {
		tc := tests.NewTestCtx(t)
		cfg := DefaultConfig()
		cfg.Type, cfg.Path = typ, filepath.Join(tc.DataDir(), typ)
		db, err := Open(cfg)
		tc.Require.NoError(err)
		batch := db.NewBatch()
		batch.Put(state_db.COL_receipts_trie_node, &common.Hash{4}, []byte{4})
		tc.Require.NoError(batch.Commit(state_db.StateDescriptor{BlockNum: 3}))
		tc.Require.NoError(db.Close())

		db, err = Open(cfg)
		tc.Require.NoError(err)
		tc.Assert.Equal([]byte{4}, get(tc, db, state_db.COL_receipts_trie_node, common.Hash{4}))
		desc, err := db.GetCommittedDescriptor()
		tc.Require.NoError(err)
		tc.Assert.Equal(uint64(3), desc.BlockNum)
		tc.Require.NoError(db.Close())
		tc.Close()
	}
}

func TestUnknownType(t *testing.T) {
	tc := tests.NewTestCtx(t)
	_, err := Open(Config{Type: "nope", Path: "x"})
	tc.Assert.Error(err)
	_, err = Open(Config{Type: "leveldb"})
	tc.Assert.Error(err)
}
