//go:build rocksdb

package db

import (
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_rocksdb"
)

func init() {
	FactoryRegistry["rocksdb"] = func(cfg Config) (state_db.DB, error) {
		return opened(state_db_rocksdb.Open(state_db_rocksdb.Opts{Path: cfg.Path, NoSync: cfg.NoSync}))
	}
}
