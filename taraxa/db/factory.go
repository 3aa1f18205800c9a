package db

import (
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_leveldb"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db_pebble"
)

type Config struct {
	Type      string `json:"type" mapstructure:"type"`
	Path      string `json:"path" mapstructure:"path"`
	CacheMB   int    `json:"cache_mb" mapstructure:"cache_mb"`
	OpenFiles int    `json:"open_files" mapstructure:"open_files"`
	NoSync    bool   `json:"no_sync" mapstructure:"no_sync"`
}

func DefaultConfig() Config {
	return Config{Type: "leveldb", CacheMB: 256, OpenFiles: 512}
}

type Factory = func(Config) (state_db.DB, error)

var FactoryRegistry = map[string]Factory{
	"leveldb": func(cfg Config) (state_db.DB, error) {
		return opened(state_db_leveldb.Open(state_db_leveldb.Opts{
			Path:           cfg.Path,
			CacheMB:        cfg.CacheMB,
			OpenFilesCache: cfg.OpenFiles,
			NoSync:         cfg.NoSync,
		}))
	},
	"memory": func(cfg Config) (state_db.DB, error) {
		return opened(state_db_leveldb.Open(state_db_leveldb.Opts{InMemory: true}))
	},
	"pebble": func(cfg Config) (state_db.DB, error) {
		return opened(state_db_pebble.Open(state_db_pebble.Opts{
			Path:         cfg.Path,
			CacheMB:      cfg.CacheMB,
			MaxOpenFiles: cfg.OpenFiles,
			NoSync:       cfg.NoSync,
		}))
	},
}

func Open(cfg Config) (state_db.DB, error) {
	factory, present := FactoryRegistry[cfg.Type]
	if !present {
		return nil, errors.Errorf("unknown db type %q", cfg.Type)
	}
	if cfg.Type != "memory" && cfg.Path == "" {
		return nil, errors.Errorf("db type %q needs a path", cfg.Type)
	}
	return factory(cfg)
}

func opened[T state_db.DB](db T, err error) (state_db.DB, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}
