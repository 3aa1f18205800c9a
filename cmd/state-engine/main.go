package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

var (
	config_flag = cli.StringFlag{
		Name:  "config",
		Usage: "config file (yaml, json or toml)",
	}
	datadir_flag = cli.StringFlag{
		Name:  "datadir",
		Usage: "database directory, overrides db.path",
	}
	db_type_flag = cli.StringFlag{
		Name:  "db",
		Usage: "database backend: leveldb, pebble, rocksdb or memory",
	}
	no_cache_flag = cli.BoolFlag{
		Name:  "nocache",
		Usage: "run without node and code caches",
	}
	verbosity_flag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
)

func new_app() *cli.App {
	return &cli.App{
		Name:  "state-engine",
		Usage: "executes blocks against an authenticated world state",
		Flags: []cli.Flag{&config_flag, &datadir_flag, &db_type_flag, &no_cache_flag, &verbosity_flag},
		Before: func(ctx *cli.Context) error {
			level := log.FromLegacyLevel(ctx.Int(verbosity_flag.Name))
			log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, true)))
			return nil
		},
		Commands: []*cli.Command{
			&InitCmd,
			&ExecuteCmd,
			&ReplayCmd,
			&CallCmd,
			&AccountCmd,
			&ProofCmd,
			&ReceiptsCmd,
			&SnapshotCmd,
			&DotCmd,
		},
	}
}

func main() {
	if err := new_app().Run(os.Args); err != nil {
		if state_common.IsFatal(err) {
			log.Crit("Storage fault", "err", err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func print_json(v interface{}) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(enc))
	return err
}
