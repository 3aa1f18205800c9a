package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/taraxa/state"
)

const env_prefix = "TARAXA_STATE"

// keys that can be overridden from the environment, e.g. TARAXA_STATE_DB_PATH
var env_keys = []string{
	"db.type",
	"db.path",
	"db.cache_mb",
	"db.open_files",
	"db.no_sync",
	"cache.node_cache_backend",
	"cache.node_cache_mb",
	"cache.prefetch_workers",
	"execution.chain_id",
	"execution.fees.burn_percent",
	"disable_caches",
	"sender_recovery_workers",
	"proof_workers",
}

// load_opts layers the config file, the environment and the command line
// over state.DefaultOpts, in that order.
func load_opts(ctx *cli.Context) (ret state.Opts, err error) {
	v := viper.New()
	v.SetEnvPrefix(env_prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range env_keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}
	if path := ctx.String(config_flag.Name); path != "" {
		v.SetConfigFile(path)
		if err = v.ReadInConfig(); err != nil {
			return ret, errors.Wrapf(err, "read config %s", path)
		}
	}
	if ctx.IsSet(datadir_flag.Name) {
		v.Set("db.path", ctx.String(datadir_flag.Name))
	}
	if ctx.IsSet(db_type_flag.Name) {
		v.Set("db.type", ctx.String(db_type_flag.Name))
	}
	if ctx.IsSet(no_cache_flag.Name) {
		v.Set("disable_caches", ctx.Bool(no_cache_flag.Name))
	}
	ret = state.DefaultOpts()
	if err = v.Unmarshal(&ret); err != nil {
		return ret, errors.Wrap(err, "decode config")
	}
	return
}

func with_api(ctx *cli.Context, f func(*state.API) error) error {
	opts, err := load_opts(ctx)
	if err != nil {
		return err
	}
	api, err := state.New(opts)
	if err != nil {
		return err
	}
	defer api.Close()
	return f(api)
}
