package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/core"
	"github.com/Taraxa-project/taraxa-state/taraxa/state"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/files"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

func write_file(tc tests.TestCtx, path string, content interface{}) string {
	var enc []byte
	if s, is := content.(string); is {
		enc = []byte(s)
	} else {
		var err error
		enc, err = json.Marshal(content)
		tc.Require.NoError(err)
	}
	tc.Require.NoError(os.WriteFile(path, enc, 0644))
	return path
}

// opts_of runs the app with a command that only captures the loaded options.
func opts_of(tc tests.TestCtx, args ...string) (ret state.Opts) {
	app := new_app()
	app.Commands = []*cli.Command{{
		Name: "capture",
		Action: func(ctx *cli.Context) (err error) {
			ret, err = load_opts(ctx)
			return
		},
	}}
	tc.Require.NoError(app.Run(append(append([]string{"state-engine"}, args...), "capture")))
	return
}

func TestConfigLayering(t *testing.T) {
	tc := tests.NewTestCtx(t)
	defer tc.Close()

	opts := opts_of(tc)
	tc.Assert.Equal(state.DefaultOpts(), opts)

	config := write_file(tc, filepath.Join(tc.DataDir(), "config.yaml"), `
db:
  type: pebble
  path: /var/lib/state
cache:
  node_cache_backend: fastcache
execution:
  chain_id: 7
  fees:
    tx_gas: 21
    burn_percent: 50
  gas:
    sstoreSet: 100
`)
	t.Setenv("TARAXA_STATE_EXECUTION_CHAIN_ID", "9")
	t.Setenv("TARAXA_STATE_PROOF_WORKERS", "2")
	opts = opts_of(tc, "--config", config, "--datadir", "/tmp/elsewhere")
	tc.Assert.Equal("pebble", opts.DB.Type)
	tc.Assert.Equal("/tmp/elsewhere", opts.DB.Path)
	tc.Assert.Equal("fastcache", opts.Cache.NodeCacheBackend)
	tc.Assert.Equal(uint64(9), opts.Execution.ChainID)
	tc.Assert.Equal(uint64(21), opts.Execution.Fees.TxGas)
	tc.Assert.Equal(uint64(50), opts.Execution.Fees.BurnPercent)
	tc.Assert.Equal(uint64(100), opts.Execution.Gas.SstoreSet)
	tc.Assert.Equal(2, opts.ProofWorkers)
	defaults := state.DefaultOpts()
	tc.Assert.Equal(defaults.Execution.Fees.TxGasContractCreation, opts.Execution.Fees.TxGasContractCreation)
	tc.Assert.Equal(defaults.Execution.Gas.SstoreReset, opts.Execution.Gas.SstoreReset)
	tc.Assert.Equal(defaults.Cache.NodeCacheMB, opts.Cache.NodeCacheMB)
}

func TestBlockFile(t *testing.T) {
	tc := tests.NewTestCtx(t)
	defer tc.Close()

	path := write_file(tc, filepath.Join(tc.DataDir(), "1.json"), fmt.Sprintf(`{
  "number": 1,
  "coinbase": "%s",
  "gasLimit": 1000000,
  "baseFee": "0x1",
  "transactions": [
    {"from": "%s", "to": "%s",
     "nonce": 0, "gas": 21000, "gasPrice": "2", "value": "0x10", "input": "0x00ff"}
  ]
}`, tests.Addr(0xc0).Hex(), tests.Addr(1).Hex(), tests.Addr(2).Hex()))
	blk, err := read_block_file(path)
	tc.Require.NoError(err)
	ctx := blk.context()
	tc.Assert.Equal(uint64(1), ctx.Number)
	tc.Assert.Equal(tests.Addr(0xc0), ctx.Coinbase)
	tc.Assert.Equal(uint64(1), ctx.BaseFee.Uint64())
	tc.Assert.Equal(block_hash(0), ctx.GetHash(0))
	tc.Assert.NotEqual(block_hash(0), block_hash(1))

	tc.Require.Len(blk.Transactions, 1)
	tx := blk.Transactions[0].convert()
	tc.Assert.Equal(tests.Addr(1), tx.From)
	tc.Assert.Equal(tests.Addr(2), *tx.To)
	tc.Assert.Equal(uint64(2), tx.GasPrice.Uint64())
	tc.Assert.Equal(uint64(16), tx.Value.Uint64())
	tc.Assert.Equal([]byte{0, 0xff}, tx.Data)
	tc.Assert.NotEqual(common.Hash{}, tx.Hash)
	tc.Assert.Equal(tx.Hash, blk.Transactions[0].convert().Hash)

	both := write_file(tc, filepath.Join(tc.DataDir(), "2.json"), `{"raw": ["0x00"], "transactions": [{}]}`)
	_, err = read_block_file(both)
	tc.Assert.Error(err)
}

func TestInitExecuteAndSnapshot(t *testing.T) {
	tc := tests.NewTestCtx(t)
	defer tc.Close()
	dir := tc.DataDir()
	db_dir := filepath.Join(dir, "db")
	run := func(args ...string) error {
		return new_app().Run(append([]string{"state-engine", "--verbosity", "0", "--datadir", db_dir}, args...))
	}

	genesis := write_file(tc, filepath.Join(dir, "genesis.json"), core.AllocFromBalances(core.BalanceMap{
		tests.Addr(1): uint256.NewInt(1e6),
	}))
	tc.Require.NoError(run("init", genesis))
	tc.Assert.Error(run("init", genesis))

	blocks := files.CreateDirectories(dir, "blocks")
	to := tests.Addr(2)
	for i := uint64(1); i <= 3; i++ {
		write_file(tc, filepath.Join(blocks, "0"+string(rune('0'+i))+".json"), &block_file{
			Number: i, Coinbase: tests.Addr(0xc0), GasLimit: 1e6,
			Transactions: []block_tx{{From: tests.Addr(1), To: &to, Nonce: i - 1, Gas: 21000, GasPrice: uint256.NewInt(1), Value: uint256.NewInt(5)}},
		})
	}
	tc.Require.NoError(run("replay", blocks))
	tc.Require.NoError(run("account", to.Hex(), "0x01"))
	tc.Require.NoError(run("proof", to.Hex(), "0x01"))
	tc.Require.NoError(run("receipts"))
	tc.Require.NoError(run("call", "--from", tests.Addr(1).Hex(), "--to", to.Hex(), "--value", "1"))
	tc.Require.NoError(run("dot", "--out", filepath.Join(dir, "trie.dot")))
	tc.Assert.True(files.Exists(dir, "trie.dot"))

	// replaying the same blocks again breaks the numbering
	tc.Assert.Error(run("replay", blocks))

	snap := filepath.Join(dir, "snap")
	tc.Require.NoError(run("snapshot", snap))
	tc.Assert.Error(run("snapshot", snap))

	api, err := state.New(func() state.Opts {
		opts := state.DefaultOpts()
		opts.DB.Path = snap
		return opts
	}())
	tc.Require.NoError(err)
	defer api.Close()
	latest, err := api.Latest()
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(3), latest.BlockNum)
	acc, err := api.Query().GetAccount(latest.StateRoot, to)
	tc.Require.NoError(err)
	tc.Assert.Equal(uint64(15), acc.Balance.Uint64())
}
