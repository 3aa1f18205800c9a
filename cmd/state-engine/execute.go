package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/core"
	"github.com/Taraxa-project/taraxa-state/taraxa/state"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

var InitCmd = cli.Command{
	Action:    initialize,
	Name:      "init",
	Usage:     "commits block 0 from a genesis allocation",
	ArgsUsage: "<genesis.json>",
}

func initialize(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return errors.New("missing genesis file")
	}
	alloc, err := core.ReadGenesisAlloc(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return with_api(ctx, func(api *state.API) error {
		desc, err := api.InitGenesis(alloc)
		if err != nil {
			return err
		}
		return print_json(desc)
	})
}

var parent_flag = cli.StringFlag{
	Name:  "parent",
	Usage: "state root to execute on instead of the last committed one",
}

var ExecuteCmd = cli.Command{
	Action:    execute,
	Name:      "execute",
	Usage:     "applies a block file and commits the result",
	ArgsUsage: "<block.json>",
	Flags:     []cli.Flag{&parent_flag},
}

// execution_summary reports rejections by their message.
type execution_summary struct {
	BlockNum     uint64                  `json:"number"`
	StateRoot    common.Hash             `json:"stateRoot"`
	ReceiptsRoot common.Hash             `json:"receiptsRoot"`
	GasUsed      uint64                  `json:"gasUsed"`
	Receipts     []*state_common.Receipt `json:"receipts"`
	Rejected     []string                `json:"rejected,omitempty"`
}

func summarize(res *state_common.ExecutionResult) *execution_summary {
	ret := &execution_summary{
		BlockNum:     res.BlockNum,
		StateRoot:    res.StateRoot,
		ReceiptsRoot: res.ReceiptsRoot,
		GasUsed:      res.GasUsed,
		Receipts:     res.Receipts,
	}
	for _, r := range res.Rejected {
		ret.Rejected = append(ret.Rejected, r.Error())
	}
	return ret
}

func execute_block_file(api *state.API, path string, parent *common.Hash) (*state_common.ExecutionResult, error) {
	blk, err := read_block_file(path)
	if err != nil {
		return nil, err
	}
	txs, err := blk.transactions(api)
	if err != nil {
		return nil, state_common.NewProtocolViolation(err)
	}
	if parent != nil {
		return api.ExecuteBlock(*parent, txs, blk.context())
	}
	return api.ExecuteNext(txs, blk.context())
}

func execute(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return errors.New("missing block file")
	}
	var parent *common.Hash
	if ctx.IsSet(parent_flag.Name) {
		h := common.HexToHash(ctx.String(parent_flag.Name))
		parent = &h
	}
	return with_api(ctx, func(api *state.API) error {
		res, err := execute_block_file(api, ctx.Args().Get(0), parent)
		if err != nil {
			return err
		}
		return print_json(summarize(res))
	})
}

var ReplayCmd = cli.Command{
	Action:    replay,
	Name:      "replay",
	Usage:     "applies every block file of a directory in file name order",
	ArgsUsage: "<directory>",
}

func block_files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "list blocks")
	}
	var ret []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			ret = append(ret, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func replay(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return errors.New("missing block directory")
	}
	files, err := block_files(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	return with_api(ctx, func(api *state.API) error {
		bar := progressbar.Default(int64(len(files)), "replaying")
		defer bar.Finish()
		var last *state_common.ExecutionResult
		for _, path := range files {
			if last, err = execute_block_file(api, path, nil); err != nil {
				return errors.Wrap(err, filepath.Base(path))
			}
			bar.Add(1)
		}
		if last != nil {
			log.Info("Replay done", "blocks", len(files), "number", last.BlockNum, "root", last.StateRoot)
		}
		return nil
	})
}
