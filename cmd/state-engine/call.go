package main

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

var (
	sender_flag = cli.StringFlag{
		Name:  "from",
		Usage: "transaction origin",
		Value: "0x0000000000000000000000000000000000000000",
	}
	receiver_flag = cli.StringFlag{
		Name:  "to",
		Usage: "transaction receiver, empty for a contract creation",
	}
	input_flag = cli.StringFlag{
		Name:  "input",
		Usage: "input data as hex",
	}
	value_flag = cli.StringFlag{
		Name:  "value",
		Usage: "value in wei, decimal or 0x hex",
		Value: "0",
	}
	gas_flag = cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit, the block gas limit when 0",
	}
	block_gas_flag = cli.Uint64Flag{
		Name:  "block-gas",
		Usage: "gas limit of the simulated block",
		Value: 30_000_000,
	}
	estimate_flag = cli.BoolFlag{
		Name:  "estimate",
		Usage: "print the smallest gas limit the call succeeds with",
	}
)

var CallCmd = cli.Command{
	Action: call,
	Name:   "call",
	Usage:  "simulates a transaction without persisting anything",
	Flags: []cli.Flag{
		&root_flag, &sender_flag, &receiver_flag, &input_flag, &value_flag, &gas_flag, &block_gas_flag, &estimate_flag,
	},
}

func call_tx(ctx *cli.Context) (*state_common.Transaction, error) {
	from, err := parse_address(ctx.String(sender_flag.Name))
	if err != nil {
		return nil, err
	}
	ret := &state_common.Transaction{
		From: from,
		Gas:  ctx.Uint64(gas_flag.Name),
		Data: common.FromHex(ctx.String(input_flag.Name)),
	}
	if ctx.IsSet(receiver_flag.Name) {
		to, err := parse_address(ctx.String(receiver_flag.Name))
		if err != nil {
			return nil, err
		}
		ret.To = &to
	}
	ret.Value = new(uint256.Int)
	if err = ret.Value.UnmarshalText([]byte(ctx.String(value_flag.Name))); err != nil {
		return nil, errors.Wrap(err, "invalid value")
	}
	return ret, nil
}

type call_result struct {
	Status       string `json:"status"`
	GasUsed      uint64 `json:"gasUsed"`
	ReturnData   string `json:"returnData"`
	RevertReason string `json:"revertReason,omitempty"`
	Error        string `json:"error,omitempty"`
}

func call(ctx *cli.Context) error {
	tx, err := call_tx(ctx)
	if err != nil {
		return err
	}
	return with_api(ctx, func(api *state.API) error {
		root, err := root_of(ctx, api)
		if err != nil {
			return err
		}
		latest, err := api.Latest()
		if err != nil {
			return err
		}
		blk := &vm.BlockContext{Number: latest.BlockNum + 1, GasLimit: ctx.Uint64(block_gas_flag.Name), GetHash: block_hash}
		if ctx.Bool(estimate_flag.Name) {
			gas, err := api.EstimateGas(tx, root, blk)
			if err != nil {
				return err
			}
			return print_json(map[string]uint64{"gas": gas})
		}
		res, err := api.Simulate(tx, root, blk)
		if err != nil {
			return err
		}
		out := &call_result{
			Status:       res.Status.String(),
			GasUsed:      res.GasUsed,
			ReturnData:   common.Bytes2Hex(res.ReturnData),
			RevertReason: res.RevertReason,
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return print_json(out)
	})
}
