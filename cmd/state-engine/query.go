package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Taraxa-project/taraxa-state/taraxa/state"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_query"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/files"
)

var root_flag = cli.StringFlag{
	Name:  "root",
	Usage: "state root to read, the last committed one by default",
}

// root_of resolves --root, falling back to the latest descriptor.
func root_of(ctx *cli.Context, api *state.API) (common.Hash, error) {
	if ctx.IsSet(root_flag.Name) {
		return common.HexToHash(ctx.String(root_flag.Name)), nil
	}
	latest, err := api.Latest()
	if err != nil {
		return common.Hash{}, err
	}
	if latest.IsNil() {
		return common.Hash{}, errors.New("no committed block, run init first")
	}
	return latest.StateRoot, nil
}

func parse_address(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

var AccountCmd = cli.Command{
	Action:    account,
	Name:      "account",
	Usage:     "prints an account and optionally some of its storage slots",
	ArgsUsage: "<address> [slot...]",
	Flags:     []cli.Flag{&root_flag},
}

type account_view struct {
	Nonce       uint64                      `json:"nonce"`
	Balance     *uint256.Int                `json:"balance"`
	StorageRoot common.Hash                 `json:"storageRoot"`
	CodeHash    common.Hash                 `json:"codeHash"`
	Code        hexutil.Bytes               `json:"code,omitempty"`
	Storage     map[common.Hash]common.Hash `json:"storage,omitempty"`
}

func account(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return errors.New("missing address")
	}
	addr, err := parse_address(ctx.Args().First())
	if err != nil {
		return err
	}
	return with_api(ctx, func(api *state.API) error {
		root, err := root_of(ctx, api)
		if err != nil {
			return err
		}
		q := api.Query()
		acc, err := q.GetAccount(root, addr)
		if err != nil {
			return err
		}
		view := &account_view{Nonce: acc.Nonce, Balance: acc.Balance, StorageRoot: acc.StorageRoot, CodeHash: acc.CodeHash}
		if acc.HasCode() {
			if view.Code, err = q.GetCode(acc.CodeHash); err != nil {
				return err
			}
		}
		for _, s := range ctx.Args().Tail() {
			slot := common.HexToHash(s)
			value, err := q.GetStorage(root, addr, slot)
			if err != nil {
				return err
			}
			if view.Storage == nil {
				view.Storage = make(map[common.Hash]common.Hash)
			}
			view.Storage[slot] = value
		}
		return print_json(view)
	})
}

var ProofCmd = cli.Command{
	Action:    proof,
	Name:      "proof",
	Usage:     "prints a verified merkle proof of an account and storage slots",
	ArgsUsage: "<address> [slot...]",
	Flags:     []cli.Flag{&root_flag},
}

func proof(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 {
		return errors.New("missing address")
	}
	addr, err := parse_address(ctx.Args().First())
	if err != nil {
		return err
	}
	var slots []common.Hash
	for _, s := range ctx.Args().Tail() {
		slots = append(slots, common.HexToHash(s))
	}
	return with_api(ctx, func(api *state.API) error {
		root, err := root_of(ctx, api)
		if err != nil {
			return err
		}
		p, err := api.Query().GetProof(root, addr, slots)
		if err != nil {
			return err
		}
		acc, err := state_query.VerifyAccountProof(p.StateRoot, &p.Account)
		if err != nil {
			return errors.Wrap(err, "account proof does not verify")
		}
		if acc != nil {
			for i := range p.Storage {
				if _, err = state_query.VerifyStorageProof(acc.StorageRoot, &p.Storage[i]); err != nil {
					return errors.Wrapf(err, "storage proof %d does not verify", i)
				}
			}
		}
		return print_json(p)
	})
}

var ReceiptsCmd = cli.Command{
	Action:    receipts,
	Name:      "receipts",
	Usage:     "prints the receipts of a receipts root, the last committed block's by default",
	ArgsUsage: "[receipts root]",
}

func receipts(ctx *cli.Context) error {
	return with_api(ctx, func(api *state.API) error {
		var root common.Hash
		if ctx.Args().Len() != 0 {
			root = common.HexToHash(ctx.Args().First())
		} else {
			latest, err := api.Latest()
			if err != nil {
				return err
			}
			root = latest.ReceiptsRoot
		}
		ret, err := api.Query().GetReceipts(root)
		if err != nil {
			return err
		}
		return print_json(ret)
	})
}

var SnapshotCmd = cli.Command{
	Action:    snapshot,
	Name:      "snapshot",
	Usage:     "copies the database directory, the database must not be in use",
	ArgsUsage: "<destination>",
}

func snapshot(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return errors.New("missing destination")
	}
	opts, err := load_opts(ctx)
	if err != nil {
		return err
	}
	if opts.DB.Type == "memory" || opts.DB.Path == "" {
		return errors.New("snapshot needs an on-disk database")
	}
	dest := ctx.Args().First()
	if files.Exists(dest) {
		return errors.Errorf("%s already exists", dest)
	}
	return files.Copy(opts.DB.Path, dest)
}

var (
	out_flag = cli.StringFlag{
		Name:  "out",
		Usage: "output file, stdout by default",
	}
	storage_of_flag = cli.StringFlag{
		Name:  "storage",
		Usage: "render the storage trie of this address instead of the account trie",
	}
)

var DotCmd = cli.Command{
	Action: dump_dot,
	Name:   "dot",
	Usage:  "renders a trie as a graphviz digraph",
	Flags:  []cli.Flag{&root_flag, &out_flag, &storage_of_flag},
}

func dump_dot(ctx *cli.Context) error {
	return with_api(ctx, func(api *state.API) error {
		root, err := root_of(ctx, api)
		if err != nil {
			return err
		}
		col := state_db.COL_acc_trie_node
		if ctx.IsSet(storage_of_flag.Name) {
			addr, err := parse_address(ctx.String(storage_of_flag.Name))
			if err != nil {
				return err
			}
			acc, err := api.Query().GetAccount(root, addr)
			if err != nil {
				return err
			}
			root, col = acc.StorageRoot, state_db.COL_storage_trie_node
		}
		snap, err := api.DB().Snapshot()
		if err != nil {
			return state_common.NewStorageFault(err, "snapshot")
		}
		defer snap.Release()
		graph, err := trie.DumpDot(state_db.TrieInput{Reader: snap, Col: col}, &root)
		if err != nil {
			return err
		}
		if !ctx.IsSet(out_flag.Name) {
			_, err = fmt.Println(graph)
			return err
		}
		return os.WriteFile(ctx.String(out_flag.Name), []byte(graph), 0644)
	})
}
