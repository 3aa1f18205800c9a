package state_dry_runner

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_evm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_transition"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_world"
)

// DryRunner executes transactions on top of a committed root and throws the
// result away. Every call pins its own store snapshot.
type DryRunner struct {
	db      state_db.DB
	caches  *state_cache.Caches
	applier *state_transition.Applier
}

type Result struct {
	*state_common.Receipt
	// decoded Error(string) payload of a revert, if any
	RevertReason string `json:"revertReason,omitempty"`
}

func (self *DryRunner) Init(db state_db.DB, caches *state_cache.Caches, applier *state_transition.Applier) *DryRunner {
	self.db, self.caches, self.applier = db, caches, applier
	return self
}

// Simulate runs tx at root without the nonce check. A transaction without a
// price is executed for free. Gas defaults to the block gas limit.
func (self *DryRunner) Simulate(tx *state_common.Transaction, root common.Hash, blk *vm.BlockContext) (ret *Result, err error) {
	snap, err := self.db.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()
	defer state_common.RecoverStorageFault(&err)
	return self.simulate(snap, tx, root, blk, with_default_gas(tx, blk))
}

func with_default_gas(tx *state_common.Transaction, blk *vm.BlockContext) uint64 {
	if tx.Gas != 0 {
		return tx.Gas
	}
	return blk.GasLimit
}

func (self *DryRunner) simulate(
	r state_db.Reader, tx *state_common.Transaction, root common.Hash, blk *vm.BlockContext, gas uint64,
) (*Result, error) {
	tx_copy := *tx
	tx_copy.Gas = gas
	world := new(state_world.World).Init(r, self.caches, &root)
	st := new(state_evm.EVMState).Init(world, state_evm.Opts{AccountBufferSize: 16, RevertLogSize: 64})
	pool := new(core.GasPool).AddGas(max(blk.GasLimit, gas))
	receipt, err := self.applier.Apply(st, blk, pool, &tx_copy, 0, state_transition.ApplyOpts{
		DisableNonceCheck: true,
		DisableGasFee:     tx.MaxPrice().IsZero(),
	})
	if err != nil {
		return nil, err
	}
	receipt.CumulativeGasUsed = receipt.GasUsed
	ret := &Result{Receipt: receipt}
	if receipt.Status == state_common.ReceiptReverted {
		if reason, unpack_err := abi.UnpackRevert(receipt.ReturnData); unpack_err == nil {
			ret.RevertReason = reason
		}
	}
	return ret, nil
}

// EstimateGas finds the smallest gas limit tx succeeds with, by binary search
// between the intrinsic gas and the transaction's or block's gas limit.
func (self *DryRunner) EstimateGas(tx *state_common.Transaction, root common.Hash, blk *vm.BlockContext) (ret uint64, err error) {
	snap, err := self.db.Snapshot()
	if err != nil {
		return 0, err
	}
	defer snap.Release()
	defer state_common.RecoverStorageFault(&err)

	intrinsic, err := self.applier.Cfg.Fees.IntrinsicGas(tx.Data, tx.AccessList, tx.IsCreation())
	if err != nil {
		return 0, err
	}
	hi := with_default_gas(tx, blk)
	if hi < intrinsic {
		return 0, state_common.ErrIntrinsicGas
	}
	res, err := self.simulate(snap, tx, root, blk, hi)
	if err != nil {
		return 0, err
	}
	if res.Status != state_common.ReceiptSuccess {
		if res.RevertReason != "" {
			return 0, errors.Wrap(res.Err, res.RevertReason)
		}
		return 0, errors.Wrapf(res.Err, "gas required exceeds allowance (%d)", hi)
	}
	// lo fails and hi succeeds throughout the search
	lo := intrinsic - 1
	if intrinsic == 0 {
		res, err := self.simulate(snap, tx, root, blk, 0)
		if err != nil && state_common.IsFatal(err) {
			return 0, err
		}
		if err == nil && res.Status == state_common.ReceiptSuccess {
			return 0, nil
		}
		lo = 0
	}
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		res, err := self.simulate(snap, tx, root, blk, mid)
		if err != nil && state_common.IsFatal(err) {
			return 0, err
		}
		if err == nil && res.Status == state_common.ReceiptSuccess {
			hi = mid
		} else {
			lo = mid
		}
	}
	log.Debug("Estimated gas", "from", tx.From, "to", tx.To, "gas", hi)
	return hi, nil
}
