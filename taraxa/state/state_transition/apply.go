package state_transition

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_evm"
)

type ApplyOpts struct {
	// skip the nonce equality check, for simulations
	DisableNonceCheck bool
	// execute at zero price, no upfront balance check for gas
	DisableGasFee bool
}

// Applier runs single transactions against a journaled state. It is shared by
// block execution and simulation.
type Applier struct {
	Cfg         *state_common.ExecutionConfig
	Interpreter vm.Interpreter
	Precompiles []common.Address
}

// Apply executes tx at index idx. A precheck failure returns a
// *RejectedTransaction and leaves st untouched, a block level failure returns
// a *ProtocolViolation. The caller checkpoints st afterwards.
func (self *Applier) Apply(
	st *state_evm.EVMState, blk *vm.BlockContext, pool *core.GasPool, tx *state_common.Transaction,
	idx state_common.TxIndex, opts ApplyOpts,
) (*state_common.Receipt, error) {
	reject := func(reason error) error {
		return &state_common.RejectedTransaction{TxIndex: idx, TxHash: tx.Hash, Reason: reason}
	}
	if tx.IsDynamicFee() {
		if blk.BaseFee == nil {
			return nil, state_common.NewProtocolViolation(state_common.ErrMissingBaseFee)
		}
		if tx.GasTipCap != nil && tx.GasTipCap.Gt(tx.GasFeeCap) {
			return nil, reject(state_common.ErrTipAboveFeeCap)
		}
	}
	if !opts.DisableGasFee && blk.BaseFee != nil && tx.MaxPrice().Lt(blk.BaseFee) {
		return nil, reject(state_common.ErrFeeCapTooLow)
	}
	nonce := st.GetNonce(tx.From)
	if !opts.DisableNonceCheck {
		if nonce < tx.Nonce {
			return nil, reject(state_common.ErrNonceTooHigh)
		} else if nonce > tx.Nonce {
			return nil, reject(state_common.ErrNonceTooLow)
		}
	}
	if nonce+1 < nonce {
		return nil, reject(state_common.ErrNonceMax)
	}
	if code_hash := st.GetCodeHash(tx.From); code_hash != (common.Hash{}) && code_hash != state_common.EmptyCodeHash {
		return nil, reject(state_common.ErrSenderNoEOA)
	}
	creation := tx.IsCreation()
	gas_intrinsic, err := self.Cfg.Fees.IntrinsicGas(tx.Data, tx.AccessList, creation)
	if err != nil {
		return nil, reject(err)
	}
	if tx.Gas < gas_intrinsic {
		return nil, reject(state_common.ErrIntrinsicGas)
	}
	if creation && uint64(len(tx.Data)) > self.Cfg.Gas.MaxInitCodeSize {
		return nil, reject(vm.ErrMaxInitCodeSizeExceeded)
	}
	price := tx.EffectivePrice(blk.BaseFee)
	if opts.DisableGasFee {
		price = new(uint256.Int)
	}
	gas_cap := uint256.NewInt(tx.Gas)
	upfront, overflow := new(uint256.Int).MulOverflow(gas_cap, tx.MaxPrice())
	if opts.DisableGasFee {
		upfront, overflow = new(uint256.Int), false
	}
	if !overflow {
		_, overflow = upfront.AddOverflow(upfront, tx.GetValue())
	}
	if overflow || st.GetBalance(tx.From).Lt(upfront) {
		return nil, reject(state_common.ErrInsufficientFunds)
	}
	if err := pool.SubGas(tx.Gas); err != nil {
		return nil, state_common.NewProtocolViolation(state_common.ErrGasLimitReached, "tx ", idx)
	}

	st.PrepareAccessList(tx.From, tx.To, self.Precompiles, tx.AccessList, blk.Coinbase)
	st.SubBalance(tx.From, new(uint256.Int).Mul(gas_cap, price))
	if !creation {
		st.SetNonce(tx.From, nonce+1)
	}
	res := self.Interpreter.Execute(st, blk, &vm.TxContext{Origin: tx.From, GasPrice: price}, &vm.Message{
		From:  tx.From,
		To:    tx.To,
		Value: tx.GetValue(),
		Gas:   tx.Gas - gas_intrinsic,
		Data:  tx.Data,
	})
	gas_left := res.GasLeft
	if quotient := self.Cfg.Fees.RefundQuotient; quotient != 0 {
		gas_left += min(st.GetRefund(), (tx.Gas-gas_left)/quotient)
	}
	gas_used := tx.Gas - gas_left
	pool.AddGas(gas_left)
	st.AddBalance(tx.From, new(uint256.Int).Mul(uint256.NewInt(gas_left), price))
	fee := new(uint256.Int).Mul(uint256.NewInt(gas_used), price)
	if burn_percent := self.Cfg.Fees.BurnPercent; burn_percent != 0 {
		burn := new(uint256.Int).Mul(fee, uint256.NewInt(min(burn_percent, 100)))
		fee.Sub(fee, burn.Div(burn, uint256.NewInt(100)))
	}
	st.AddBalance(blk.Coinbase, fee)

	receipt := &state_common.Receipt{
		GasUsed:    gas_used,
		TxHash:     tx.Hash,
		TxIndex:    idx,
		ReturnData: res.ReturnData,
		Err:        res.Err,
	}
	switch res.Err {
	case nil:
		receipt.Status = state_common.ReceiptSuccess
	case vm.ErrExecutionReverted:
		receipt.Status = state_common.ReceiptReverted
	default:
		receipt.Status = state_common.ReceiptFailed
	}
	if creation {
		addr := res.ContractAddress
		receipt.ContractAddress = &addr
	}
	receipt.Logs = st.GetLogs()
	for _, l := range receipt.Logs {
		l.BlockNumber, l.TxHash, l.TxIndex = blk.Number, tx.Hash, uint(idx)
	}
	receipt.Bloom = state_common.LogsBloom(receipt.Logs)
	return receipt, nil
}
