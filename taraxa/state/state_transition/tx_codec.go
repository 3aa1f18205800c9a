package state_transition

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

// DecodeSigned parses the binary form of a signed transaction, either legacy
// rlp or a typed envelope.
func DecodeSigned(enc []byte) (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(enc); err != nil {
		return nil, errors.Wrap(err, "decode transaction")
	}
	return tx, nil
}

// FromSigned recovers the sender of tx and converts it for execution.
func FromSigned(signer types.Signer, tx *types.Transaction) (*state_common.Transaction, error) {
	switch tx.Type() {
	case types.LegacyTxType, types.AccessListTxType, types.DynamicFeeTxType:
	default:
		return nil, state_common.ErrUnsupportedTxType
	}
	if tx.Protected() && tx.ChainId().Cmp(signer.ChainID()) != 0 {
		return nil, state_common.ErrChainIDMismatch
	}
	from, err := types.Sender(signer, tx)
	if err != nil {
		return nil, errors.Wrap(state_common.ErrInvalidSig, err.Error())
	}
	ret := &state_common.Transaction{
		Hash:       tx.Hash(),
		From:       from,
		To:         tx.To(),
		Nonce:      tx.Nonce(),
		Gas:        tx.Gas(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
	}
	var overflow bool
	to_u256 := func(v *big.Int) *uint256.Int {
		ret, o := uint256.FromBig(v)
		overflow = overflow || o
		return ret
	}
	ret.Value = to_u256(tx.Value())
	if tx.Type() == types.DynamicFeeTxType {
		ret.GasFeeCap, ret.GasTipCap = to_u256(tx.GasFeeCap()), to_u256(tx.GasTipCap())
	} else {
		ret.GasPrice = to_u256(tx.GasPrice())
	}
	if overflow {
		return nil, errors.New("transaction value or price exceeds 256 bits")
	}
	return ret, nil
}

// RecoverSenders converts a block's transactions in parallel. Signature
// recovery is the only part of block processing that is not sequential.
func RecoverSenders(pool *ants.Pool, signer types.Signer, txs []*types.Transaction) ([]*state_common.Transaction, error) {
	ret := make([]*state_common.Transaction, len(txs))
	errs := make([]error, len(txs))
	var wg sync.WaitGroup
	for i := range txs {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			ret[i], errs[i] = FromSigned(signer, txs[i])
		}
		if pool == nil || pool.Submit(task) != nil {
			task()
		}
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, &state_common.RejectedTransaction{TxIndex: state_common.TxIndex(i), TxHash: txs[i].Hash(), Reason: err}
		}
	}
	return ret, nil
}
