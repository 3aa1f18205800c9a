package state_common

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
)

// Reasons a transaction is refused before execution.
const (
	ErrNonceTooLow         = util.ErrorString("nonce too low")
	ErrNonceTooHigh        = util.ErrorString("nonce too high")
	ErrNonceMax            = util.ErrorString("nonce has max value")
	ErrInsufficientFunds   = util.ErrorString("insufficient funds for gas * price + value")
	ErrIntrinsicGas        = util.ErrorString("intrinsic gas too low")
	ErrGasUintOverflow     = util.ErrorString("gas uint64 overflow")
	ErrFeeCapTooLow        = util.ErrorString("max fee per gas less than block base fee")
	ErrTipAboveFeeCap      = util.ErrorString("max priority fee per gas higher than max fee per gas")
	ErrSenderNoEOA         = util.ErrorString("sender not an eoa")
	ErrInvalidSig          = util.ErrorString("invalid transaction signature")
	ErrUnsupportedTxType   = util.ErrorString("transaction type not supported")
	ErrChainIDMismatch     = util.ErrorString("transaction chain id mismatch")
	ErrGasLimitReached     = util.ErrorString("block gas limit reached")
	ErrZeroBlockGasLimit   = util.ErrorString("block gas limit is zero")
	ErrMissingBaseFee      = util.ErrorString("base fee is required for dynamic fee transactions")
	ErrUnknownParentRoot   = util.ErrorString("unknown parent state root")
	ErrConcurrentExecution = util.ErrorString("concurrent block execution")
	ErrBlockNumberGap      = util.ErrorString("block number does not follow the last committed one")
	ErrGenesisExists       = util.ErrorString("database already holds committed state")
)

// RejectedTransaction is a transaction refused by the precheck. It leaves no
// trace in the state and gets no receipt.
type RejectedTransaction struct {
	TxIndex TxIndex
	TxHash  common.Hash
	Reason  error
}

func (self *RejectedTransaction) Error() string {
	return fmt.Sprintf("transaction %d (%s) rejected: %v", self.TxIndex, self.TxHash.Hex(), self.Reason)
}

func (self *RejectedTransaction) Unwrap() error { return self.Reason }

// ProtocolViolation rejects the whole block. Nothing is persisted.
type ProtocolViolation struct {
	Reason error
}

func (self *ProtocolViolation) Error() string { return "protocol violation: " + self.Reason.Error() }
func (self *ProtocolViolation) Unwrap() error { return self.Reason }

func NewProtocolViolation(reason error, ctx ...interface{}) *ProtocolViolation {
	if len(ctx) != 0 {
		reason = errors.Wrap(reason, fmt.Sprint(ctx...))
	}
	return &ProtocolViolation{reason}
}

// StorageFault is an I/O failure of the node store. It is fatal for the
// process: the store is in an unknown condition from the engine's point of view.
type StorageFault struct {
	Err error
}

func (self *StorageFault) Error() string { return "storage fault: " + self.Err.Error() }
func (self *StorageFault) Unwrap() error { return self.Err }

// NewStorageFault wraps err with op unless err already is a storage fault.
func NewStorageFault(err error, op string) error {
	if err == nil {
		return nil
	}
	var fault *StorageFault
	if errors.As(err, &fault) {
		return err
	}
	return &StorageFault{errors.Wrap(err, op)}
}

func IsFatal(err error) bool {
	var fault *StorageFault
	return errors.As(err, &fault)
}

type storage_panic struct{ err error }

// PanicIfStorageErr unwinds deep state code on a store failure. The panic is
// turned back into an error by RecoverStorageFault.
func PanicIfStorageErr(err error) {
	if err != nil {
		panic(storage_panic{NewStorageFault(err, "state read")})
	}
}

// RecoverStorageFault must be deferred directly.
func RecoverStorageFault(err_out *error) {
	if r := recover(); r != nil {
		p, ok := r.(storage_panic)
		if !ok {
			panic(r)
		}
		*err_out = p.err
	}
}
