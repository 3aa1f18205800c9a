// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/Taraxa-project/taraxa-state/taraxa/util"
)

// Execution faults. Any of them reverts the frame and consumes its gas, except
// ErrExecutionReverted which keeps the gas left.
const (
	ErrOutOfGas                       = util.ErrorString("out of gas")
	ErrCodeStoreOutOfGas              = util.ErrorString("contract creation code storage out of gas")
	ErrDepth                          = util.ErrorString("max call depth exceeded")
	ErrInsufficientBalanceForTransfer = util.ErrorString("insufficient balance for transfer")
	ErrContractAddressCollision       = util.ErrorString("contract address collision")
	ErrExecutionReverted              = util.ErrorString("execution reverted")
	ErrMaxCodeSizeExceeded            = util.ErrorString("max code size exceeded")
	ErrMaxInitCodeSizeExceeded        = util.ErrorString("max initcode size exceeded")
	ErrInvalidJump                    = util.ErrorString("invalid jump destination")
	ErrWriteProtection                = util.ErrorString("write protection")
	ErrReturnDataOutOfBounds          = util.ErrorString("return data out of bounds")
	ErrGasUintOverflow                = util.ErrorString("gas uint64 overflow")
	ErrInvalidCode                    = util.ErrorString("invalid code: must not begin with 0xef")
	ErrNonceUintOverflow              = util.ErrorString("nonce uint64 overflow")
	ErrStackUnderflow                 = util.ErrorString("stack underflow")
	ErrStackOverflow                  = util.ErrorString("stack limit reached")
	ErrInvalidOpCode                  = util.ErrorString("invalid opcode")
)
