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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Contract represents an ethereum contract in the state database. It contains
// the contract code, calling arguments.
type Contract struct {
	CallFrame
	CodeAndHash
	// CodeAddr is where the code was loaded from. It differs from Address for
	// CALLCODE and DELEGATECALL.
	CodeAddr common.Address
	analysis bitvec
}

type CallFrame struct {
	// CallerAddress is the result of the caller which initialised this
	// contract. However when the "call method" is delegated this value
	// needs to be initialised to that of the caller's caller.
	CallerAddress common.Address
	// Address owns the storage and balance the code operates on.
	Address common.Address
	Input   []byte
	Gas     uint64
	Value   *uint256.Int
}

// CodeAndHash carries a zero hash for init code, which is never cached.
type CodeAndHash struct {
	Code     []byte
	CodeHash common.Hash
}

// NewContract returns a new contract environment for the execution of EVM.
func NewContract(frame CallFrame, code_addr common.Address, code CodeAndHash) *Contract {
	return &Contract{CallFrame: frame, CodeAndHash: code, CodeAddr: code_addr}
}

func (self *Contract) ValidJumpdest(evm *EVM, dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	// PC cannot go beyond len(code) and certainly can't be bigger than 63bits.
	// Don't bother checking for JUMPDEST in that case.
	if overflow || udest >= uint64(len(self.Code)) {
		return false
	}
	if OpCode(self.Code[udest]) != JUMPDEST {
		return false
	}
	if self.analysis == nil {
		self.analysis = evm.analyze_jumpdests(&self.CodeAndHash)
	}
	return self.analysis.codeSegment(udest)
}

// GetOp returns the n'th element in the contract's byte array
func (self *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(self.Code)) {
		return OpCode(self.Code[n])
	}
	return STOP
}

// UseGas attempts the use gas and subtracts it and returns true on success
func (self *Contract) UseGas(gas uint64) (ok bool) {
	if self.Gas < gas {
		return false
	}
	self.Gas -= gas
	return true
}
