// Copyright 2016 The go-ethereum Authors
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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

var EmptyCodeHash = types.EmptyCodeHash

// Host is everything an interpreter may observe or change in the world state.
// Changes are journaled by the host and undone with RevertToSnapshot.
type Host interface {
	// Exist reports whether the account is present in the state, self-destructed
	// accounts included.
	Exist(common.Address) bool
	// Empty reports whether the account has zero nonce, zero balance and no code.
	Empty(common.Address) bool

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int)
	SubBalance(common.Address, *uint256.Int)
	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCode(common.Address) []byte
	// GetCodeHash returns the zero hash for absent accounts.
	GetCodeHash(common.Address) common.Hash
	GetCodeSize(common.Address) int
	SetCode(common.Address, []byte)

	GetState(addr common.Address, key *common.Hash) common.Hash
	// GetCommittedState returns the value as of the start of the transaction.
	GetCommittedState(addr common.Address, key *common.Hash) common.Hash
	SetState(addr common.Address, key *common.Hash, value common.Hash)

	// SelfDestruct marks the account for removal at the end of the transaction
	// and zeroes its balance.
	SelfDestruct(common.Address)
	HasSelfDestructed(common.Address) bool

	AddRefund(uint64)
	SubRefund(uint64)
	GetRefund() uint64

	AddressInAccessList(common.Address) bool
	SlotInAccessList(addr common.Address, slot common.Hash) (addr_present bool, slot_present bool)
	AddAddressToAccessList(common.Address)
	AddSlotToAccessList(addr common.Address, slot common.Hash)

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)
}

type GetHashFunc = func(block_num uint64) common.Hash

type BlockContext struct {
	Number     uint64
	Coinbase   common.Address
	Time       uint64
	GasLimit   uint64
	BaseFee    *uint256.Int
	PrevRandao common.Hash
	GetHash    GetHashFunc `json:"-"`
}

type TxContext struct {
	Origin   common.Address
	GasPrice *uint256.Int
}

// Message is the part of a transaction the interpreter executes. Gas is what
// is left after the intrinsic cost.
type Message struct {
	From  common.Address
	To    *common.Address
	Value *uint256.Int
	Gas   uint64
	Data  []byte
}

type Result struct {
	ReturnData      []byte
	GasLeft         uint64
	ContractAddress common.Address
	// nil on success, ErrExecutionReverted on an explicit revert, any other
	// error is a fault that consumed all gas.
	Err error
}

// Interpreter runs one message against a host. Implementations must be
// deterministic functions of their inputs.
type Interpreter interface {
	Execute(host Host, blk *BlockContext, tx *TxContext, msg *Message) Result
}
