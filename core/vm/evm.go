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
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// Default is the bundled jump-table interpreter. It holds nothing but
// immutable tables and a jumpdest cache, so one instance may serve concurrent
// executions against different hosts.
type Default struct {
	chain_id        uint64
	gas             GasTable
	instruction_set JumpTable
	precompiles     Precompiles
	jumpdests       *jumpdest_cache
}

func NewDefault(chain_id uint64, gas GasTable) *Default {
	self := &Default{chain_id: chain_id, gas: gas, precompiles: DefaultPrecompiles, jumpdests: new_jumpdest_cache()}
	self.instruction_set = newInstructionSet(&self.gas)
	return self
}

func (self *Default) Execute(host Host, blk *BlockContext, tx *TxContext, msg *Message) (ret Result) {
	evm := EVM{Default: self, host: host, block: blk, trx: tx}
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if msg.To == nil {
		ret.ReturnData, ret.ContractAddress, ret.GasLeft, ret.Err = evm.create_1(msg.From, msg.Data, msg.Gas, value)
	} else {
		ret.ReturnData, ret.GasLeft, ret.Err = evm.call(msg.From, *msg.To, msg.Data, msg.Gas, value)
	}
	return
}

// EVM is the per-message execution context. It should be noted that any error
// generated through any of the calls should be considered a
// revert-state-and-consume-all-gas operation, no checks on specific errors
// should ever be performed except for ErrExecutionReverted.
type EVM struct {
	*Default
	host  Host
	block *BlockContext
	trx   *TxContext
	depth int
	// call_gas_tmp holds the gas available for the current call. This is needed because the
	// available gas is calculated in gasCall* according to the 63/64 rule and later
	// applied in opCall*.
	call_gas_tmp uint64
	read_only    bool   // Whether to throw on stateful modifications
	last_retval  []byte // Last CALL's return data for subsequent reuse
}

// create_1 creates a new contract using code as deployment code.
func (self *EVM) create_1(caller common.Address, code []byte, gas uint64, value *uint256.Int) (ret []byte, contractAddr common.Address, leftOverGas uint64, err error) {
	contractAddr = crypto.CreateAddress(caller, self.host.GetNonce(caller))
	ret, leftOverGas, err = self.create(caller, CodeAndHash{Code: code}, gas, value, contractAddr)
	return
}

// create_2 creates a new contract using code as deployment code.
//
// The different between create_2 with create_1 is create_2 uses sha3(0xff ++ msg.sender ++ salt ++ sha3(init_code))[12:]
// instead of the usual sender-and-nonce-hash as the address where the contract is initialized at.
func (self *EVM) create_2(caller common.Address, code []byte, gas uint64, endowment *uint256.Int, salt *uint256.Int) (ret []byte, contractAddr common.Address, leftOverGas uint64, err error) {
	code_and_hash := CodeAndHash{code, keccak256.HashAndReturnByValue(code)}
	contractAddr = crypto.CreateAddress2(caller, salt.Bytes32(), code_and_hash.CodeHash[:])
	ret, leftOverGas, err = self.create(caller, code_and_hash, gas, endowment, contractAddr)
	return
}

// create creates a new contract using code as deployment code.
func (self *EVM) create(caller common.Address, code CodeAndHash, gas uint64, value *uint256.Int, address common.Address) (ret []byte, gas_left uint64, err error) {
	// Depth check execution. Fail if we're trying to execute above the
	// limit.
	if self.depth > int(self.gas.CallCreateDepth) {
		return nil, gas, ErrDepth
	}
	if self.host.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalanceForTransfer
	}
	nonce := self.host.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, gas, ErrNonceUintOverflow
	}
	// The nonce is consumed even when the creation fails below.
	self.host.SetNonce(caller, nonce+1)
	self.host.AddAddressToAccessList(address)
	// Ensure there's no existing contract already at the designated address
	if code_hash := self.host.GetCodeHash(address); self.host.GetNonce(address) != 0 ||
		(code_hash != (common.Hash{}) && code_hash != EmptyCodeHash) {
		return nil, 0, ErrContractAddressCollision
	}
	snapshot := self.host.Snapshot()
	self.host.SetNonce(address, 1)
	self.transfer(caller, address, value)
	contract := NewContract(CallFrame{caller, address, nil, gas, value}, address, code)
	ret, err = self.run(contract, false)
	if err == nil {
		if uint64(len(ret)) > self.gas.MaxCodeSize {
			err = ErrMaxCodeSizeExceeded
		} else if len(ret) >= 1 && ret[0] == 0xEF {
			err = ErrInvalidCode
		} else if createDataGas := uint64(len(ret)) * self.gas.CreateData; contract.UseGas(createDataGas) {
			self.host.SetCode(address, ret)
		} else {
			err = ErrCodeStoreOutOfGas
		}
	}
	// When an error was returned by the EVM or when setting the creation code
	// above we revert to the snapshot and consume any gas remaining.
	if err != nil {
		self.host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	return ret, contract.Gas, err
}

// call executes the contract associated with the addr with the given input as
// parameters. It also handles any necessary value transfer required and takes
// the necessary steps to create accounts and reverses the state in case of an
// execution error or failed value transfer.
func (self *EVM) call(caller, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, gas_left uint64, err error) {
	// Fail if we're trying to execute above the call depth limit
	if self.depth > int(self.gas.CallCreateDepth) {
		return nil, gas, ErrDepth
	}
	if !value.IsZero() && self.host.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalanceForTransfer
	}
	if value.IsZero() && self.precompiles[addr] == nil && !self.host.Exist(addr) {
		// nothing to run and nothing to touch
		return nil, gas, nil
	}
	snapshot := self.host.Snapshot()
	self.transfer(caller, addr, value)
	return self.call_end(CallFrame{caller, addr, input, gas, value}, addr, snapshot, false)
}

func (self *EVM) call_end(frame CallFrame, code_addr common.Address, snapshot int, read_only bool) (ret []byte, gas_left uint64, err error) {
	gas_left = frame.Gas
	if precompiled := self.precompiles[code_addr]; precompiled != nil {
		ret, gas_left, err = run_precompiled(precompiled, &self.gas, frame.Input, gas_left)
	} else if code := self.host.GetCode(code_addr); len(code) != 0 {
		contract := NewContract(frame, code_addr, CodeAndHash{code, self.host.GetCodeHash(code_addr)})
		ret, err = self.run(contract, read_only)
		gas_left = contract.Gas
	}
	if err != nil {
		self.host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gas_left = 0
		}
	}
	return
}

// call_code executes the contract associated with the addr with the given input
// as parameters. It also handles any necessary value transfer required and takes
// the necessary steps to create accounts and reverses the state in case of an
// execution error or failed value transfer.
//
// call_code differs from call in the sense that it executes the given address'
// code with the caller as context.
func (self *EVM) call_code(caller *Contract, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if self.depth > int(self.gas.CallCreateDepth) {
		return nil, gas, ErrDepth
	}
	// Fail if we're trying to transfer more than the available balance
	if self.host.GetBalance(caller.Address).Lt(value) {
		return nil, gas, ErrInsufficientBalanceForTransfer
	}
	return self.call_end(CallFrame{caller.Address, caller.Address, input, gas, value}, addr, self.host.Snapshot(), false)
}

// call_delegate executes the contract associated with the addr with the given input
// as parameters. It reverses the state in case of an execution error.
//
// call_delegate differs from call_code in the sense that it executes the given address'
// code with the caller as context and the caller is set to the caller of the caller.
func (self *EVM) call_delegate(caller *Contract, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if self.depth > int(self.gas.CallCreateDepth) {
		return nil, gas, ErrDepth
	}
	return self.call_end(CallFrame{caller.CallerAddress, caller.Address, input, gas, caller.Value}, addr, self.host.Snapshot(), false)
}

// call_static executes the contract associated with the addr with the given input
// as parameters while disallowing any modifications to the state during the call.
// Opcodes that attempt to perform such modifications will result in exceptions
// instead of performing the modifications.
func (self *EVM) call_static(caller *Contract, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if self.depth > int(self.gas.CallCreateDepth) {
		return nil, gas, ErrDepth
	}
	snapshot := self.host.Snapshot()
	// a zero transfer touches the callee like a plain call does
	self.host.AddBalance(addr, new(uint256.Int))
	return self.call_end(CallFrame{caller.Address, addr, input, gas, new(uint256.Int)}, addr, snapshot, true)
}

// run loops and evaluates the contract's code with the given input data and returns
// the return byte-slice and an error if one occurred.
//
// It's important to note that any errors returned by the interpreter should be
// considered a revert-and-consume-all-gas operation except for
// ErrExecutionReverted which means revert-and-keep-gas-left.
func (self *EVM) run(contract *Contract, read_only bool) (ret []byte, err error) {
	// Increment the call depth which is restricted to 1024
	self.depth++
	defer func() { self.depth-- }()
	// Make sure the read_only is only set if we aren't in read_only yet.
	// This makes also sure that the read_only flag isn't removed for child calls.
	if read_only && !self.read_only {
		self.read_only = true
		defer func() { self.read_only = false }()
	}
	// Reset the previous call's return data. It's unimportant to preserve the old buffer
	// as every returning call will return new data anyway.
	self.last_retval = nil
	if len(contract.Code) == 0 {
		return nil, nil
	}
	var (
		mem   Memory
		stack = new_stack()
		pc    = uint64(0) // program counter
		res   []byte
	)
	defer return_stack(stack)
	for {
		op := contract.GetOp(pc)
		operation := self.instruction_set[op]
		if !operation.valid {
			return nil, ErrInvalidOpCode
		}
		if sLen := stack.len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}
		// The 3rd stack item of CALL is the value. Transferring value from one
		// account to the others means the state is modified.
		if self.read_only && (operation.writes || (op == CALL && !stack.Back(2).IsZero())) {
			return nil, ErrWriteProtection
		}
		if !contract.UseGas(operation.constantGas) {
			return nil, ErrOutOfGas
		}
		if operation.dynamicGas != nil {
			var memorySize uint64
			// calculate the new memory size and expand the memory to fit
			// the operation
			if operation.memorySize != nil {
				memSize, overflow := operation.memorySize(stack)
				if overflow {
					return nil, ErrGasUintOverflow
				}
				// memory is expanded in words of 32 bytes. Gas
				// is also calculated in words.
				if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
					return nil, ErrGasUintOverflow
				}
			}
			dynamic_cost, err := operation.dynamicGas(self, contract, stack, &mem, memorySize)
			if err != nil {
				return nil, err
			}
			if !contract.UseGas(dynamic_cost) {
				return nil, ErrOutOfGas
			}
			if memorySize > 0 {
				mem.Resize(memorySize)
			}
		}
		res, err = operation.execute(&pc, self, contract, &mem, stack)
		// if the operation clears the return data (e.g. it has returning data)
		// set the last return to the result of the operation.
		if operation.returns {
			self.last_retval = res
		}
		switch {
		case err != nil:
			return nil, err
		case operation.reverts:
			return res, ErrExecutionReverted
		case operation.halts:
			return res, nil
		case !operation.jumps:
			pc++
		}
	}
}

func (self *EVM) transfer(from, to common.Address, amount *uint256.Int) {
	self.host.SubBalance(from, amount)
	self.host.AddBalance(to, amount)
}
