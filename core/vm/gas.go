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
	"github.com/holiman/uint256"
)

// memoryGasCost calculates the quadratic gas for memory expansion. It does so
// only for the memory region that is expanded, not the total memory.
func memoryGasCost(gt *GasTable, mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32
	if newMemSize <= mem.Len() {
		return 0, nil
	}
	square := newMemSizeWords * newMemSizeWords
	linCoef := newMemSizeWords * gt.Memory
	quadCoef := square / gt.QuadCoeffDiv
	newTotalFee := linCoef + quadCoef
	fee := newTotalFee - mem.lastGasCost
	mem.lastGasCost = newTotalFee
	return fee, nil
}

func gasPureMemory(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(&evm.gas, mem, memorySize)
}

// words_gas prices length per 32-byte word on top of the memory expansion.
func words_gas(evm *EVM, mem *Memory, memorySize uint64, length *uint256.Int, per_word uint64) (uint64, error) {
	gas, err := memoryGasCost(&evm.gas, mem, memorySize)
	if err != nil {
		return 0, err
	}
	words, overflow := length.Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if words, overflow = math.SafeMul(toWordSize(words), per_word); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, words); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCopy(length_pos int) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		return words_gas(evm, mem, memorySize, stack.Back(length_pos), evm.gas.Copy)
	}
}

func gasKeccak256(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return words_gas(evm, mem, memorySize, stack.Back(1), evm.gas.Keccak256Word)
}

func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByteLen := uint64((stack.Back(1).BitLen() + 7) / 8)
	gas, overflow := math.SafeMul(expByteLen, evm.gas.ExpByte)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// touch_address charges the cold surcharge on top of the warm price already
// taken as constant gas.
func touch_address(evm *EVM, addr common.Address) uint64 {
	if evm.host.AddressInAccessList(addr) {
		return 0
	}
	evm.host.AddAddressToAccessList(addr)
	return evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead
}

func gasAccountCheck(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return touch_address(evm, stack.peek().Bytes20()), nil
}

func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := words_gas(evm, mem, memorySize, stack.Back(3), evm.gas.Copy)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, touch_address(evm, stack.peek().Bytes20())); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasSLoad(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	slot := common.Hash(stack.peek().Bytes32())
	if _, present := evm.host.SlotInAccessList(contract.Address, slot); present {
		return evm.gas.WarmStorageRead, nil
	}
	evm.host.AddSlotToAccessList(contract.Address, slot)
	return evm.gas.ColdSload, nil
}

// gasSStore implements the net gas metering of EIP-2200 with the access costs
// of EIP-2929 and the reduced refunds of EIP-3529.
func gasSStore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gt := &evm.gas
	// If we fail the minimum gas availability invariant, fail (0)
	if contract.Gas <= gt.SstoreSentry {
		return 0, ErrOutOfGas
	}
	var (
		slot  = common.Hash(stack.peek().Bytes32())
		value = common.Hash(stack.Back(1).Bytes32())
		cost  uint64
	)
	if _, present := evm.host.SlotInAccessList(contract.Address, slot); !present {
		cost = gt.ColdSload
		evm.host.AddSlotToAccessList(contract.Address, slot)
	}
	current := evm.host.GetState(contract.Address, &slot)
	if current == value { // noop (1)
		return cost + gt.WarmStorageRead, nil
	}
	original := evm.host.GetCommittedState(contract.Address, &slot)
	if original == current {
		if original == (common.Hash{}) { // create slot (2.1.1)
			return cost + gt.SstoreSet, nil
		}
		if value == (common.Hash{}) { // delete slot (2.1.2b)
			evm.host.AddRefund(gt.SstoreClearsRefund)
		}
		return cost + (gt.SstoreReset - gt.ColdSload), nil // write existing slot (2.1.2)
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) { // recreate slot (2.2.1.1)
			evm.host.SubRefund(gt.SstoreClearsRefund)
		} else if value == (common.Hash{}) { // delete slot (2.2.1.2)
			evm.host.AddRefund(gt.SstoreClearsRefund)
		}
	}
	if original == value {
		if original == (common.Hash{}) { // reset to original inexistent slot (2.2.2.1)
			evm.host.AddRefund(gt.SstoreSet - gt.WarmStorageRead)
		} else { // reset to original existing slot (2.2.2.2)
			evm.host.AddRefund((gt.SstoreReset - gt.ColdSload) - gt.WarmStorageRead)
		}
	}
	return cost + gt.WarmStorageRead, nil // dirty update (2.2)
}

func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, err := memoryGasCost(&evm.gas, mem, memorySize)
		if err != nil {
			return 0, err
		}
		if gas, overflow = math.SafeAdd(gas, evm.gas.Log); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, n*evm.gas.LogTopic); overflow {
			return 0, ErrGasUintOverflow
		}
		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, evm.gas.LogData); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func gasCreate(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	size := stack.Back(2)
	if !size.IsUint64() || size.Uint64() > evm.gas.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	return words_gas(evm, mem, memorySize, size, evm.gas.InitCodeWord)
}

func gasCreate2(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	size := stack.Back(2)
	if !size.IsUint64() || size.Uint64() > evm.gas.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	// init code is both metered and hashed
	return words_gas(evm, mem, memorySize, size, evm.gas.InitCodeWord+evm.gas.Keccak256Word)
}

// callGas returns the actual gas cost of the call, applying the 63/64 rule of
// EIP-150 to what remains after the base cost.
func callGas(availableGas, base uint64, callCost *uint256.Int) (uint64, error) {
	if availableGas < base {
		return 0, ErrOutOfGas
	}
	availableGas = availableGas - base
	gas := availableGas - availableGas/64
	if !callCost.IsUint64() || gas < callCost.Uint64() {
		return gas, nil
	}
	return callCost.Uint64(), nil
}

func call_gas_end(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64, gas uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(&evm.gas, mem, memorySize)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if evm.call_gas_tmp, err = callGas(contract.Gas, gas, stack.Back(0)); err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, evm.call_gas_tmp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	if transfers_value := !stack.Back(2).IsZero(); transfers_value {
		gas += evm.gas.CallValueTransfer
		if evm.host.Empty(stack.Back(1).Bytes20()) {
			gas += evm.gas.CallNewAccount
		}
	}
	return call_gas_end(evm, contract, stack, mem, memorySize, gas)
}

func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	if !stack.Back(2).IsZero() {
		gas += evm.gas.CallValueTransfer
	}
	return call_gas_end(evm, contract, stack, mem, memorySize, gas)
}

func gasDelegateCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return call_gas_end(evm, contract, stack, mem, memorySize, 0)
}

// gasCallWithAccess charges the cold account surcharge before the 63/64 split
// so that the callee cannot be handed gas that pays for it.
func gasCallWithAccess(inner gasFunc) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		addr := common.Address(stack.Back(1).Bytes20())
		warm := evm.host.AddressInAccessList(addr)
		cold_cost := evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead
		if !warm {
			evm.host.AddAddressToAccessList(addr)
			if !contract.UseGas(cold_cost) {
				return 0, ErrOutOfGas
			}
		}
		gas, err := inner(evm, contract, stack, mem, memorySize)
		if warm || err != nil {
			return gas, err
		}
		// put the surcharge back so it is taken together with the dynamic gas
		contract.Gas += cold_cost
		var overflow bool
		if gas, overflow = math.SafeAdd(gas, cold_cost); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	beneficiary := common.Address(stack.peek().Bytes20())
	if !evm.host.AddressInAccessList(beneficiary) {
		evm.host.AddAddressToAccessList(beneficiary)
		gas = evm.gas.ColdAccountAccess
	}
	if evm.host.Empty(beneficiary) && !evm.host.GetBalance(contract.Address).IsZero() {
		gas += evm.gas.CreateBySelfdestruct
	}
	return gas, nil
}
