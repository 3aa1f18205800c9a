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
	"github.com/ethereum/go-ethereum/params"
)

const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// GasTable holds the prices of every opcode whose cost is not one of the
// fixed step tiers, plus the limits they are checked against.
type GasTable struct {
	Keccak256     uint64 `json:"keccak256"`
	Keccak256Word uint64 `json:"keccak256Word"`
	Copy          uint64 `json:"copy"`
	Memory        uint64 `json:"memory"`
	QuadCoeffDiv  uint64 `json:"quadCoeffDiv"`
	Exp           uint64 `json:"exp"`
	ExpByte       uint64 `json:"expByte"`
	Log           uint64 `json:"log"`
	LogTopic      uint64 `json:"logTopic"`
	LogData       uint64 `json:"logData"`
	JumpDest      uint64 `json:"jumpDest"`

	Create          uint64 `json:"create"`
	CreateData      uint64 `json:"createData"`
	InitCodeWord    uint64 `json:"initCodeWord"`
	MaxCodeSize     uint64 `json:"maxCodeSize"`
	MaxInitCodeSize uint64 `json:"maxInitCodeSize"`

	CallValueTransfer    uint64 `json:"callValueTransfer"`
	CallNewAccount       uint64 `json:"callNewAccount"`
	CallStipend          uint64 `json:"callStipend"`
	Selfdestruct         uint64 `json:"selfdestruct"`
	CreateBySelfdestruct uint64 `json:"createBySelfdestruct"`

	WarmStorageRead   uint64 `json:"warmStorageRead"`
	ColdSload         uint64 `json:"coldSload"`
	ColdAccountAccess uint64 `json:"coldAccountAccess"`

	SstoreSet          uint64 `json:"sstoreSet"`
	SstoreReset        uint64 `json:"sstoreReset"`
	SstoreClearsRefund uint64 `json:"sstoreClearsRefund"`
	SstoreSentry       uint64 `json:"sstoreSentry"`

	Ecrecover          uint64 `json:"ecrecover"`
	Sha256Base         uint64 `json:"sha256Base"`
	Sha256Word         uint64 `json:"sha256Word"`
	Ripemd160Base      uint64 `json:"ripemd160Base"`
	Ripemd160Word      uint64 `json:"ripemd160Word"`
	IdentityBase       uint64 `json:"identityBase"`
	IdentityWord       uint64 `json:"identityWord"`
	Bn256Add           uint64 `json:"bn256Add"`
	Bn256ScalarMul     uint64 `json:"bn256ScalarMul"`
	Bn256PairingBase   uint64 `json:"bn256PairingBase"`
	Bn256PairingPoint  uint64 `json:"bn256PairingPoint"`
	ModExpQuadCoeffDiv uint64 `json:"modExpQuadCoeffDiv"`
	ModExpMin          uint64 `json:"modExpMin"`
	Blake2FRound       uint64 `json:"blake2FRound"`
	CallCreateDepth    uint64 `json:"callCreateDepth"`
}

// DefaultGasTable is the Shanghai schedule (EIP-2929 access costs, EIP-3529
// refunds, EIP-3860 initcode metering).
func DefaultGasTable() GasTable {
	return GasTable{
		Keccak256:            params.Keccak256Gas,
		Keccak256Word:        params.Keccak256WordGas,
		Copy:                 params.CopyGas,
		Memory:               params.MemoryGas,
		QuadCoeffDiv:         params.QuadCoeffDiv,
		Exp:                  params.ExpGas,
		ExpByte:              params.ExpByteEIP158,
		Log:                  params.LogGas,
		LogTopic:             params.LogTopicGas,
		LogData:              params.LogDataGas,
		JumpDest:             params.JumpdestGas,
		Create:               params.CreateGas,
		CreateData:           params.CreateDataGas,
		InitCodeWord:         params.InitCodeWordGas,
		MaxCodeSize:          params.MaxCodeSize,
		MaxInitCodeSize:      params.MaxInitCodeSize,
		CallValueTransfer:    params.CallValueTransferGas,
		CallNewAccount:       params.CallNewAccountGas,
		CallStipend:          params.CallStipend,
		Selfdestruct:         params.SelfdestructGasEIP150,
		CreateBySelfdestruct: params.CreateBySelfdestructGas,
		WarmStorageRead:      params.WarmStorageReadCostEIP2929,
		ColdSload:            params.ColdSloadCostEIP2929,
		ColdAccountAccess:    params.ColdAccountAccessCostEIP2929,
		SstoreSet:            params.SstoreSetGasEIP2200,
		SstoreReset:          params.SstoreResetGasEIP2200,
		SstoreClearsRefund:   params.SstoreClearsScheduleRefundEIP3529,
		SstoreSentry:         params.SstoreSentryGasEIP2200,
		Ecrecover:            params.EcrecoverGas,
		Sha256Base:           params.Sha256BaseGas,
		Sha256Word:           params.Sha256PerWordGas,
		Ripemd160Base:        params.Ripemd160BaseGas,
		Ripemd160Word:        params.Ripemd160PerWordGas,
		IdentityBase:         params.IdentityBaseGas,
		IdentityWord:         params.IdentityPerWordGas,
		Bn256Add:             params.Bn256AddGasIstanbul,
		Bn256ScalarMul:       params.Bn256ScalarMulGasIstanbul,
		Bn256PairingBase:     params.Bn256PairingBaseGasIstanbul,
		Bn256PairingPoint:    params.Bn256PairingPerPointGasIstanbul,
		ModExpQuadCoeffDiv:   3, // EIP-2565
		ModExpMin:            200,
		Blake2FRound:         1,
		CallCreateDepth:      params.CallCreateDepth,
	}
}
