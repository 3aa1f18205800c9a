package state_common

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	"github.com/Taraxa-project/taraxa-state/core/vm"
)

// FeeSchedule prices what a transaction pays before and after the
// interpreter runs.
type FeeSchedule struct {
	TxGas                     uint64 `json:"txGas" mapstructure:"tx_gas"`
	TxGasContractCreation     uint64 `json:"txGasContractCreation" mapstructure:"tx_gas_contract_creation"`
	TxDataZeroGas             uint64 `json:"txDataZeroGas" mapstructure:"tx_data_zero_gas"`
	TxDataNonZeroGas          uint64 `json:"txDataNonZeroGas" mapstructure:"tx_data_non_zero_gas"`
	TxAccessListAddressGas    uint64 `json:"txAccessListAddressGas" mapstructure:"tx_access_list_address_gas"`
	TxAccessListStorageKeyGas uint64 `json:"txAccessListStorageKeyGas" mapstructure:"tx_access_list_storage_key_gas"`
	InitCodeWordGas           uint64 `json:"initCodeWordGas" mapstructure:"init_code_word_gas"`
	// refund is capped at gasUsed / RefundQuotient
	RefundQuotient uint64 `json:"refundQuotient" mapstructure:"refund_quotient"`
	// share of gasUsed * effectivePrice destroyed, the rest goes to the coinbase
	BurnPercent uint64 `json:"burnPercent" mapstructure:"burn_percent"`
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		TxGas:                     params.TxGas,
		TxGasContractCreation:     params.TxGasContractCreation,
		TxDataZeroGas:             params.TxDataZeroGas,
		TxDataNonZeroGas:          params.TxDataNonZeroGasEIP2028,
		TxAccessListAddressGas:    params.TxAccessListAddressGas,
		TxAccessListStorageKeyGas: params.TxAccessListStorageKeyGas,
		InitCodeWordGas:           params.InitCodeWordGas,
		RefundQuotient:            params.RefundQuotientEIP3529,
		BurnPercent:               0,
	}
}

// IntrinsicGas is what a transaction costs before any code runs.
func (self *FeeSchedule) IntrinsicGas(data []byte, access_list types.AccessList, creation bool) (uint64, error) {
	gas := self.TxGas
	if creation {
		gas = self.TxGasContractCreation
	}
	var nz uint64
	for _, b := range data {
		if b != 0 {
			nz++
		}
	}
	overflow := false
	charge := func(n, price uint64) {
		cost, o1 := math.SafeMul(n, price)
		sum, o2 := math.SafeAdd(gas, cost)
		overflow = overflow || o1 || o2
		gas = sum
	}
	charge(nz, self.TxDataNonZeroGas)
	charge(uint64(len(data))-nz, self.TxDataZeroGas)
	if creation {
		charge((uint64(len(data))+31)/32, self.InitCodeWordGas)
	}
	charge(uint64(len(access_list)), self.TxAccessListAddressGas)
	charge(uint64(access_list.StorageKeys()), self.TxAccessListStorageKeyGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

type ExecutionConfig struct {
	ChainID uint64      `json:"chainId" mapstructure:"chain_id"`
	Fees    FeeSchedule `json:"fees" mapstructure:"fees"`
	Gas     vm.GasTable `json:"gas" mapstructure:"gas"`
}

func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{ChainID: 841, Fees: DefaultFeeSchedule(), Gas: vm.DefaultGasTable()}
}
