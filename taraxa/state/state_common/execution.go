package state_common

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Transaction is a signed transaction with its sender already recovered.
// GasFeeCap set means a dynamic fee transaction, GasPrice is used otherwise.
type Transaction struct {
	Hash       common.Hash      `json:"hash"`
	From       common.Address   `json:"from"`
	To         *common.Address  `json:"to"`
	Nonce      uint64           `json:"nonce"`
	Gas        uint64           `json:"gas"`
	GasPrice   *uint256.Int     `json:"gasPrice,omitempty"`
	GasFeeCap  *uint256.Int     `json:"maxFeePerGas,omitempty"`
	GasTipCap  *uint256.Int     `json:"maxPriorityFeePerGas,omitempty"`
	Value      *uint256.Int     `json:"value"`
	Data       []byte           `json:"input"`
	AccessList types.AccessList `json:"accessList,omitempty"`
}

func (self *Transaction) IsDynamicFee() bool {
	return self.GasFeeCap != nil
}

func (self *Transaction) IsCreation() bool {
	return self.To == nil
}

// MaxPrice is the price the upfront balance check is done with.
func (self *Transaction) MaxPrice() *uint256.Int {
	if self.IsDynamicFee() {
		return self.GasFeeCap
	}
	return or_zero(self.GasPrice)
}

// EffectivePrice is min(feeCap, baseFee + tip) for dynamic fee transactions.
func (self *Transaction) EffectivePrice(base_fee *uint256.Int) *uint256.Int {
	if !self.IsDynamicFee() {
		return or_zero(self.GasPrice)
	}
	ret := new(uint256.Int).Add(or_zero(base_fee), or_zero(self.GasTipCap))
	if ret.Gt(self.GasFeeCap) {
		ret.Set(self.GasFeeCap)
	}
	return ret
}

func (self *Transaction) GetValue() *uint256.Int {
	return or_zero(self.Value)
}

func or_zero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

type ReceiptStatus uint8

const (
	ReceiptSuccess ReceiptStatus = iota
	// explicit REVERT
	ReceiptReverted
	// any other fault, all gas consumed
	ReceiptFailed
)

func (self ReceiptStatus) String() string {
	switch self {
	case ReceiptSuccess:
		return "success"
	case ReceiptReverted:
		return "reverted"
	case ReceiptFailed:
		return "failed"
	}
	return "unknown"
}

type Receipt struct {
	Status            ReceiptStatus   `json:"status"`
	GasUsed           uint64          `json:"gasUsed"`
	CumulativeGasUsed uint64          `json:"cumulativeGasUsed"`
	Logs              []*types.Log    `json:"logs"`
	Bloom             types.Bloom     `json:"logsBloom"`
	ContractAddress   *common.Address `json:"contractAddress,omitempty"`
	TxHash            common.Hash     `json:"transactionHash"`
	TxIndex           TxIndex         `json:"transactionIndex"`
	// diagnostics, not part of the receipts root
	ReturnData []byte `json:"returnData,omitempty"`
	Err        error  `json:"-"`
}

type ExecutionResult struct {
	BlockNum     BlockNum               `json:"blockNumber"`
	StateRoot    common.Hash            `json:"stateRoot"`
	ReceiptsRoot common.Hash            `json:"receiptsRoot"`
	Receipts     []*Receipt             `json:"receipts"`
	GasUsed      uint64                 `json:"gasUsed"`
	Bloom        types.Bloom            `json:"logsBloom"`
	Rejected     []*RejectedTransaction `json:"rejected"`
}

func LogsBloom(logs []*types.Log) (ret types.Bloom) {
	AccumulateBloom(&ret, logs)
	return
}

func AccumulateBloom(bloom *types.Bloom, logs []*types.Log) {
	for _, l := range logs {
		bloom.Add(l.Address[:])
		for i := range l.Topics {
			bloom.Add(l.Topics[i][:])
		}
	}
}
