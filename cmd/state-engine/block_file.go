package main

import (
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/core/vm"
	"github.com/Taraxa-project/taraxa-state/taraxa/state"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// block_file is a finalized block as handed over by consensus. Transactions
// come either signed (raw) or with the sender already recovered.
type block_file struct {
	Number       uint64          `json:"number"`
	Coinbase     common.Address  `json:"coinbase"`
	Time         uint64          `json:"timestamp"`
	GasLimit     uint64          `json:"gasLimit"`
	BaseFee      *uint256.Int    `json:"baseFee,omitempty"`
	PrevRandao   common.Hash     `json:"prevRandao"`
	Raw          []hexutil.Bytes `json:"raw,omitempty"`
	Transactions []block_tx      `json:"transactions,omitempty"`
}

type block_tx struct {
	Hash                 *common.Hash     `json:"hash,omitempty"`
	From                 common.Address   `json:"from"`
	To                   *common.Address  `json:"to,omitempty"`
	Nonce                uint64           `json:"nonce"`
	Gas                  uint64           `json:"gas"`
	GasPrice             *uint256.Int     `json:"gasPrice,omitempty"`
	MaxFeePerGas         *uint256.Int     `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *uint256.Int     `json:"maxPriorityFeePerGas,omitempty"`
	Value                *uint256.Int     `json:"value,omitempty"`
	Input                hexutil.Bytes    `json:"input,omitempty"`
	AccessList           types.AccessList `json:"accessList,omitempty"`
}

func read_block_file(path string) (*block_file, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read block")
	}
	ret := new(block_file)
	if err = json.Unmarshal(enc, ret); err != nil {
		return nil, errors.Wrapf(err, "parse block %s", path)
	}
	if len(ret.Raw) != 0 && len(ret.Transactions) != 0 {
		return nil, errors.Errorf("block %s has both raw and decoded transactions", path)
	}
	return ret, nil
}

// block_hash stands in for the hashes of past blocks, which the engine does
// not keep.
func block_hash(num uint64) common.Hash {
	return keccak256.HashAndReturnByValue(uint256.NewInt(num).PaddedBytes(32))
}

func (self *block_file) context() *vm.BlockContext {
	return &vm.BlockContext{
		Number:     self.Number,
		Coinbase:   self.Coinbase,
		Time:       self.Time,
		GasLimit:   self.GasLimit,
		BaseFee:    self.BaseFee,
		PrevRandao: self.PrevRandao,
		GetHash:    block_hash,
	}
}

func (self *block_tx) convert() *state_common.Transaction {
	ret := &state_common.Transaction{
		From:       self.From,
		To:         self.To,
		Nonce:      self.Nonce,
		Gas:        self.Gas,
		GasPrice:   self.GasPrice,
		GasFeeCap:  self.MaxFeePerGas,
		GasTipCap:  self.MaxPriorityFeePerGas,
		Value:      self.Value,
		Data:       self.Input,
		AccessList: self.AccessList,
	}
	if self.Hash != nil {
		ret.Hash = *self.Hash
	} else {
		enc, _ := json.Marshal(self)
		ret.Hash = keccak256.HashAndReturnByValue(enc)
	}
	return ret
}

func (self *block_file) transactions(api *state.API) ([]*state_common.Transaction, error) {
	if len(self.Raw) != 0 {
		raw := make([][]byte, len(self.Raw))
		for i := range self.Raw {
			raw[i] = self.Raw[i]
		}
		return api.DecodeTransactions(raw)
	}
	ret := make([]*state_common.Transaction, len(self.Transactions))
	for i := range self.Transactions {
		ret[i] = self.Transactions[i].convert()
	}
	return ret, nil
}
