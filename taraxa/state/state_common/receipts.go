package state_common

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// receipt_rlp is the part of a receipt covered by the receipts root.
type receipt_rlp struct {
	Status            uint8
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []*types.Log
	GasUsed           uint64
}

func ReceiptKey(idx TxIndex) *common.Hash {
	enc, _ := rlp.EncodeToBytes(uint64(idx))
	return keccak256.Hash(enc)
}

func (self *Receipt) Encode() []byte {
	logs := self.Logs
	if logs == nil {
		logs = []*types.Log{}
	}
	enc, err := rlp.EncodeToBytes(&receipt_rlp{uint8(self.Status), self.CumulativeGasUsed, self.Bloom, logs, self.GasUsed})
	if err != nil {
		panic(err)
	}
	return enc
}

func DecodeReceipt(enc []byte, idx TxIndex) (*Receipt, error) {
	var dec receipt_rlp
	if err := rlp.DecodeBytes(enc, &dec); err != nil {
		return nil, err
	}
	for _, l := range dec.Logs {
		l.TxIndex = uint(idx)
	}
	return &Receipt{
		Status:            ReceiptStatus(dec.Status),
		GasUsed:           dec.GasUsed,
		CumulativeGasUsed: dec.CumulativeGasUsed,
		Logs:              dec.Logs,
		Bloom:             dec.Bloom,
		TxIndex:           idx,
	}, nil
}

// receipt_meta holds what a receipt carries outside the receipts root.
type receipt_meta struct {
	TxIndex         TxIndex
	TxHash          common.Hash
	ContractAddress []byte
}

type receipts_meta struct {
	BlockNum BlockNum
	Receipts []receipt_meta
}

const ErrReceiptsMetaMismatch = util.ErrorString("receipt metadata does not match the receipts trie")

var receipts_meta_prefix = []byte("receipts_meta")

// ReceiptsMetaKey is where the metadata of the receipts under receipts_root
// lives in the meta column.
func ReceiptsMetaKey(receipts_root *common.Hash) *common.Hash {
	return keccak256.Hash(receipts_meta_prefix, receipts_root[:])
}

func EncodeReceiptsMeta(blk BlockNum, receipts []*Receipt) []byte {
	meta := receipts_meta{BlockNum: blk, Receipts: make([]receipt_meta, len(receipts))}
	for i, r := range receipts {
		meta.Receipts[i] = receipt_meta{TxIndex: r.TxIndex, TxHash: r.TxHash}
		if r.ContractAddress != nil {
			meta.Receipts[i].ContractAddress = r.ContractAddress.Bytes()
		}
	}
	enc, err := rlp.EncodeToBytes(&meta)
	util.PanicIfNotNil(err)
	return enc
}

// RestoreReceiptsMeta puts the decoded metadata back into receipts read from
// the receipts trie, in trie order.
func RestoreReceiptsMeta(enc []byte, receipts []*Receipt) error {
	var meta receipts_meta
	if err := rlp.DecodeBytes(enc, &meta); err != nil {
		return errors.Wrap(err, "decode receipt metadata")
	}
	if len(meta.Receipts) != len(receipts) {
		return errors.Wrapf(ErrReceiptsMetaMismatch, "%d entries for %d receipts", len(meta.Receipts), len(receipts))
	}
	for i, r := range receipts {
		m := &meta.Receipts[i]
		r.TxIndex, r.TxHash = m.TxIndex, m.TxHash
		if len(m.ContractAddress) != 0 {
			addr := common.BytesToAddress(m.ContractAddress)
			r.ContractAddress = &addr
		}
		for _, l := range r.Logs {
			l.BlockNumber, l.TxHash, l.TxIndex = meta.BlockNum, m.TxHash, uint(m.TxIndex)
		}
	}
	return nil
}
