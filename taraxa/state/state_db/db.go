package state_db

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

//go:generate mockgen -destination=mock_state_db/mock.go -package=mock_state_db . DB,Batch,Snapshot

type Column = byte

const (
	COL_acc_trie_node Column = iota
	COL_storage_trie_node
	COL_code
	COL_receipts_trie_node
	COL_meta
	COL_COUNT
)

var ColumnNames = [COL_COUNT]string{"acc_trie_node", "storage_trie_node", "code", "receipts_trie_node", "meta"}

type Reader interface {
	// Get calls cb with the value stored at key, if any. The slice is only
	// valid inside cb.
	Get(col Column, key *common.Hash, cb func([]byte)) error
}

// Snapshot is a read view fixed at the moment it was taken.
type Snapshot interface {
	Reader
	Release()
}

// Batch collects writes for one atomic commit. Values are owned by the batch
// after Put. A batch is used by one goroutine and is done after Commit or
// Discard.
type Batch interface {
	Put(col Column, key *common.Hash, value []byte)
	// Commit makes every entry and desc durable at once.
	Commit(desc StateDescriptor) error
	Discard()
}

type DB interface {
	Reader
	Snapshot() (Snapshot, error)
	NewBatch() Batch
	GetCommittedDescriptor() (StateDescriptor, error)
	Close() error
}

type StateDescriptor struct {
	BlockNum     state_common.BlockNum
	StateRoot    common.Hash
	ReceiptsRoot common.Hash
}

func (self *StateDescriptor) IsNil() bool {
	return self.BlockNum == state_common.BlockNumberNIL
}

var descriptor_key = keccak256.HashAndReturnByValue([]byte("last_committed_descriptor"))

func DescriptorKey() *common.Hash {
	ret := descriptor_key
	return &ret
}

func EncodeDescriptor(desc *StateDescriptor) []byte {
	ret, err := rlp.EncodeToBytes(desc)
	util.PanicIfNotNil(err)
	return ret
}

// ReadDescriptor returns the descriptor of the last commit visible to r, or a
// nil descriptor for an empty database.
func ReadDescriptor(r Reader) (ret StateDescriptor, err error) {
	ret.BlockNum = state_common.BlockNumberNIL
	var dec_err error
	if err = r.Get(COL_meta, DescriptorKey(), func(v []byte) {
		dec_err = rlp.DecodeBytes(v, &ret)
	}); err == nil && dec_err != nil {
		err = state_common.NewStorageFault(dec_err, "decoding state descriptor")
	}
	return
}

// ExtendedReader adds typed accessors on top of a raw Reader.
type ExtendedReader struct {
	Reader
}

func (self ExtendedReader) GetBytes(col Column, key *common.Hash) (ret []byte, err error) {
	err = self.Get(col, key, func(v []byte) {
		ret = common.CopyBytes(v)
	})
	return
}

func (self ExtendedReader) GetCode(code_hash *common.Hash) ([]byte, error) {
	if *code_hash == state_common.EmptyCodeHash {
		return nil, nil
	}
	return self.GetBytes(COL_code, code_hash)
}
