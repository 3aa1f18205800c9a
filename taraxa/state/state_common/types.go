package state_common

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
)

type BlockNum = uint64

// BlockNumberNIL marks a database without any committed block.
const BlockNumberNIL = ^BlockNum(0)

type TxIndex = uint32

var EmptyCodeHash = types.EmptyCodeHash

func IsEmptyStateRoot(state_root *common.Hash) bool {
	return trie.IsEmptyRoot(state_root)
}

type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

func NewEmptyAccount() *Account {
	return &Account{Balance: new(uint256.Int), StorageRoot: trie.EmptyRoot, CodeHash: EmptyCodeHash}
}

// IsEmpty tells whether the account carries nothing but storage, in which case
// it is not kept in the account trie.
func (self *Account) IsEmpty() bool {
	return self.Nonce == 0 && self.Balance.IsZero() && self.CodeHash == EmptyCodeHash
}

func (self *Account) HasCode() bool {
	return self.CodeHash != EmptyCodeHash
}

func (self *Account) Copy() *Account {
	ret := *self
	ret.Balance = new(uint256.Int).Set(self.Balance)
	return &ret
}

// Encode produces rlp([nonce, balance, storageRoot, codeHash]).
func (self *Account) Encode() []byte {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	w.WriteUint64(self.Nonce)
	w.WriteBytes(self.Balance.Bytes())
	w.WriteBytes(self.StorageRoot[:])
	w.WriteBytes(self.CodeHash[:])
	w.ListEnd(l)
	ret := w.ToBytes()
	w.Flush()
	return ret
}

func DecodeAccount(enc []byte) (ret *Account, err error) {
	elems, _, err := rlp.SplitList(enc)
	if err != nil {
		return nil, err
	}
	ret = new(Account)
	if ret.Nonce, elems, err = rlp.SplitUint64(elems); err != nil {
		return nil, err
	}
	var tmp []byte
	if tmp, elems, err = rlp.SplitString(elems); err != nil {
		return nil, err
	}
	if len(tmp) > 32 || len(tmp) != 0 && tmp[0] == 0 {
		return nil, rlp.ErrCanonInt
	}
	ret.Balance = new(uint256.Int).SetBytes(tmp)
	for _, h := range [...]*common.Hash{&ret.StorageRoot, &ret.CodeHash} {
		if tmp, elems, err = rlp.SplitString(elems); err != nil {
			return nil, err
		}
		if len(tmp) != common.HashLength {
			return nil, rlp.ErrValueTooLarge
		}
		copy(h[:], tmp)
	}
	return ret, nil
}

// EncodeStorageValue produces rlp of the value without leading zeroes.
func EncodeStorageValue(v *common.Hash) []byte {
	enc, _ := rlp.EncodeToBytes(common.TrimLeftZeroes(v[:]))
	return enc
}

func DecodeStorageValue(enc []byte) (ret common.Hash, err error) {
	content, _, err := rlp.SplitString(enc)
	if err != nil {
		return
	}
	if len(content) > common.HashLength {
		return ret, rlp.ErrValueTooLarge
	}
	ret.SetBytes(content)
	return
}
