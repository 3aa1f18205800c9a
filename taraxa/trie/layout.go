package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Keys are always 32 byte digests, so every leaf sits at the same depth and
// branch nodes never carry a value.
const MaxDepth = common.HashLength * 2
const HexKeyLen = MaxDepth + 1
const HexKeyCompactLen = common.HashLength + 1

type hex_key = [HexKeyLen]byte
type hex_key_compact = [HexKeyCompactLen]byte

// EmptyRoot is the root of a trie without keys. It is never stored.
var EmptyRoot = types.EmptyRootHash

func IsEmptyRoot(root *common.Hash) bool {
	return root == nil || *root == EmptyRoot || *root == (common.Hash{})
}

type node interface {
	get_hash() *node_hash
}

const full_node_child_cnt = 16

type full_node struct {
	children [full_node_child_cnt]node
	hash     *node_hash
}

func (self *full_node) get_hash() *node_hash { return self.hash }

// short_node is an extension when val is a node and a leaf when val is a
// value_node. Leaf key parts end with the terminator nibble.
type short_node struct {
	key_part []byte
	val      node
	hash     *node_hash
}

func (self *short_node) get_hash() *node_hash { return self.hash }

type node_hash common.Hash

func (self *node_hash) get_hash() *node_hash      { return self }
func (self *node_hash) common_hash() *common.Hash { return (*common.Hash)(self) }

type value_node []byte

func (self value_node) get_hash() *node_hash { return nil }
