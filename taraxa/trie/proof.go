package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

const ErrProofMissingNode = util.ErrorString("proof is missing a node on the path")

// Prove collects the encodings of the stored nodes on the path from root to key,
// root first. The result proves either the value at key or its absence.
func Prove(in Input, root *common.Hash, key *common.Hash) (proof [][]byte, err error) {
	if IsEmptyRoot(root) {
		return nil, nil
	}
	defer recover_fault(&err)
	var kbuf hex_key
	keybytes_to_hex(key[:], kbuf[:])
	want, pos := (*node_hash)(root), 0
	for want != nil {
		enc, err := in.GetNode(want.common_hash())
		if err != nil {
			return nil, err
		}
		if len(enc) == 0 {
			return nil, &MissingNodeError{NodeHash: *want.common_hash(), Path: common.CopyBytes(kbuf[:pos])}
		}
		n, err := dec_node(want, enc)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding node %x", *want)
		}
		proof = append(proof, common.CopyBytes(enc))
		want, _, pos = descend(n, kbuf[:], pos)
	}
	return
}

// VerifyProof checks proof against root and returns the proven value, or nil
// when the proof shows that key is absent. Nodes not on the path are ignored.
func VerifyProof(root *common.Hash, key *common.Hash, proof [][]byte) ([]byte, error) {
	if IsEmptyRoot(root) {
		return nil, nil
	}
	by_hash := make(map[common.Hash][]byte, len(proof))
	for _, enc := range proof {
		by_hash[*keccak256.Hash(enc)] = enc
	}
	var kbuf hex_key
	keybytes_to_hex(key[:], kbuf[:])
	want, pos := (*node_hash)(root), 0
	for depth := 0; depth <= HexKeyLen; depth++ {
		enc, present := by_hash[*want.common_hash()]
		if !present {
			return nil, errors.Wrapf(ErrProofMissingNode, "%x", *want)
		}
		n, err := dec_node(want, enc)
		if err != nil {
			return nil, errors.Wrapf(err, "bad proof node %x", *want)
		}
		var val value_node
		if want, val, pos = descend(n, kbuf[:], pos); want == nil {
			return common.CopyBytes(val), nil
		}
	}
	return nil, errors.New("proof path is too long")
}

// VerifyProofValue tells whether proof shows that key maps to value under root.
func VerifyProofValue(root *common.Hash, key *common.Hash, value []byte, proof [][]byte) bool {
	proven, err := VerifyProof(root, key, proof)
	return err == nil && proven != nil && bytes.Equal(proven, value)
}

// descend walks n and the nodes embedded into it along key. It stops at the
// first digest reference, returning it, or at the end of the path, returning
// the value found there if any.
func descend(n node, key []byte, pos int) (*node_hash, value_node, int) {
	for {
		switch nn := n.(type) {
		case *short_node:
			if len(key)-pos < len(nn.key_part) || !bytes.Equal(nn.key_part, key[pos:pos+len(nn.key_part)]) {
				return nil, nil, pos
			}
			n, pos = nn.val, pos+len(nn.key_part)
		case *full_node:
			if pos >= len(key) || key[pos] >= full_node_child_cnt {
				return nil, nil, pos
			}
			n, pos = nn.children[key[pos]], pos+1
		case *node_hash:
			return nn, nil, pos
		case value_node:
			if pos != len(key) {
				return nil, nil, pos
			}
			return nil, nn, pos
		default:
			return nil, nil, pos
		}
	}
}
