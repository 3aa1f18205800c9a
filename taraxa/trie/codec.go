package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

type hasher struct {
	out         Output
	memoize     bool
	compact_buf hex_key_compact
}

func (self *hasher) hash_root(n node) common.Hash {
	if n == nil {
		return EmptyRoot
	}
	h, _ := self.hash(n, true)
	return *h.common_hash()
}

// hash returns the digest of n, or its raw encoding when the encoding is shorter
// than a digest and n is not forced to be hashed. Such nodes are embedded into
// their parent instead of being stored on their own.
func (self *hasher) hash(n node, force bool) (*node_hash, []byte) {
	if h := n.get_hash(); h != nil {
		return h, nil
	}
	enc := self.encode(n)
	if len(enc) < common.HashLength && !force {
		return nil, enc
	}
	h := (*node_hash)(keccak256.Hash(enc))
	if self.memoize {
		switch n := n.(type) {
		case *short_node:
			n.hash = h
		case *full_node:
			n.hash = h
		}
	}
	if self.out != nil {
		self.out.PutNode(h.common_hash(), enc)
	}
	return h, nil
}

func (self *hasher) encode(n node) []byte {
	switch n := n.(type) {
	case *short_node:
		val, is_leaf := n.val.(value_node)
		var child_hash *node_hash
		var child_raw []byte
		if !is_leaf {
			child_hash, child_raw = self.hash(n.val, false)
		}
		w := rlp.NewEncoderBuffer(nil)
		l := w.List()
		w.WriteBytes(hex_to_compact(n.key_part, &self.compact_buf))
		if is_leaf {
			w.WriteBytes(val)
		} else {
			write_ref(w, child_hash, child_raw)
		}
		w.ListEnd(l)
		return to_bytes(w)
	case *full_node:
		var hashes [full_node_child_cnt]*node_hash
		var raws [full_node_child_cnt][]byte
		for i, c := range n.children {
			if c != nil {
				hashes[i], raws[i] = self.hash(c, false)
			}
		}
		w := rlp.NewEncoderBuffer(nil)
		l := w.List()
		for i, c := range n.children {
			if c == nil {
				w.Write(rlp.EmptyString)
			} else {
				write_ref(w, hashes[i], raws[i])
			}
		}
		w.Write(rlp.EmptyString)
		w.ListEnd(l)
		return to_bytes(w)
	}
	panic(fmt.Sprintf("can't encode %T", n))
}

func write_ref(w rlp.EncoderBuffer, h *node_hash, raw []byte) {
	if h != nil {
		w.WriteBytes(h[:])
	} else {
		w.Write(raw)
	}
}

func to_bytes(w rlp.EncoderBuffer) []byte {
	ret := w.ToBytes()
	w.Flush()
	return ret
}

const errInvalidNode = util.ErrorString("invalid trie node encoding")

func dec_node(hash *node_hash, buf []byte) (node, error) {
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, err
	}
	switch c, err := rlp.CountValues(elems); {
	case err != nil:
		return nil, err
	case c == 2:
		return dec_short(hash, elems)
	case c == full_node_child_cnt+1:
		return dec_full(hash, elems)
	default:
		return nil, errors.Wrapf(errInvalidNode, "%d list elements", c)
	}
}

func dec_short(hash *node_hash, elems []byte) (node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	key := compact_to_hex(kbuf)
	if len(key) == 0 {
		return nil, errors.Wrap(errInvalidNode, "empty key part")
	}
	if has_term(key) {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, err
		}
		return &short_node{key_part: key, val: value_node(common.CopyBytes(val)), hash: hash}, nil
	}
	child, _, err := dec_ref(rest)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, errors.Wrap(errInvalidNode, "extension without child")
	}
	return &short_node{key_part: key, val: child, hash: hash}, nil
}

func dec_full(hash *node_hash, elems []byte) (node, error) {
	n := &full_node{hash: hash}
	for i := 0; i < full_node_child_cnt; i++ {
		child, rest, err := dec_ref(elems)
		if err != nil {
			return nil, err
		}
		n.children[i], elems = child, rest
	}
	if val, _, err := rlp.SplitString(elems); err != nil || len(val) != 0 {
		return nil, errors.Wrap(errInvalidNode, "branch value slot is not empty")
	}
	return n, nil
}

func dec_ref(buf []byte) (node, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, err
	}
	switch {
	case kind == rlp.List:
		if size := len(buf) - len(rest); size > common.HashLength {
			return nil, buf, errors.Wrapf(errInvalidNode, "oversized embedded node (%d bytes)", size)
		}
		n, err := dec_node(nil, buf[:len(buf)-len(rest)])
		return n, rest, err
	case kind == rlp.String && len(val) == 0:
		return nil, rest, nil
	case kind == rlp.String && len(val) == common.HashLength:
		h := node_hash(common.BytesToHash(val))
		return &h, rest, nil
	}
	return nil, nil, errors.Wrapf(errInvalidNode, "invalid child reference of %d bytes", len(val))
}
