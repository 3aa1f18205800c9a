package trie

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/bin"
)

// Writer accumulates changes over a committed trie in memory. Nodes touched by
// a write lose their memoized digest and get re-hashed by Hash or Commit.
// Not safe for concurrent use.
type Writer struct {
	root node
	kbuf hex_key
}

func (self *Writer) Init(root_hash *common.Hash) *Writer {
	self.root = nil
	if !IsEmptyRoot(root_hash) {
		h := node_hash(*root_hash)
		self.root = &h
	}
	return self
}

func (self *Writer) Get(in Input, key *common.Hash) (ret []byte, err error) {
	defer recover_fault(&err)
	keybytes_to_hex(key[:], self.kbuf[:])
	ret, self.root = get(in, self.root, self.kbuf[:], 0)
	return
}

// Put sets the value at key. An empty value deletes the key.
func (self *Writer) Put(in Input, key *common.Hash, value []byte) (err error) {
	if len(value) == 0 {
		return self.Delete(in, key)
	}
	defer recover_fault(&err)
	keybytes_to_hex(key[:], self.kbuf[:])
	self.root = self.mpt_insert(in, self.root, 0, value_node(common.CopyBytes(value)))
	return
}

// Delete removes key. Deleting an absent key is a no-op.
func (self *Writer) Delete(in Input, key *common.Hash) (err error) {
	defer recover_fault(&err)
	keybytes_to_hex(key[:], self.kbuf[:])
	defer util.Recover(func(issue util.Any) {
		if issue != mpt_del_not_found {
			panic(issue)
		}
	})
	self.root = self.mpt_del(in, self.root, 0)
	return
}

func (self *Writer) Hash() common.Hash {
	return new(hasher).hash_root(self.root)
}

// Commit hashes the pending changes, hands every new node to out and returns
// the new root.
func (self *Writer) Commit(out Output) common.Hash {
	return (&hasher{out: out, memoize: true}).hash_root(self.root)
}

func (self *Writer) mpt_insert(in Input, n node, keypos int, value value_node) node {
	switch n := n.(type) {
	case *short_node:
		matchlen := prefix_len(self.kbuf[keypos:], n.key_part)
		keypos_after_match := keypos + matchlen
		if keypos_after_match == HexKeyLen {
			if old, is := n.val.(value_node); is && string(old) == string(value) {
				return n
			}
			n.hash = nil
			n.val = value
			return n
		}
		if matchlen == len(n.key_part) {
			n.hash = nil
			n.val = self.mpt_insert(in, n.val, keypos_after_match, value)
			return n
		}
		junction := new(full_node)
		if rest := n.key_part[matchlen+1:]; len(rest) == 0 {
			junction.children[n.key_part[matchlen]] = n.val
		} else {
			junction.children[n.key_part[matchlen]] = &short_node{key_part: rest, val: n.val}
		}
		junction.children[self.kbuf[keypos_after_match]] = &short_node{
			key_part: common.CopyBytes(self.kbuf[keypos_after_match+1:]),
			val:      value,
		}
		if matchlen == 0 {
			return junction
		}
		return &short_node{key_part: common.CopyBytes(self.kbuf[keypos:keypos_after_match]), val: junction}
	case *full_node:
		n.hash = nil
		n.children[self.kbuf[keypos]] = self.mpt_insert(in, n.children[self.kbuf[keypos]], keypos+1, value)
		return n
	case *node_hash:
		return self.mpt_insert(in, resolve(in, n, self.kbuf[:keypos]), keypos, value)
	case nil:
		return &short_node{key_part: common.CopyBytes(self.kbuf[keypos:]), val: value}
	}
	panic("impossible")
}

const mpt_del_not_found = util.ErrorString("key not found")

func (self *Writer) mpt_del(in Input, n node, keypos int) node {
	switch n := n.(type) {
	case *short_node:
		matchlen := prefix_len(self.kbuf[keypos:], n.key_part)
		if matchlen != len(n.key_part) {
			panic(mpt_del_not_found)
		}
		keypos += matchlen
		if keypos == HexKeyLen {
			return nil
		}
		child := self.mpt_del(in, n.val, keypos)
		if short_n, is := child.(*short_node); is {
			return &short_node{key_part: bin.Concat(n.key_part, short_n.key_part...), val: short_n.val}
		}
		n.hash = nil
		n.val = child
		return n
	case *full_node:
		deletion_nibble := self.kbuf[keypos]
		deletion_child := self.mpt_del(in, n.children[deletion_nibble], keypos+1)
		n.hash = nil
		n.children[deletion_nibble] = deletion_child
		if deletion_child != nil {
			return n
		}
		only_child_nibble := -1
		for i, c := range n.children {
			if c == nil {
				continue
			}
			if only_child_nibble != -1 {
				return n
			}
			only_child_nibble = i
		}
		nibble := byte(only_child_nibble)
		only_child := n.children[nibble]
		if hash_n, is := only_child.(*node_hash); is {
			only_child = resolve(in, hash_n, bin.Concat(self.kbuf[:keypos], nibble))
		}
		if short_n, is := only_child.(*short_node); is {
			return &short_node{key_part: bin.Concat([]byte{nibble}, short_n.key_part...), val: short_n.val}
		}
		return &short_node{key_part: []byte{nibble}, val: only_child}
	case *node_hash:
		return self.mpt_del(in, resolve(in, n, self.kbuf[:keypos]), keypos)
	case nil:
		panic(mpt_del_not_found)
	}
	panic("impossible")
}
