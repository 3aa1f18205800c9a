package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Get reads the value at key from the committed trie rooted at root. An absent
// key yields nil.
func Get(in Input, root *common.Hash, key *common.Hash) (ret []byte, err error) {
	if IsEmptyRoot(root) {
		return nil, nil
	}
	defer recover_fault(&err)
	var kbuf hex_key
	keybytes_to_hex(key[:], kbuf[:])
	h := node_hash(*root)
	val, _ := get(in, &h, kbuf[:], 0)
	return val, nil
}

// get descends along key, replacing digests met on the way by the nodes they
// resolve to. The possibly replaced n is returned.
func get(in Input, n node, key []byte, pos int) (value_node, node) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case value_node:
		return n, n
	case *short_node:
		if len(key)-pos < len(n.key_part) || !bytes.Equal(n.key_part, key[pos:pos+len(n.key_part)]) {
			return nil, n
		}
		var val value_node
		val, n.val = get(in, n.val, key, pos+len(n.key_part))
		return val, n
	case *full_node:
		if pos >= len(key) || key[pos] >= full_node_child_cnt {
			return nil, n
		}
		var val value_node
		val, n.children[key[pos]] = get(in, n.children[key[pos]], key, pos+1)
		return val, n
	case *node_hash:
		return get(in, resolve(in, n, key[:pos]), key, pos)
	}
	panic("impossible")
}

// ForEach visits the entries of the committed trie rooted at root in ascending
// key order until cb returns false.
func ForEach(in Input, root *common.Hash, cb func(key *common.Hash, value []byte) bool) (err error) {
	if IsEmptyRoot(root) {
		return nil
	}
	defer recover_fault(&err)
	h := node_hash(*root)
	var path hex_key
	for_each(in, &h, path[:0], cb)
	return
}

func for_each(in Input, n node, path []byte, cb func(*common.Hash, []byte) bool) bool {
	switch n := n.(type) {
	case nil:
		return true
	case value_node:
		var key common.Hash
		hex_to_keybytes(path, key[:])
		return cb(&key, n)
	case *short_node:
		return for_each(in, n.val, append(path, n.key_part...), cb)
	case *full_node:
		for i, c := range n.children {
			if !for_each(in, c, append(path, byte(i)), cb) {
				return false
			}
		}
		return true
	case *node_hash:
		return for_each(in, resolve(in, n, path), path, cb)
	}
	panic("impossible")
}
