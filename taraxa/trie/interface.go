package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Input resolves committed nodes by digest. An absent node is reported as
// (nil, nil).
type Input interface {
	GetNode(node_hash *common.Hash) ([]byte, error)
}

// Output receives every node produced by a commit. The bytes are owned by the
// callee after the call.
type Output interface {
	PutNode(node_hash *common.Hash, enc []byte)
}

type MissingNodeError struct {
	NodeHash common.Hash
	Path     []byte
}

func (self *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (path %x)", self.NodeHash, self.Path)
}

// fault carries an Input failure out of the recursive descent.
type fault struct{ err error }

func fail(err error) {
	panic(fault{err})
}

func recover_fault(err_out *error) {
	if r := recover(); r != nil {
		f, ok := r.(fault)
		if !ok {
			panic(r)
		}
		*err_out = f.err
	}
}

func resolve(in Input, hash *node_hash, path []byte) node {
	enc, err := in.GetNode(hash.common_hash())
	if err != nil {
		fail(err)
	}
	if len(enc) == 0 {
		fail(&MissingNodeError{NodeHash: *hash.common_hash(), Path: common.CopyBytes(path)})
	}
	n, err := dec_node(hash, enc)
	if err != nil {
		fail(errors.Wrapf(err, "decoding node %x", *hash))
	}
	return n
}
