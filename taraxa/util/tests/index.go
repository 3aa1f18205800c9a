package tests

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taraxa-project/taraxa-state/taraxa/util/asserts"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/files"
)

type TestCtx struct {
	*testing.T
	Assert   *assert.Assertions
	Require  *require.Assertions
	data_dir string
}

func NewTestCtx(t *testing.T) (ret TestCtx) {
	ret.T = t
	ret.Assert = assert.New(t)
	ret.Require = require.New(t)
	return
}

func (self *TestCtx) Close() {
	if len(self.data_dir) != 0 {
		files.RemoveAll(self.data_dir)
	}
}

// DataDir returns a clean directory private to the test, created on first use.
func (self *TestCtx) DataDir() string {
	if len(self.data_dir) != 0 {
		return self.data_dir
	}
	dir, err := os.MkdirTemp("", "taraxa_state_test_")
	self.Require.NoError(err)
	self.data_dir = dir
	return self.data_dir
}

// Dump pretty-prints values into the test log, useful on assertion failures.
func (self *TestCtx) Dump(vals ...interface{}) {
	self.Log(spew.Sdump(vals...))
}

// Addr builds a test address out of i. The leading marker byte keeps it clear of
// the precompiled contracts at 0x01..0x09.
func Addr(i uint64) (ret common.Address) {
	asserts.Holds(i > 0)
	ret[0] = addr_marker
	binary.BigEndian.PutUint64(ret[common.AddressLength-8:], i)
	return
}

const addr_marker = 0xaa

func AddrP(i uint64) *common.Address {
	ret := Addr(i)
	return &ret
}

func Hash(i uint64) (ret common.Hash) {
	binary.BigEndian.PutUint64(ret[common.HashLength-8:], i)
	return
}

func Noop(...interface{}) {}
