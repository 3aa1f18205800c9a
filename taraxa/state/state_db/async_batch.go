package state_db

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/asserts"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/goroutines"
)

// RawBatch is the backend specific part of a batch. It is only touched from
// the batch writer goroutine.
type RawBatch interface {
	Put(col Column, key *common.Hash, value []byte)
	Write() error
	Close()
}

// AsyncBatch builds a RawBatch on a background goroutine so that the caller
// only waits for it on Commit.
type AsyncBatch struct {
	raw           RawBatch
	writer_thread goroutines.SingleThreadExecutor
	done          bool
}

func NewAsyncBatch(raw RawBatch) *AsyncBatch {
	ret := &AsyncBatch{raw: raw}
	ret.writer_thread.Init(1024)
	return ret
}

func (self *AsyncBatch) Put(col Column, key *common.Hash, value []byte) {
	asserts.Holds(!self.done)
	k := *key
	self.writer_thread.Submit(func() {
		self.raw.Put(col, &k, value)
	})
}

func (self *AsyncBatch) Commit(desc StateDescriptor) (err error) {
	asserts.Holds(!self.done)
	self.done = true
	enc := EncodeDescriptor(&desc)
	self.writer_thread.Submit(func() {
		self.raw.Put(COL_meta, DescriptorKey(), enc)
		err = self.raw.Write()
	})
	self.writer_thread.JoinAndClose()
	self.raw.Close()
	return state_common.NewStorageFault(err, "batch commit")
}

func (self *AsyncBatch) Discard() {
	if self.done {
		return
	}
	self.done = true
	self.writer_thread.JoinAndClose()
	self.raw.Close()
}
