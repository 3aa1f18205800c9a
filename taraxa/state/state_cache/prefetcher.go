package state_cache

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panjf2000/ants/v2"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// Prefetcher loads the trie paths a block is going to touch into the node
// cache ahead of execution. It only ever reads.
type Prefetcher struct {
	caches *Caches
	pool   *ants.Pool
}

func NewPrefetcher(caches *Caches, workers int) (*Prefetcher, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Prefetcher{caches, pool}, nil
}

func (self *Prefetcher) Close() {
	self.pool.Release()
}

type PrefetchTarget struct {
	Addr  common.Address
	Slots []common.Hash
}

type PrefetchTask struct {
	wg sync.WaitGroup
}

// Wait blocks until every prefetch of the task is done. The reader passed to
// Prefetch must stay valid until then.
func (self *PrefetchTask) Wait() {
	self.wg.Wait()
}

func (self *Prefetcher) Prefetch(r state_db.Reader, state_root common.Hash, targets []PrefetchTarget) *PrefetchTask {
	task := new(PrefetchTask)
	if state_common.IsEmptyStateRoot(&state_root) {
		return task
	}
	acc_in := self.caches.TrieInput(r, state_db.COL_acc_trie_node)
	storage_in := self.caches.TrieInput(r, state_db.COL_storage_trie_node)
	for i := range targets {
		target := &targets[i]
		task.wg.Add(1)
		if err := self.pool.Submit(func() {
			defer task.wg.Done()
			enc, err := trie.Get(acc_in, &state_root, keccak256.Hash(target.Addr[:]))
			if err != nil || enc == nil {
				return
			}
			acc, err := state_common.DecodeAccount(enc)
			if err != nil {
				return
			}
			for j := range target.Slots {
				if _, err := trie.Get(storage_in, &acc.StorageRoot, keccak256.Hash(target.Slots[j][:])); err != nil {
					log.Debug("Prefetch stopped", "addr", target.Addr, "err", err)
					return
				}
			}
		}); err != nil {
			task.wg.Done()
		}
	}
	return task
}
