package state_query

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_cache"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_db"
	"github.com/Taraxa-project/taraxa-state/taraxa/trie"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// Service answers reads and proofs against committed roots. Every call pins
// a store snapshot, so it neither waits for nor delays block execution.
type Service struct {
	db     state_db.DB
	caches *state_cache.Caches
	// max concurrent storage proofs per GetProof call
	proof_workers int
}

func (self *Service) Init(db state_db.DB, caches *state_cache.Caches, proof_workers int) *Service {
	self.db, self.caches, self.proof_workers = db, caches, max(proof_workers, 1)
	return self
}

type AccountProof struct {
	Address common.Address `json:"address"`
	// nil when the proof shows absence
	Account *state_common.Account `json:"account"`
	Proof   []hexutil.Bytes       `json:"accountProof"`
}

type StorageProof struct {
	Key   common.Hash     `json:"key"`
	Value common.Hash     `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

type Proof struct {
	StateRoot common.Hash    `json:"stateRoot"`
	Account   AccountProof   `json:"account"`
	Storage   []StorageProof `json:"storageProof"`
}

// read_err keeps a missing node, which means an unknown root, apart from
// store failures.
func read_err(err error, op string) error {
	var missing *trie.MissingNodeError
	if errors.As(err, &missing) {
		return errors.Wrap(err, op)
	}
	return state_common.NewStorageFault(err, op)
}

type reader struct {
	state_db.Reader
	caches *state_cache.Caches
	log    log.Logger
}

func (self *reader) trie_input(col state_db.Column) state_db.TrieInput {
	if self.caches == nil {
		return state_db.TrieInput{Reader: self.Reader, Col: col}
	}
	return self.caches.TrieInput(self.Reader, col)
}

func (self *Service) with_snapshot(op string, f func(*reader) error) (err error) {
	req_log := log.New("req", uuid.New().String(), "op", op)
	snap, err := self.db.Snapshot()
	if err != nil {
		req_log.Error("Snapshot failed", "err", err)
		return state_common.NewStorageFault(err, "query snapshot")
	}
	defer snap.Release()
	if err = f(&reader{snap, self.caches, req_log}); err != nil {
		req_log.Debug("Query failed", "err", err)
	}
	return
}

func (self *reader) get_account(root *common.Hash, addr *common.Address) (*state_common.Account, error) {
	enc, err := trie.Get(self.trie_input(state_db.COL_acc_trie_node), root, keccak256.Hash(addr[:]))
	if err != nil {
		return nil, read_err(err, "read account")
	}
	if enc == nil {
		return nil, nil
	}
	return state_common.DecodeAccount(enc)
}

func (self *reader) get_storage(storage_root *common.Hash, slot *common.Hash) (common.Hash, error) {
	enc, err := trie.Get(self.trie_input(state_db.COL_storage_trie_node), storage_root, keccak256.Hash(slot[:]))
	if err != nil {
		return common.Hash{}, read_err(err, "read storage")
	}
	if enc == nil {
		return common.Hash{}, nil
	}
	return state_common.DecodeStorageValue(enc)
}

// GetAccount returns the account at root, the canonical empty account if absent.
func (self *Service) GetAccount(root common.Hash, addr common.Address) (ret *state_common.Account, err error) {
	err = self.with_snapshot("account", func(r *reader) (err error) {
		if ret, err = r.get_account(&root, &addr); err == nil && ret == nil {
			ret = state_common.NewEmptyAccount()
		}
		return
	})
	return
}

func (self *Service) GetStorage(root common.Hash, addr common.Address, slot common.Hash) (ret common.Hash, err error) {
	err = self.with_snapshot("storage", func(r *reader) error {
		acc, err := r.get_account(&root, &addr)
		if err != nil || acc == nil {
			return err
		}
		ret, err = r.get_storage(&acc.StorageRoot, &slot)
		return err
	})
	return
}

func (self *Service) GetCode(code_hash common.Hash) (ret []byte, err error) {
	if code_hash == state_common.EmptyCodeHash {
		return nil, nil
	}
	err = self.with_snapshot("code", func(r *reader) (err error) {
		if self.caches != nil {
			ret, err = self.caches.GetCode(r, &code_hash)
		} else {
			ret, err = state_db.ExtendedReader{Reader: r}.GetCode(&code_hash)
		}
		return
	})
	return
}

func to_hex_bytes(proof [][]byte) []hexutil.Bytes {
	ret := make([]hexutil.Bytes, len(proof))
	for i := range proof {
		ret[i] = proof[i]
	}
	return ret
}

func from_hex_bytes(proof []hexutil.Bytes) [][]byte {
	ret := make([][]byte, len(proof))
	for i := range proof {
		ret[i] = proof[i]
	}
	return ret
}

func (self *reader) prove_account(root *common.Hash, addr *common.Address) (ret AccountProof, err error) {
	ret.Address = *addr
	proof, err := trie.Prove(self.trie_input(state_db.COL_acc_trie_node), root, keccak256.Hash(addr[:]))
	if err != nil {
		return ret, read_err(err, "prove account")
	}
	ret.Proof = to_hex_bytes(proof)
	ret.Account, err = self.get_account(root, addr)
	return
}

func (self *reader) prove_storage(storage_root *common.Hash, slot *common.Hash) (ret StorageProof, err error) {
	ret.Key = *slot
	proof, err := trie.Prove(self.trie_input(state_db.COL_storage_trie_node), storage_root, keccak256.Hash(slot[:]))
	if err != nil {
		return ret, read_err(err, "prove storage")
	}
	ret.Proof = to_hex_bytes(proof)
	ret.Value, err = self.get_storage(storage_root, slot)
	return
}

func (self *Service) GetAccountProof(root common.Hash, addr common.Address) (ret AccountProof, err error) {
	err = self.with_snapshot("account_proof", func(r *reader) (err error) {
		ret, err = r.prove_account(&root, &addr)
		return
	})
	return
}

// GetStorageProof proves a slot against the storage root of addr at root.
func (self *Service) GetStorageProof(root common.Hash, addr common.Address, slot common.Hash) (ret StorageProof, err error) {
	err = self.with_snapshot("storage_proof", func(r *reader) error {
		storage_root := trie.EmptyRoot
		acc, err := r.get_account(&root, &addr)
		if err != nil {
			return err
		}
		if acc != nil {
			storage_root = acc.StorageRoot
		}
		ret, err = r.prove_storage(&storage_root, &slot)
		return err
	})
	return
}

// GetProof assembles the account proof and the slot proofs concurrently, all
// from the same snapshot.
func (self *Service) GetProof(root common.Hash, addr common.Address, slots []common.Hash) (ret *Proof, err error) {
	err = self.with_snapshot("proof", func(r *reader) error {
		acc, err := r.get_account(&root, &addr)
		if err != nil {
			return err
		}
		storage_root := trie.EmptyRoot
		if acc != nil {
			storage_root = acc.StorageRoot
		}
		ret = &Proof{StateRoot: root, Storage: make([]StorageProof, len(slots))}
		var g errgroup.Group
		g.SetLimit(self.proof_workers + 1)
		g.Go(func() (err error) {
			ret.Account, err = r.prove_account(&root, &addr)
			return
		})
		for i := range slots {
			i := i
			g.Go(func() (err error) {
				ret.Storage[i], err = r.prove_storage(&storage_root, &slots[i])
				return
			})
		}
		return g.Wait()
	})
	if err != nil {
		ret = nil
	}
	return
}

// VerifyAccountProof checks p against root and returns the proven account,
// nil for a proven absence.
func VerifyAccountProof(root common.Hash, p *AccountProof) (*state_common.Account, error) {
	enc, err := trie.VerifyProof(&root, keccak256.Hash(p.Address[:]), from_hex_bytes(p.Proof))
	if err != nil || enc == nil {
		return nil, err
	}
	return state_common.DecodeAccount(enc)
}

func VerifyStorageProof(storage_root common.Hash, p *StorageProof) (common.Hash, error) {
	enc, err := trie.VerifyProof(&storage_root, keccak256.Hash(p.Key[:]), from_hex_bytes(p.Proof))
	if err != nil || enc == nil {
		return common.Hash{}, err
	}
	return state_common.DecodeStorageValue(enc)
}

// GetReceipts reads back the receipts committed under receipts_root, in
// transaction order.
func (self *Service) GetReceipts(receipts_root common.Hash) (ret []*state_common.Receipt, err error) {
	err = self.with_snapshot("receipts", func(r *reader) error {
		in := r.trie_input(state_db.COL_receipts_trie_node)
		var log_idx uint
		for idx := state_common.TxIndex(0); ; idx++ {
			enc, err := trie.Get(in, &receipts_root, state_common.ReceiptKey(idx))
			if err != nil {
				return read_err(err, "read receipt")
			}
			if enc == nil {
				break
			}
			receipt, err := state_common.DecodeReceipt(enc, idx)
			if err != nil {
				return err
			}
			for _, l := range receipt.Logs {
				l.Index = log_idx
				log_idx++
			}
			ret = append(ret, receipt)
		}
		if len(ret) == 0 {
			return nil
		}
		meta, err := state_db.ExtendedReader{Reader: r.Reader}.GetBytes(state_db.COL_meta, state_common.ReceiptsMetaKey(&receipts_root))
		if err != nil {
			return state_common.NewStorageFault(err, "read receipt metadata")
		}
		if meta == nil {
			r.log.Warn("No receipt metadata, transaction positions are trie positions", "root", receipts_root)
			return nil
		}
		return state_common.RestoreReceiptsMeta(meta, ret)
	})
	return
}
