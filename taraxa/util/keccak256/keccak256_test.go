package keccak256

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestHashMatchesGethKeccak(t *testing.T) {
	for _, in := range [][]byte{nil, {0}, []byte("taraxa"), make([]byte, 1000)} {
		assert.Equal(t, crypto.Keccak256Hash(in), HashAndReturnByValue(in))
	}
	assert.Equal(t, crypto.Keccak256Hash([]byte("ab"), []byte("cd")), *Hash([]byte("ab"), []byte("cd")))
}

func TestPooledHasherIsReset(t *testing.T) {
	h := GetHasherFromPool()
	h.Write(1, 2, 3)
	ReturnHasherToPool(h)
	h = GetHasherFromPool()
	defer ReturnHasherToPool(h)
	assert.Equal(t, crypto.Keccak256Hash(), *h.Hash())
}
