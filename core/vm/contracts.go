// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/blake2b"
	"github.com/ethereum/go-ethereum/crypto/bn256"
	"golang.org/x/crypto/ripemd160"

	"github.com/Taraxa-project/taraxa-state/taraxa/util"
	"github.com/Taraxa-project/taraxa-state/taraxa/util/keccak256"
)

// PrecompiledContract is a contract implemented natively. Its price depends
// only on the input and the gas table.
type PrecompiledContract interface {
	RequiredGas(input []byte, gt *GasTable) uint64
	Run(input []byte) ([]byte, error)
}

type Precompiles map[common.Address]PrecompiledContract

var DefaultPrecompiles = Precompiles{
	precompile_addr(1): ecrecover{},
	precompile_addr(2): sha256_hash{},
	precompile_addr(3): ripemd160_hash{},
	precompile_addr(4): identity{},
	precompile_addr(5): mod_exp{},
	precompile_addr(6): bn256_add{},
	precompile_addr(7): bn256_scalar_mul{},
	precompile_addr(8): bn256_pairing{},
	precompile_addr(9): blake2_f{},
}

func precompile_addr(i byte) common.Address {
	return common.BytesToAddress([]byte{i})
}

// PrecompiledAddresses lists the precompile addresses in ascending order.
// They start warm in every transaction.
func PrecompiledAddresses() []common.Address {
	ret := make([]common.Address, 0, len(DefaultPrecompiles))
	for i := byte(1); int(i) <= len(DefaultPrecompiles); i++ {
		ret = append(ret, precompile_addr(i))
	}
	return ret
}

func run_precompiled(p PrecompiledContract, gt *GasTable, input []byte, gas uint64) (ret []byte, gas_left uint64, err error) {
	gas_required := p.RequiredGas(input, gt)
	if gas < gas_required {
		return nil, 0, ErrOutOfGas
	}
	ret, err = p.Run(input)
	return ret, gas - gas_required, err
}

// word_priced prices input by its 32 byte word count on top of base.
func word_priced(input []byte, base, word uint64) uint64 {
	return base + toWordSize(uint64(len(input)))*word
}

type ecrecover struct{}

func (ecrecover) RequiredGas(input []byte, gt *GasTable) uint64 {
	return gt.Ecrecover
}

// Run takes (hash, v, r, s) as four words and returns the signer address as a
// word, or nothing when the signature does not recover.
func (ecrecover) Run(input []byte) ([]byte, error) {
	input = common.RightPadBytes(input, 128)
	if !allZero(input[32:63]) {
		return nil, nil
	}
	v := input[63] - 27
	r, s := new(big.Int).SetBytes(input[64:96]), new(big.Int).SetBytes(input[96:128])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, nil
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, input[64:128])
	sig[crypto.RecoveryIDOffset] = v
	pub, err := crypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	return common.LeftPadBytes(keccak256.Hash(pub[1:])[common.HashLength-common.AddressLength:], 32), nil
}

type sha256_hash struct{}

func (sha256_hash) RequiredGas(input []byte, gt *GasTable) uint64 {
	return word_priced(input, gt.Sha256Base, gt.Sha256Word)
}

func (sha256_hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ripemd160_hash struct{}

func (ripemd160_hash) RequiredGas(input []byte, gt *GasTable) uint64 {
	return word_priced(input, gt.Ripemd160Base, gt.Ripemd160Word)
}

func (ripemd160_hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	return common.LeftPadBytes(h.Sum(nil), 32), nil
}

type identity struct{}

func (identity) RequiredGas(input []byte, gt *GasTable) uint64 {
	return word_priced(input, gt.IdentityBase, gt.IdentityWord)
}

func (identity) Run(input []byte) ([]byte, error) {
	return common.CopyBytes(input), nil
}

// mod_exp computes base**exp % mod over big-endian operands of arbitrary
// length, each length given by a word in front of the operands.
type mod_exp struct{}

var (
	big7  = big.NewInt(7)
	big32 = big.NewInt(32)
)

func mod_exp_lengths(input []byte) (base_len, exp_len, mod_len *big.Int, operands []byte) {
	base_len = new(big.Int).SetBytes(getData(input, 0, 32))
	exp_len = new(big.Int).SetBytes(getData(input, 32, 32))
	mod_len = new(big.Int).SetBytes(getData(input, 64, 32))
	if len(input) > 96 {
		operands = input[96:]
	}
	return
}

// RequiredGas follows EIP-2565: the squared word count of the longer of base
// and mod, times the iteration count implied by the exponent, divided by
// ModExpQuadCoeffDiv and never below ModExpMin.
func (mod_exp) RequiredGas(input []byte, gt *GasTable) uint64 {
	base_len, exp_len, mod_len, operands := mod_exp_lengths(input)
	exp_head := new(big.Int)
	if big.NewInt(int64(len(operands))).Cmp(base_len) > 0 {
		head_len := uint64(32)
		if exp_len.Cmp(big32) <= 0 {
			head_len = exp_len.Uint64()
		}
		exp_head.SetBytes(getData(operands, base_len.Uint64(), head_len))
	}
	iterations := new(big.Int)
	if exp_len.Cmp(big32) > 0 {
		iterations.Lsh(iterations.Sub(exp_len, big32), 3)
	}
	if bits := exp_head.BitLen(); bits > 1 {
		iterations.Add(iterations, big.NewInt(int64(bits-1)))
	}
	if iterations.Sign() == 0 {
		iterations.SetInt64(1)
	}
	words := new(big.Int).Add(math.BigMax(base_len, mod_len), big7)
	words.Rsh(words, 3)
	gas := new(big.Int).Mul(words, words)
	gas.Mul(gas, iterations)
	if gt.ModExpQuadCoeffDiv != 0 {
		gas.Div(gas, new(big.Int).SetUint64(gt.ModExpQuadCoeffDiv))
	}
	if !gas.IsUint64() {
		return math.MaxUint64
	}
	return max(gas.Uint64(), gt.ModExpMin)
}

func (mod_exp) Run(input []byte) ([]byte, error) {
	base_len_big, exp_len_big, mod_len_big, operands := mod_exp_lengths(input)
	base_len, exp_len, mod_len := base_len_big.Uint64(), exp_len_big.Uint64(), mod_len_big.Uint64()
	if base_len == 0 && mod_len == 0 {
		return []byte{}, nil
	}
	base := new(big.Int).SetBytes(getData(operands, 0, base_len))
	exp := new(big.Int).SetBytes(getData(operands, base_len, exp_len))
	mod := new(big.Int).SetBytes(getData(operands, base_len+exp_len, mod_len))
	if mod.Sign() == 0 {
		return make([]byte, mod_len), nil
	}
	return common.LeftPadBytes(base.Exp(base, exp, mod).Bytes(), int(mod_len)), nil
}

func g1_point(enc []byte) (*bn256.G1, error) {
	ret := new(bn256.G1)
	if _, err := ret.Unmarshal(enc); err != nil {
		return nil, err
	}
	return ret, nil
}

func g2_point(enc []byte) (*bn256.G2, error) {
	ret := new(bn256.G2)
	if _, err := ret.Unmarshal(enc); err != nil {
		return nil, err
	}
	return ret, nil
}

type bn256_add struct{}

func (bn256_add) RequiredGas(input []byte, gt *GasTable) uint64 {
	return gt.Bn256Add
}

func (bn256_add) Run(input []byte) ([]byte, error) {
	a, err := g1_point(getData(input, 0, 64))
	if err != nil {
		return nil, err
	}
	b, err := g1_point(getData(input, 64, 64))
	if err != nil {
		return nil, err
	}
	return new(bn256.G1).Add(a, b).Marshal(), nil
}

type bn256_scalar_mul struct{}

func (bn256_scalar_mul) RequiredGas(input []byte, gt *GasTable) uint64 {
	return gt.Bn256ScalarMul
}

func (bn256_scalar_mul) Run(input []byte) ([]byte, error) {
	p, err := g1_point(getData(input, 0, 64))
	if err != nil {
		return nil, err
	}
	return new(bn256.G1).ScalarMult(p, new(big.Int).SetBytes(getData(input, 64, 32))).Marshal(), nil
}

const (
	bn256_pair_size = 192
	blake2_f_size   = 213
)

const (
	ErrBadPairingInput    = util.ErrorString("bad elliptic curve pairing size")
	ErrBlake2FInputLength = util.ErrorString("invalid blake2f input length")
	ErrBlake2FFinalFlag   = util.ErrorString("invalid blake2f final flag")
)

// bn256_pairing checks that the product of the pairings of (G1, G2) pairs is
// one and returns the answer as a word.
type bn256_pairing struct{}

func (bn256_pairing) RequiredGas(input []byte, gt *GasTable) uint64 {
	return gt.Bn256PairingBase + uint64(len(input)/bn256_pair_size)*gt.Bn256PairingPoint
}

func (bn256_pairing) Run(input []byte) ([]byte, error) {
	if len(input)%bn256_pair_size != 0 {
		return nil, ErrBadPairingInput
	}
	n := len(input) / bn256_pair_size
	g1s, g2s := make([]*bn256.G1, n), make([]*bn256.G2, n)
	for i := range g1s {
		pair := input[i*bn256_pair_size : (i+1)*bn256_pair_size]
		var err error
		if g1s[i], err = g1_point(pair[:64]); err != nil {
			return nil, err
		}
		if g2s[i], err = g2_point(pair[64:]); err != nil {
			return nil, err
		}
	}
	ret := make([]byte, 32)
	if bn256.PairingCheck(g1s, g2s) {
		ret[31] = 1
	}
	return ret, nil
}

// blake2_f is the BLAKE2b compression function F of EIP-152. The input is
// rounds(4, big-endian) h(64) m(128) t(16) final(1), the words little-endian.
type blake2_f struct{}

func (blake2_f) RequiredGas(input []byte, gt *GasTable) uint64 {
	// malformed input fails in Run, no need to price it
	if len(input) != blake2_f_size {
		return 0
	}
	return uint64(binary.BigEndian.Uint32(input[:4])) * gt.Blake2FRound
}

func (blake2_f) Run(input []byte) ([]byte, error) {
	if len(input) != blake2_f_size {
		return nil, ErrBlake2FInputLength
	}
	final := input[212]
	if final > 1 {
		return nil, ErrBlake2FFinalFlag
	}
	var (
		h [8]uint64
		m [16]uint64
		t [2]uint64
	)
	le_words := func(dst []uint64, src []byte) {
		for i := range dst {
			dst[i] = binary.LittleEndian.Uint64(src[i*8:])
		}
	}
	le_words(h[:], input[4:68])
	le_words(m[:], input[68:196])
	le_words(t[:], input[196:212])
	blake2b.F(&h, m, t, final == 1, binary.BigEndian.Uint32(input[:4]))
	ret := make([]byte, 64)
	for i, w := range h {
		binary.LittleEndian.PutUint64(ret[i*8:], w)
	}
	return ret, nil
}
