package vm

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/bn256"
	x_blake2b "golang.org/x/crypto/blake2b"

	"github.com/Taraxa-project/taraxa-state/taraxa/util/tests"
)

func word(b ...byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func TestEcrecover(t *testing.T) {
	tc := tests.NewTestCtx(t)
	gt := DefaultGasTable()
	key, err := crypto.GenerateKey()
	tc.Require.NoError(err)
	hash := crypto.Keccak256([]byte("taraxa"))
	sig, err := crypto.Sign(hash, key)
	tc.Require.NoError(err)
	input := append(append(common.CopyBytes(hash), word(sig[64]+27)...), sig[:64]...)

	addr := precompile_addr(1)
	res := exec(new_fake_host(), &addr, input, 10_000)
	tc.Require.NoError(res.Err)
	tc.Assert.Equal(word(crypto.PubkeyToAddress(key.PublicKey).Bytes()...), res.ReturnData)
	tc.Assert.Equal(10_000-gt.Ecrecover, res.GasLeft)

	bad_v := common.CopyBytes(input)
	bad_v[63] = 29
	out, err := ecrecover{}.Run(bad_v)
	tc.Require.NoError(err)
	tc.Assert.Empty(out)
	out, err = ecrecover{}.Run(nil)
	tc.Require.NoError(err)
	tc.Assert.Empty(out)
}

func TestHashPrecompiles(t *testing.T) {
	tc := tests.NewTestCtx(t)
	gt := DefaultGasTable()
	input := bytes.Repeat([]byte{7}, 33)
	out, err := ripemd160_hash{}.Run(input)
	tc.Require.NoError(err)
	tc.Assert.Len(out, 32)
	tc.Assert.True(allZero(out[:12]))
	tc.Assert.Equal(gt.Ripemd160Base+2*gt.Ripemd160Word, ripemd160_hash{}.RequiredGas(input, &gt))

	out, err = identity{}.Run(input)
	tc.Require.NoError(err)
	tc.Assert.Equal(input, out)
	out[0] = 0
	tc.Assert.Equal(byte(7), input[0])
	tc.Assert.Equal(gt.IdentityBase+2*gt.IdentityWord, identity{}.RequiredGas(input, &gt))
}

func mod_exp_input(base, exp, mod []byte) []byte {
	ret := word(byte(len(base)))
	ret = append(ret, word(byte(len(exp)))...)
	ret = append(ret, word(byte(len(mod)))...)
	return append(append(append(ret, base...), exp...), mod...)
}

func TestModExp(t *testing.T) {
	tc := tests.NewTestCtx(t)
	gt := DefaultGasTable()

	small := mod_exp_input([]byte{3}, []byte{5}, []byte{7})
	out, err := mod_exp{}.Run(small)
	tc.Require.NoError(err)
	tc.Assert.Equal([]byte{5}, out)
	tc.Assert.Equal(gt.ModExpMin, mod_exp{}.RequiredGas(small, &gt))

	// 64 byte operands make 8 words, a full 32 byte exponent makes 255 iterations
	base, mod := bytes.Repeat([]byte{0x11}, 64), bytes.Repeat([]byte{0x7f}, 64)
	large := mod_exp_input(base, bytes.Repeat([]byte{0xff}, 32), mod)
	tc.Assert.Equal(uint64(8*8*255/3), mod_exp{}.RequiredGas(large, &gt))
	out, err = mod_exp{}.Run(large)
	tc.Require.NoError(err)
	b, e, m := new(big.Int).SetBytes(base), new(big.Int).SetBytes(bytes.Repeat([]byte{0xff}, 32)), new(big.Int).SetBytes(mod)
	tc.Assert.Equal(common.LeftPadBytes(new(big.Int).Exp(b, e, m).Bytes(), 64), out)

	out, err = mod_exp{}.Run(mod_exp_input([]byte{3}, []byte{5}, []byte{0, 0}))
	tc.Require.NoError(err)
	tc.Assert.Equal([]byte{0, 0}, out)
	out, err = mod_exp{}.Run(mod_exp_input(nil, []byte{5}, nil))
	tc.Require.NoError(err)
	tc.Assert.Empty(out)

	var huge []byte
	huge = append(huge, bytes.Repeat([]byte{0xff}, 32)...)
	huge = append(huge, word(1)...)
	huge = append(huge, word(1)...)
	tc.Assert.Equal(uint64(1<<64-1), mod_exp{}.RequiredGas(huge, &gt))
}

func g1(k int64) *bn256.G1 {
	return new(bn256.G1).ScalarBaseMult(big.NewInt(k))
}

func TestBn256(t *testing.T) {
	tc := tests.NewTestCtx(t)
	gt := DefaultGasTable()

	out, err := bn256_add{}.Run(append(g1(1).Marshal(), g1(2).Marshal()...))
	tc.Require.NoError(err)
	tc.Assert.Equal(g1(3).Marshal(), out)
	tc.Assert.Equal(gt.Bn256Add, bn256_add{}.RequiredGas(nil, &gt))
	_, err = bn256_add{}.Run(bytes.Repeat([]byte{0xff}, 128))
	tc.Assert.Error(err)

	out, err = bn256_scalar_mul{}.Run(append(g1(2).Marshal(), word(5)...))
	tc.Require.NoError(err)
	tc.Assert.Equal(g1(10).Marshal(), out)

	g2 := new(bn256.G2).ScalarBaseMult(big.NewInt(1)).Marshal()
	neg := new(bn256.G1).Neg(g1(1)).Marshal()
	balanced := append(append(append(g1(1).Marshal(), g2...), neg...), g2...)
	out, err = bn256_pairing{}.Run(balanced)
	tc.Require.NoError(err)
	tc.Assert.Equal(word(1), out)
	tc.Assert.Equal(gt.Bn256PairingBase+2*gt.Bn256PairingPoint, bn256_pairing{}.RequiredGas(balanced, &gt))

	out, err = bn256_pairing{}.Run(append(g1(1).Marshal(), g2...))
	tc.Require.NoError(err)
	tc.Assert.Equal(word(), out)
	out, err = bn256_pairing{}.Run(nil)
	tc.Require.NoError(err)
	tc.Assert.Equal(word(1), out)
	_, err = bn256_pairing{}.Run(balanced[:100])
	tc.Assert.Equal(ErrBadPairingInput, err)
}

// blake2b_abc_input is one final compression of "abc" from the 64 byte digest
// parameter block, which yields BLAKE2b-512("abc").
func blake2b_abc_input(rounds uint32) []byte {
	iv := [8]uint64{
		0x6a09e667f3bcc908, 0xbb67ae8584caa73b, 0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
		0x510e527fade682d1, 0x9b05688c2b3e6c1f, 0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
	}
	iv[0] ^= 0x01010000 | 64
	ret := make([]byte, blake2_f_size)
	binary.BigEndian.PutUint32(ret, rounds)
	for i, w := range iv {
		binary.LittleEndian.PutUint64(ret[4+i*8:], w)
	}
	copy(ret[68:], "abc")
	binary.LittleEndian.PutUint64(ret[196:], 3)
	ret[212] = 1
	return ret
}

func TestBlake2F(t *testing.T) {
	tc := tests.NewTestCtx(t)
	gt := DefaultGasTable()
	input := blake2b_abc_input(12)
	out, err := blake2_f{}.Run(input)
	tc.Require.NoError(err)
	expected := x_blake2b.Sum512([]byte("abc"))
	tc.Assert.Equal(expected[:], out)
	tc.Assert.Equal(12*gt.Blake2FRound, blake2_f{}.RequiredGas(input, &gt))

	_, err = blake2_f{}.Run(input[:200])
	tc.Assert.Equal(ErrBlake2FInputLength, err)
	tc.Assert.Zero(blake2_f{}.RequiredGas(input[:200], &gt))
	input[212] = 2
	_, err = blake2_f{}.Run(input)
	tc.Assert.Equal(ErrBlake2FFinalFlag, err)
}
