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
	"github.com/cornelk/hashmap"
)

// bitvec is a bit vector which maps bytes in a program.
// An unset bit means the byte is an opcode, a set bit means
// it's data (i.e. argument of PUSHxx).
type bitvec []byte

func (bits bitvec) set1(pos uint64) {
	bits[pos/8] |= 1 << (pos % 8)
}

// codeSegment checks if the position is in a code segment.
func (bits bitvec) codeSegment(pos uint64) bool {
	return (bits[pos/8] & (1 << (pos % 8))) == 0
}

// codeBitmap collects data locations in code.
func codeBitmap(code []byte) bitvec {
	// The bitmap is 4 bytes longer than necessary, in case the code
	// ends with a PUSH32, the algorithm will push zeroes onto the
	// bitvector outside the bounds of the actual code.
	bits := make(bitvec, len(code)/8+1+4)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		pc++
		if op < PUSH1 || op > PUSH32 {
			continue
		}
		for numbits := uint64(op - PUSH1 + 1); numbits > 0; numbits-- {
			bits.set1(pc)
			pc++
		}
	}
	return bits
}

const jumpdest_cache_limit = 1 << 14

// jumpdest_cache is shared by every execution of one interpreter, keyed by
// code hash.
type jumpdest_cache = hashmap.Map[string, bitvec]

func new_jumpdest_cache() *jumpdest_cache {
	return hashmap.New[string, bitvec]()
}

func (self *EVM) analyze_jumpdests(code *CodeAndHash) bitvec {
	if code.CodeHash == (CodeAndHash{}).CodeHash {
		return codeBitmap(code.Code)
	}
	key := string(code.CodeHash[:])
	if analysis, present := self.jumpdests.Get(key); present {
		return analysis
	}
	analysis := codeBitmap(code.Code)
	if self.jumpdests.Len() < jumpdest_cache_limit {
		self.jumpdests.Set(key, analysis)
	}
	return analysis
}
