// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package block

import (
	"unsafe"

	"github.com/holiman/uint256"
	"github.com/spaolacci/murmur3"
)

// hashMultiplier folds successive per-element hashes into one accumulator
// via wide multiply-add, using uint256.Int (a vetted wide integer type the
// teacher already depends on) instead of hand-rolled 128-bit arithmetic.
var hashMultiplier = uint256.NewInt(1099511628211) // FNV-1a's 64-bit prime, reused as a cheap odd multiplier

// Hash implements the hashing algorithm of spec.md §4.4.
func Hash(b *Block) uint64 {
	if b.typ == nil || b.count == 0 {
		return 0
	}
	if b.count == 1 {
		return hashElement(b, 0)
	}
	if b.typ.IsPOD && !b.state.Has(Sparse) {
		return hashBytes(b.raw, uintptr(b.count)*b.stride())
	}
	acc := new(uint256.Int)
	tmp := new(uint256.Int)
	for i := 0; i < b.count; i++ {
		h := hashElement(b, i)
		acc.Mul(acc, hashMultiplier)
		acc.Add(acc, tmp.SetUint64(h))
	}
	return acc.Uint64()
}

func hashElement(b *Block, i int) uint64 {
	if b.state.Has(Sparse) {
		c := sparseCellAt(b.raw, i)
		if c.ptr == nil || b.typ == nil || b.typ.Hash == nil {
			return 0
		}
		return b.typ.Hash(c.ptr)
	}
	p := b.slot(i)
	t := b.typ
	if t != nil && t.Resolve != nil {
		res := t.Resolve(p)
		p, t = res.Ptr, res.Type
	}
	if t == nil {
		return 0
	}
	if t.Hash != nil {
		return t.Hash(p)
	}
	if t.IsPOD {
		return hashBytes(p, t.Size)
	}
	return 0
}

func hashBytes(p unsafe.Pointer, n uintptr) uint64 {
	if n == 0 {
		return 0
	}
	h1, h2 := murmur3.Sum128(unsafe.Slice((*byte)(p), n))
	return h1 ^ h2
}
