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

	"github.com/erigontech/memblock/typedesc"
)

// deepTypeID is the stable identity minted for the synthetic "this element
// IS a Block" TypeDescriptor used by deepening (§4.4 "Type mutation") and
// by any Block whose element type is itself a Block.
const deepTypeID typedesc.ID = 0x44656570426c6b00 // "DeepBlk\0"

var deepType = &typedesc.TypeDescriptor{
	ID:      deepTypeID,
	Size:    unsafe.Sizeof(Block{}),
	Align:   unsafe.Alignof(Block{}),
	IsDeep:  true,
	DefaultCtor: func(dst unsafe.Pointer, n int) {
		for i := 0; i < n; i++ {
			*elemAt(dst, i) = Block{}
		}
	},
	Dtor: func(dst unsafe.Pointer, n int) {
		for i := 0; i < n; i++ {
			_ = elemAt(dst, i).Reset()
		}
	},
	CopyCtor: func(dst, src unsafe.Pointer, n int) {
		for i := 0; i < n; i++ {
			s := elemAt(src, i)
			d := elemAt(dst, i)
			*d = *s
			if d.entry != nil {
				d.entry.Keep(1)
			}
		}
	},
	MoveCtor: func(dst, src unsafe.Pointer, n int) {
		for i := 0; i < n; i++ {
			s := elemAt(src, i)
			*elemAt(dst, i) = *s
			*s = Block{}
		}
	},
	CompareEq: func(a, b unsafe.Pointer) bool {
		return Equal(elemAt(a, 0), elemAt(b, 0))
	},
	Hash: func(p unsafe.Pointer) uint64 {
		return Hash(elemAt(p, 0))
	},
}

func elemAt(p unsafe.Pointer, i int) *Block {
	return (*Block)(unsafe.Add(p, uintptr(i)*unsafe.Sizeof(Block{})))
}

// DeepType returns the shared TypeDescriptor for "element type is Block",
// used whenever a Block's typ names a nested container (deepening,
// block_deep iteration).
func DeepType() *typedesc.TypeDescriptor { return deepType }
