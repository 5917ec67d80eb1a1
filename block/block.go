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

// Package block implements Block, the universal type-erased container view
// every higher-level facade (vector, set, map) is built on top of. A Block
// names its element type via an externally-produced *typedesc.TypeDescriptor,
// carries a small state bitset, and draws its storage from a *mem.Allocator
// passed explicitly at construction -- there is no hidden global allocator,
// per spec.md's "pass it as an explicit context parameter" design note.
//
// Like package mem, Block is not safe for concurrent use: every mutating
// method assumes the caller (or an external lock) has exclusive access.
package block

import (
	"unsafe"

	"github.com/erigontech/memblock/mem"
	"github.com/erigontech/memblock/typedesc"
)

// State is the bitset of per-Block flags described in spec.md §3.5.
type State uint32

const (
	Phased State = 1 << iota
	Missing
	Compressed
	Encrypted
	OrBranch
	Future
	Past
	Static
	Constant
	TypeConstrained
	Sparse
	Member
)

func (s State) Has(f State) bool { return s&f != 0 }
func (s State) with(f State) State { return s | f }
func (s State) without(f State) State { return s &^ f }

// sparseCellSize is the stride of a sparse Block's storage: a {ptr, entry}
// pair, per spec.md §3.6.
var sparseCellSize = unsafe.Sizeof(sparseCell{})

// Block is the universal container view.
type Block struct {
	typ   *typedesc.TypeDescriptor
	state State

	count    int
	reserved int

	raw   unsafe.Pointer
	entry *mem.Entry

	alloc *mem.Allocator
}

// New returns an empty, untyped, owned Block drawing storage from alloc.
func New(alloc *mem.Allocator) *Block {
	return &Block{alloc: alloc}
}

// Borrowed returns a static (borrowed, read-only-capacity) Block of count 1
// viewing the element at ptr, typed typ. It owns nothing: dropping it never
// touches any refcount. This is spec.md §9's "Block::borrowed_from".
func Borrowed(alloc *mem.Allocator, typ *typedesc.TypeDescriptor, ptr unsafe.Pointer) *Block {
	return BorrowedN(alloc, typ, ptr, 1)
}

// BorrowedN is Borrowed generalized to n contiguous elements, used by typed
// facades (TypedVector and friends) to hand a Go slice to InsertBlock
// without copying it into owned storage first.
func BorrowedN(alloc *mem.Allocator, typ *typedesc.TypeDescriptor, ptr unsafe.Pointer, n int) *Block {
	return &Block{alloc: alloc, typ: typ, state: Static, count: n, reserved: n, raw: ptr}
}

// Pin sets the Block's element type. It fails with ErrTypeConstraint if the
// Block already names a different type. Typed facades call this once at
// construction with constrained=true to get spec.md §4.7's "type_constrained
// is implied" behavior.
func (b *Block) Pin(t *typedesc.TypeDescriptor, constrained bool) error {
	if b.typ != nil && !typedesc.Equal(b.typ, t) {
		return ErrTypeConstraint
	}
	b.typ = t
	if constrained {
		b.state = b.state.with(TypeConstrained)
	}
	return nil
}

// Type returns the Block's element TypeDescriptor, or nil if untyped.
func (b *Block) Type() *typedesc.TypeDescriptor { return b.typ }

// State returns the Block's current state bitset.
func (b *Block) State() State { return b.state }

// Count returns the number of initialized elements.
func (b *Block) Count() int { return b.count }

// Reserved returns the number of allocated slots.
func (b *Block) Reserved() int { return b.reserved }

// Raw returns the Block's backing pointer, or nil if unallocated.
func (b *Block) Raw() unsafe.Pointer { return b.raw }

// Entry returns the owning Entry, or nil for a static/borrowed Block.
func (b *Block) Entry() *mem.Entry { return b.entry }

// stride is the byte size of one stored slot: a sparse cell for sparse
// Blocks, the element type's size otherwise.
func (b *Block) stride() uintptr {
	if b.state.Has(Sparse) {
		return sparseCellSize
	}
	if b.typ == nil {
		return 0
	}
	return b.typ.Size
}

func (b *Block) slot(i int) unsafe.Pointer {
	return unsafe.Add(b.raw, uintptr(i)*b.stride())
}

// IsOwned reports whether the Block has authority over its storage (holds
// an Entry), as opposed to borrowing raw bytes it does not own.
func (b *Block) IsOwned() bool { return b.entry != nil }
