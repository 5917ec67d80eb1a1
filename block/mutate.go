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

	"github.com/erigontech/memblock/mem"
	"github.com/erigontech/memblock/typedesc"
)

func (b *Block) constructDefault(dst unsafe.Pointer, n int) error {
	if b.state.Has(Sparse) {
		zeroRange(dst, n, sparseCellSize)
		return nil
	}
	return defaultConstructRange(b.typ, dst, n, b.stride())
}

func (b *Block) destructRange(dst unsafe.Pointer, n int, debugChecks bool) error {
	if b.state.Has(Sparse) {
		return sparseDestructRange(b.typ, b.alloc, dst, n, debugChecks)
	}
	return destructRange(b.typ, dst, n)
}

func (b *Block) copyConstruct(dst, src unsafe.Pointer, n int) error {
	if b.state.Has(Sparse) {
		sparseCopyConstructRange(dst, src, n)
		return nil
	}
	return copyConstructRange(b.typ, dst, src, n, b.stride())
}

func (b *Block) moveConstruct(dst, src unsafe.Pointer, n int) error {
	if b.state.Has(Sparse) {
		copyBytes(dst, src, n, sparseCellSize)
		return nil
	}
	return moveConstructRange(b.typ, dst, src, n, b.stride())
}

// Allocate ensures Reserved() is exactly n, growing or shrinking storage as
// needed. Elements past a shrunk capacity are destroyed first. If construct
// is set, newly exposed slots (when growing) are default-constructed.
func (b *Block) Allocate(n int, construct bool) error {
	if b.state.Has(Constant) {
		return ErrConstViolation
	}
	if n == b.reserved {
		return nil
	}
	if b.state.Has(Static) {
		return ErrStaticViolation
	}
	if b.typ != nil && b.typ.IsAbstract {
		return ErrAbstractInstantiation
	}

	if n < b.reserved && n < b.count {
		if err := b.destructRange(b.slot(n), b.count-n, true); err != nil {
			return err
		}
		b.count = n
	}

	stride := b.stride()
	newBytes := uintptr(n) * stride
	oldRaw := b.raw
	oldEntry := b.entry
	oldCount := b.count

	switch {
	case n == 0:
		if oldEntry != nil {
			if err := b.alloc.Deallocate(oldEntry); err != nil {
				return err
			}
		}
		b.raw = nil
		b.entry = nil
	case oldEntry == nil:
		e, err := b.alloc.Allocate(int(newBytes))
		if err != nil {
			return err
		}
		b.raw = e.Ptr()
		b.entry = e
	default:
		moved, err := b.alloc.Reallocate(oldEntry, int(newBytes))
		if err != nil {
			return err
		}
		if !moved {
			b.raw = oldEntry.Ptr()
		} else {
			newEntry, err := b.alloc.Allocate(int(newBytes))
			if err != nil {
				return err
			}
			if oldCount > 0 {
				if err := b.moveConstruct(newEntry.Ptr(), oldRaw, oldCount); err != nil {
					_ = b.alloc.Deallocate(newEntry)
					return err
				}
				if !b.state.Has(Sparse) && b.typ != nil && !b.typ.IsPOD && b.typ.MoveCtor != nil {
					_ = destructRange(b.typ, oldRaw, oldCount)
				}
			}
			if err := b.alloc.Deallocate(oldEntry); err != nil {
				return err
			}
			b.raw = newEntry.Ptr()
			b.entry = newEntry
		}
	}

	oldReserved := b.reserved
	b.reserved = n
	if construct && n > oldReserved {
		if err := b.constructDefault(b.slot(oldReserved), n-oldReserved); err != nil {
			return err
		}
	}
	return nil
}

// Shrink reduces Reserved() by up to k slots.
func (b *Block) Shrink(k int) error {
	n := b.reserved - k
	if n < 0 {
		n = 0
	}
	return b.Allocate(n, false)
}

// TakeAuthority copies a static (borrowed) Block's elements into a fresh
// owned allocation, so the Block owns them from then on. A no-op on an
// already-owned Block.
func (b *Block) TakeAuthority() error {
	if !b.state.Has(Static) {
		return nil
	}
	oldRaw := b.raw
	n := b.count
	stride := b.stride()
	var newEntry *mem.Entry
	if n > 0 {
		e, err := b.alloc.Allocate(int(uintptr(n) * stride))
		if err != nil {
			return err
		}
		newEntry = e
		if err := b.copyConstruct(e.Ptr(), oldRaw, n); err != nil {
			_ = b.alloc.Deallocate(e)
			return err
		}
	}
	b.state = b.state.without(Static)
	b.entry = newEntry
	if newEntry != nil {
		b.raw = newEntry.Ptr()
	} else {
		b.raw = nil
	}
	b.reserved = n
	return nil
}

// Clear destroys all initialized elements; capacity is retained.
func (b *Block) Clear() error {
	if b.state.Has(Constant) {
		return ErrConstViolation
	}
	if b.count == 0 {
		return nil
	}
	if err := b.destructRange(b.raw, b.count, true); err != nil {
		return err
	}
	b.count = 0
	return nil
}

// Reset destroys all elements, releases storage, and resets the Block to
// its default (empty, untyped) state.
func (b *Block) Reset() error {
	if b.state.Has(Constant) {
		return ErrConstViolation
	}
	if err := b.Clear(); err != nil {
		return err
	}
	if b.entry != nil && !b.state.Has(Static) {
		if err := b.alloc.Deallocate(b.entry); err != nil {
			return err
		}
	}
	b.typ = nil
	b.state = 0
	b.count = 0
	b.reserved = 0
	b.raw = nil
	b.entry = nil
	return nil
}

// admitsType implements spec.md §4.4's "Type mutation" acceptance rule.
func (b *Block) admitsType(t *typedesc.TypeDescriptor) bool {
	if b.typ == nil {
		return true
	}
	if typedesc.Equal(t, b.typ) {
		return true
	}
	if b.state.Has(Sparse) && typedesc.CastsTo(t, b.typ) {
		return true
	}
	if b.count == 0 && typedesc.CastsTo(t, b.typ) {
		return true
	}
	return false
}

// deepen wraps the Block's current contents inside a single Block-typed
// element, so a differently-typed value can be inserted alongside it
// without violating the "all sibling elements share one type" invariant.
func (b *Block) deepen() error {
	wrapped := Block{
		alloc:    b.alloc,
		typ:      b.typ,
		state:    b.state.without(TypeConstrained),
		count:    b.count,
		reserved: b.reserved,
		raw:      b.raw,
		entry:    b.entry,
	}

	b.typ = DeepType()
	b.state = b.state &^ Sparse
	b.count = 0
	b.reserved = 0
	b.raw = nil
	b.entry = nil

	if err := b.Allocate(1, false); err != nil {
		return err
	}
	*(*Block)(b.slot(0)) = wrapped
	b.count = 1
	return nil
}

// InsertBlock inserts other's elements at index, moving them out of other
// if move is set, else copy-constructing them. Mismatched types trigger
// deepening on an unconstrained Block: the prior contents are wrapped into
// one Block-typed child, and other itself becomes a second Block-typed
// child rather than having its raw elements spliced in -- a deep block's
// elements are always whole Blocks, per spec.md §3.5. A type-constrained
// Block fails outright on a mismatch.
func (b *Block) InsertBlock(other *Block, index int, move bool) error {
	if b.state.Has(Constant) {
		return ErrConstViolation
	}
	if other.count == 0 {
		return nil
	}
	if index < 0 || index > b.count {
		return ErrOutOfRange
	}

	if b.typ != nil && b.typ.IsDeep {
		return b.insertWrapped(other, index, move)
	}

	if !b.admitsType(other.typ) {
		if b.state.Has(TypeConstrained) {
			return ErrTypeMismatch
		}
		if err := b.deepen(); err != nil {
			return err
		}
		return b.insertWrapped(other, b.count, move)
	}
	if b.typ == nil {
		b.typ = other.typ
	}

	need := b.count + other.count
	if need > b.reserved {
		if err := b.Allocate(need, false); err != nil {
			return err
		}
	}

	stride := b.stride()
	if index < b.count {
		tailLen := b.count - index
		dst := unsafe.Add(b.raw, uintptr(index+other.count)*stride)
		src := b.slot(index)
		if err := b.moveConstruct(dst, src, tailLen); err != nil {
			return err
		}
	}

	dst := b.slot(index)
	var err error
	if move {
		err = b.moveConstruct(dst, other.raw, other.count)
	} else {
		err = b.copyConstruct(dst, other.raw, other.count)
	}
	if err != nil {
		return err
	}
	b.count += other.count
	if move {
		other.count = 0
	}
	return nil
}

// insertWrapped inserts other whole, as a single Block-typed child, at
// index of a deep Block b. Used both when b was already deep and when
// InsertBlock just deepened it.
func (b *Block) insertWrapped(other *Block, index int, move bool) error {
	var wrapped Block
	if move {
		wrapped = *other
		*other = Block{}
	} else {
		cloned, err := Clone(other)
		if err != nil {
			return err
		}
		wrapped = *cloned
	}

	need := b.count + 1
	if need > b.reserved {
		if err := b.Allocate(need, false); err != nil {
			return err
		}
	}
	stride := b.stride()
	if index < b.count {
		tailLen := b.count - index
		dst := unsafe.Add(b.raw, uintptr(index+1)*stride)
		src := b.slot(index)
		if err := b.moveConstruct(dst, src, tailLen); err != nil {
			return err
		}
	}
	*elemAt(b.raw, index) = wrapped
	b.count++
	return nil
}

// RemoveAt destroys [index, index+n) and closes the gap.
func (b *Block) RemoveAt(index, n int) error {
	if b.state.Has(Constant) {
		return ErrConstViolation
	}
	if index < 0 || n < 0 || index+n > b.count {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	if err := b.destructRange(b.slot(index), n, true); err != nil {
		return err
	}
	tailLen := b.count - (index + n)
	if tailLen > 0 {
		dst := b.slot(index)
		src := b.slot(index + n)
		if err := b.moveConstruct(dst, src, tailLen); err != nil {
			return err
		}
	}
	b.count -= n
	if b.count == 0 {
		return b.Allocate(0, false)
	}
	return nil
}

// RemoveValue removes the first element comparing equal to v by reflected
// equality, reporting whether one was found.
func (b *Block) RemoveValue(v unsafe.Pointer) (bool, error) {
	if b.typ == nil || b.typ.CompareEq == nil {
		return false, ErrNoCompare
	}
	for i := 0; i < b.count; i++ {
		if b.typ.CompareEq(b.slot(i), v) {
			return true, b.RemoveAt(i, 1)
		}
	}
	return false, nil
}

// Trim removes the tail past k.
func (b *Block) Trim(k int) error {
	if k >= b.count {
		return nil
	}
	return b.RemoveAt(k, b.count-k)
}
