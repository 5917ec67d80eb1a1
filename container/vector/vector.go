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

// Package vector implements TypedVector, a compile-time-typed facade over
// block.Block (spec.md §4.7): "fully redundant with Block typed to T plus
// compile-time generics", byte-for-byte layout compatible with a
// type-erased Block carrying the same TypeDescriptor.
package vector

import (
	"unsafe"

	"github.com/erigontech/memblock/block"
	"github.com/erigontech/memblock/mem"
)

// TypedVector is a contiguous, type-constrained array sharing Block's
// storage layout and allocator.
type TypedVector[T any] struct {
	alloc *mem.Allocator
	b     *block.Block
}

// New returns an empty TypedVector drawing storage from alloc.
func New[T any](alloc *mem.Allocator) *TypedVector[T] {
	b := block.New(alloc)
	_ = b.Pin(TypeDescriptorFor[T](), true)
	return &TypedVector[T]{alloc: alloc, b: b}
}

// Block exposes the underlying type-erased Block, for interop with code
// that operates on Block directly (clone, compare, hash, iterate).
func (v *TypedVector[T]) Block() *block.Block { return v.b }

// Len returns the number of elements.
func (v *TypedVector[T]) Len() int { return v.b.Count() }

// Cap returns the number of reserved slots.
func (v *TypedVector[T]) Cap() int { return v.b.Reserved() }

// Get returns the element at i, or false if i is out of range.
func (v *TypedVector[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= v.b.Count() {
		return zero, false
	}
	return *(*T)(unsafe.Add(v.b.Raw(), uintptr(i)*sizeOf[T]())), true
}

// Set overwrites the element at i, reporting whether i was in range.
func (v *TypedVector[T]) Set(i int, val T) bool {
	if i < 0 || i >= v.b.Count() {
		return false
	}
	*(*T)(unsafe.Add(v.b.Raw(), uintptr(i)*sizeOf[T]())) = val
	return true
}

// Push appends items, growing capacity (reusing in-place pool storage when
// possible, per spec.md §8 scenario 3).
func (v *TypedVector[T]) Push(items ...T) error {
	if len(items) == 0 {
		return nil
	}
	tmp := block.BorrowedN(v.alloc, TypeDescriptorFor[T](), unsafe.Pointer(&items[0]), len(items))
	return v.b.InsertBlock(tmp, v.b.Count(), false)
}

// RemoveAt removes n elements starting at index.
func (v *TypedVector[T]) RemoveAt(index, n int) error { return v.b.RemoveAt(index, n) }

// Clear destroys all elements; capacity is retained.
func (v *TypedVector[T]) Clear() error { return v.b.Clear() }

// Reset destroys all elements and releases storage.
func (v *TypedVector[T]) Reset() error { return v.b.Reset() }
