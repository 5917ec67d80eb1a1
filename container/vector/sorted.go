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

package vector

import (
	"github.com/tidwall/btree"

	"github.com/erigontech/memblock/mem"
)

// SortedVector keeps a TypedVector's elements reachable in sorted order via
// an auxiliary tidwall/btree index over slot positions, without disturbing
// Block's plain contiguous storage (SPEC_FULL.md's SUPPLEMENTED FEATURES: the
// original carried an ordered-vector variant the distilled spec dropped).
type SortedVector[T any] struct {
	v     *TypedVector[T]
	less  func(a, b T) bool
	order *btree.BTreeG[int]
}

// NewSorted returns an empty SortedVector ordered by less.
func NewSorted[T any](alloc *mem.Allocator, less func(a, b T) bool) *SortedVector[T] {
	sv := &SortedVector[T]{v: New[T](alloc), less: less}
	sv.order = btree.NewBTreeG[int](func(a, b int) bool {
		va, _ := sv.v.Get(a)
		vb, _ := sv.v.Get(b)
		if sv.less(va, vb) {
			return true
		}
		if sv.less(vb, va) {
			return false
		}
		return a < b
	})
	return sv
}

// Len returns the number of elements.
func (sv *SortedVector[T]) Len() int { return sv.v.Len() }

// InsertSorted appends val to the backing vector and records its position in
// the ordering index.
func (sv *SortedVector[T]) InsertSorted(val T) error {
	idx := sv.v.Len()
	if err := sv.v.Push(val); err != nil {
		return err
	}
	sv.order.Set(idx)
	return nil
}

// Range visits elements in ascending order until fn returns false.
func (sv *SortedVector[T]) Range(fn func(T) bool) {
	sv.order.Scan(func(idx int) bool {
		val, ok := sv.v.Get(idx)
		if !ok {
			return true
		}
		return fn(val)
	})
}

// Block exposes the underlying TypedVector.
func (sv *SortedVector[T]) Block() *TypedVector[T] { return sv.v }
