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

// Package hashset implements HashSet and OrderedHashSet, the statically
// typed facades over hashtable.Table described in spec.md §4.6. Like
// container/vector.TypedVector, both draw their storage from a caller-
// supplied *mem.Allocator rather than a hidden global one.
package hashset

import (
	"unsafe"

	"github.com/spaolacci/murmur3"

	"github.com/erigontech/memblock/block"
	"github.com/erigontech/memblock/hashtable"
	"github.com/erigontech/memblock/mem"
)

func defaultHash[T comparable](k T) uint64 {
	h, _ := murmur3.Sum128(unsafe.Slice((*byte)(unsafe.Pointer(&k)), unsafe.Sizeof(k)))
	return h
}

func defaultEq[T comparable](a, b T) bool { return a == b }

// HashSet is an unordered set of comparable keys backed by a Robin-Hood
// open-addressed table whose storage is a Block drawing from alloc.
type HashSet[T comparable] struct {
	t *hashtable.Table[T, struct{}]
}

// New returns an empty HashSet drawing storage from alloc.
func New[T comparable](alloc *mem.Allocator) (*HashSet[T], error) {
	t, err := hashtable.New[T, struct{}](alloc, defaultHash[T], defaultEq[T])
	if err != nil {
		return nil, err
	}
	return &HashSet[T]{t: t}, nil
}

// Block exposes the underlying key storage, for interop with code that
// operates on Block directly (clone, compare, hash, iterate).
func (s *HashSet[T]) Block() *block.Block { return s.t.KeyBlock() }

// Insert adds k, reporting whether it was newly inserted.
func (s *HashSet[T]) Insert(k T) (bool, error) {
	if s.Contains(k) {
		return false, nil
	}
	if err := s.t.Insert(k, struct{}{}); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether k is present.
func (s *HashSet[T]) Contains(k T) bool {
	_, ok := s.t.Lookup(k)
	return ok
}

// Remove deletes k, reporting whether it was present.
func (s *HashSet[T]) Remove(k T) bool { return s.t.Erase(k) }

// Len returns the number of elements.
func (s *HashSet[T]) Len() int { return s.t.Len() }

// ForEach visits every element until fn returns false.
func (s *HashSet[T]) ForEach(fn func(T) bool) {
	s.t.ForEach(func(k T, _ struct{}) bool { return fn(k) })
}

// Compact shrinks the table's reserved capacity down to what Len()
// currently needs, analogous to Langulus/Anyness's BlockSet::Compact.
func (s *HashSet[T]) Compact() error { return s.t.Compact() }

// Merge inserts every element of other into s, analogous to
// Langulus/Anyness's BlockSet::Merge.
func (s *HashSet[T]) Merge(other *HashSet[T]) error {
	var ferr error
	other.ForEach(func(k T) bool {
		if _, err := s.Insert(k); err != nil {
			ferr = err
			return false
		}
		return true
	})
	return ferr
}

// OrderedHashSet is a HashSet that additionally remembers insertion order.
type OrderedHashSet[T comparable] struct {
	s     *HashSet[T]
	order *hashtable.OrderList[T]
}

// NewOrdered returns an empty OrderedHashSet drawing storage from alloc.
func NewOrdered[T comparable](alloc *mem.Allocator) (*OrderedHashSet[T], error) {
	s, err := New[T](alloc)
	if err != nil {
		return nil, err
	}
	return &OrderedHashSet[T]{s: s, order: hashtable.NewOrderList[T]()}, nil
}

// Block exposes the underlying key storage, for interop with code that
// operates on Block directly.
func (s *OrderedHashSet[T]) Block() *block.Block { return s.s.Block() }

// Insert adds k, reporting whether it was newly inserted.
func (s *OrderedHashSet[T]) Insert(k T) (bool, error) {
	inserted, err := s.s.Insert(k)
	if err != nil || !inserted {
		return false, err
	}
	s.order.Append(k)
	return true, nil
}

// Contains reports whether k is present.
func (s *OrderedHashSet[T]) Contains(k T) bool { return s.s.Contains(k) }

// Remove deletes k, reporting whether it was present.
func (s *OrderedHashSet[T]) Remove(k T) bool {
	if !s.s.Remove(k) {
		return false
	}
	s.order.Remove(k)
	return true
}

// Len returns the number of elements.
func (s *OrderedHashSet[T]) Len() int { return s.s.Len() }

// ForEach visits elements in insertion order until fn returns false.
func (s *OrderedHashSet[T]) ForEach(fn func(T) bool) { s.order.ForEach(fn) }
