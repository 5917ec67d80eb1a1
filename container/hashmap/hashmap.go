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

// Package hashmap implements HashMap and OrderedHashMap, the statically
// typed key/value facades over hashtable.Table described in spec.md §4.6.
// Like container/vector.TypedVector, both draw their storage from a
// caller-supplied *mem.Allocator rather than a hidden global one.
package hashmap

import (
	"unsafe"

	"github.com/spaolacci/murmur3"

	"github.com/erigontech/memblock/block"
	"github.com/erigontech/memblock/hashtable"
	"github.com/erigontech/memblock/mem"
)

func defaultHash[K comparable](k K) uint64 {
	h, _ := murmur3.Sum128(unsafe.Slice((*byte)(unsafe.Pointer(&k)), unsafe.Sizeof(k)))
	return h
}

func defaultEq[K comparable](a, b K) bool { return a == b }

// HashMap is an unordered key/value map backed by a Robin-Hood
// open-addressed table whose key and value storage are Blocks drawing
// from alloc.
type HashMap[K comparable, V any] struct {
	t *hashtable.Table[K, V]
}

// New returns an empty HashMap drawing storage from alloc.
func New[K comparable, V any](alloc *mem.Allocator) (*HashMap[K, V], error) {
	t, err := hashtable.New[K, V](alloc, defaultHash[K], defaultEq[K])
	if err != nil {
		return nil, err
	}
	return &HashMap[K, V]{t: t}, nil
}

// KeyBlock and ValueBlock expose the underlying storage, for interop with
// code that operates on Block directly (clone, compare, hash, iterate).
func (m *HashMap[K, V]) KeyBlock() *block.Block   { return m.t.KeyBlock() }
func (m *HashMap[K, V]) ValueBlock() *block.Block { return m.t.ValueBlock() }

// Set inserts or overwrites k's value.
func (m *HashMap[K, V]) Set(k K, v V) error { return m.t.Insert(k, v) }

// Get returns k's value and whether it was present.
func (m *HashMap[K, V]) Get(k K) (V, bool) { return m.t.Lookup(k) }

// Delete removes k, reporting whether it was present.
func (m *HashMap[K, V]) Delete(k K) bool { return m.t.Erase(k) }

// Len returns the number of entries.
func (m *HashMap[K, V]) Len() int { return m.t.Len() }

// ForEach visits every entry until fn returns false.
func (m *HashMap[K, V]) ForEach(fn func(K, V) bool) { m.t.ForEach(fn) }

// Compact shrinks the table's reserved capacity down to what Len()
// currently needs, analogous to Langulus/Anyness's BlockSet::Compact.
func (m *HashMap[K, V]) Compact() error { return m.t.Compact() }

// Merge inserts or overwrites every entry of other into m, analogous to
// Langulus/Anyness's BlockSet::Merge.
func (m *HashMap[K, V]) Merge(other *HashMap[K, V]) error {
	var ferr error
	other.ForEach(func(k K, v V) bool {
		if err := m.Set(k, v); err != nil {
			ferr = err
			return false
		}
		return true
	})
	return ferr
}

// OrderedHashMap is a HashMap that additionally remembers insertion order.
type OrderedHashMap[K comparable, V any] struct {
	m     *HashMap[K, V]
	order *hashtable.OrderList[K]
}

// NewOrdered returns an empty OrderedHashMap drawing storage from alloc.
func NewOrdered[K comparable, V any](alloc *mem.Allocator) (*OrderedHashMap[K, V], error) {
	m, err := New[K, V](alloc)
	if err != nil {
		return nil, err
	}
	return &OrderedHashMap[K, V]{m: m, order: hashtable.NewOrderList[K]()}, nil
}

// KeyBlock and ValueBlock expose the underlying storage, for interop with
// code that operates on Block directly.
func (m *OrderedHashMap[K, V]) KeyBlock() *block.Block   { return m.m.KeyBlock() }
func (m *OrderedHashMap[K, V]) ValueBlock() *block.Block { return m.m.ValueBlock() }

// Set inserts or overwrites k's value, recording insertion order for new keys.
func (m *OrderedHashMap[K, V]) Set(k K, v V) error {
	_, existed := m.m.Get(k)
	if err := m.m.Set(k, v); err != nil {
		return err
	}
	if !existed {
		m.order.Append(k)
	}
	return nil
}

// Get returns k's value and whether it was present.
func (m *OrderedHashMap[K, V]) Get(k K) (V, bool) { return m.m.Get(k) }

// Delete removes k, reporting whether it was present.
func (m *OrderedHashMap[K, V]) Delete(k K) bool {
	if !m.m.Delete(k) {
		return false
	}
	m.order.Remove(k)
	return true
}

// Len returns the number of entries.
func (m *OrderedHashMap[K, V]) Len() int { return m.m.Len() }

// ForEach visits entries in insertion order until fn returns false.
func (m *OrderedHashMap[K, V]) ForEach(fn func(K, V) bool) {
	m.order.ForEach(func(k K) bool {
		v, _ := m.m.Get(k)
		return fn(k, v)
	})
}
