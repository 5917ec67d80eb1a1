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

package hashtable

import "github.com/google/btree"

// OrderList maintains the insertion order of a Table's keys for the
// Ordered* facades (spec.md §4.6), keyed by a monotonic sequence number in
// a google/btree B-tree -- O(log n) maintenance under heavy interleaved
// insert/erase, instead of an append-only list with holes.
type OrderList[K comparable] struct {
	tree  *btree.BTreeG[seqKey[K]]
	seqOf map[K]uint64
	next  uint64
}

type seqKey[K comparable] struct {
	seq uint64
	key K
}

// NewOrderList builds an empty OrderList.
func NewOrderList[K comparable]() *OrderList[K] {
	less := func(a, b seqKey[K]) bool { return a.seq < b.seq }
	return &OrderList[K]{
		tree:  btree.NewG[seqKey[K]](32, less),
		seqOf: make(map[K]uint64),
	}
}

// Append records k as the newest entry. A no-op if k is already tracked.
func (o *OrderList[K]) Append(k K) {
	if _, ok := o.seqOf[k]; ok {
		return
	}
	s := o.next
	o.next++
	o.seqOf[k] = s
	o.tree.ReplaceOrInsert(seqKey[K]{seq: s, key: k})
}

// Remove drops k from the order list.
func (o *OrderList[K]) Remove(k K) {
	s, ok := o.seqOf[k]
	if !ok {
		return
	}
	delete(o.seqOf, k)
	o.tree.Delete(seqKey[K]{seq: s})
}

// ForEach visits keys in insertion order.
func (o *OrderList[K]) ForEach(fn func(K) bool) {
	o.tree.Ascend(func(item seqKey[K]) bool { return fn(item.key) })
}

// Len returns the number of tracked keys.
func (o *OrderList[K]) Len() int { return o.tree.Len() }
