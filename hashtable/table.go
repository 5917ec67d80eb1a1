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

// Package hashtable implements the Robin-Hood open-addressed core of
// spec.md §4.6. Keys and values are stored as two parallel Blocks sharing
// the same reserved slot count and drawing from the same *mem.Allocator a
// caller supplies, per spec.md §1 scope item 5 ("share its allocator") and
// §4.6 ("stored as two parallel Blocks sharing the same reserved") -- the
// statically-typed facades built on top of this table (container/hashset,
// container/hashmap) know their key and value types at compile time, so
// this core mints a synthetic POD TypeDescriptor via typedesc.For rather
// than re-deriving full reflection dispatch for storage Go's type system
// already makes safe, the same shortcut container/vector.TypedVector takes.
package hashtable

import (
	"unsafe"

	"github.com/erigontech/memblock/block"
	"github.com/erigontech/memblock/mem"
	"github.com/erigontech/memblock/typedesc"
)

const maxLoadFactor = 0.8

// Hasher and Equaler are supplied by the caller; the table never assumes
// comparability beyond what they provide.
type Hasher[K any] func(k K) uint64
type Equaler[K any] func(a, b K) bool

// Table is the Robin-Hood core: keys and values live in two parallel
// Blocks sharing `reserved`, with an info byte per slot (§3.6): 0 means
// empty, N>=1 means occupied with probe length N-1. Probe positions wrap
// around modulo reserved. Info
// bytes are plain bookkeeping rather than type-erased element data, so
// unlike keys/vals they are not themselves Block-backed -- see DESIGN.md.
type Table[K any, V any] struct {
	alloc *mem.Allocator
	keys  *block.Block
	vals  *block.Block
	info  []uint8

	reserved int
	count    int

	hash Hasher[K]
	eq   Equaler[K]
}

// New builds an empty Table drawing key/value storage from alloc, using
// hash for bucket selection and eq for key comparison.
func New[K any, V any](alloc *mem.Allocator, hash Hasher[K], eq Equaler[K]) (*Table[K, V], error) {
	t := &Table[K, V]{alloc: alloc, hash: hash, eq: eq}
	if err := t.rehash(8); err != nil {
		return nil, err
	}
	return t, nil
}

// KeyBlock and ValueBlock expose the underlying type-erased storage, for
// interop with code that operates on Block directly (clone, compare, hash).
// ValueBlock is nil when V is zero-sized (e.g. the struct{} value Table
// underlying a HashSet).
func (t *Table[K, V]) KeyBlock() *block.Block   { return t.keys }
func (t *Table[K, V]) ValueBlock() *block.Block { return t.vals }

func (t *Table[K, V]) bucket(h uint64) int { return int(h) & (t.reserved - 1) }

func keyStride[K any]() uintptr {
	var zero K
	return unsafe.Sizeof(zero)
}

func valStride[V any]() uintptr {
	var zero V
	return unsafe.Sizeof(zero)
}

func (t *Table[K, V]) keyAt(i int) *K {
	return (*K)(unsafe.Add(t.keys.Raw(), uintptr(i)*keyStride[K]()))
}

// valAt returns a pointer to slot i's value. When V is zero-sized (struct{}
// value tables underlying HashSet) there is no backing Block at all; the
// returned pointer addresses a throwaway zero value instead, since reading
// or writing a zero-sized type touches no memory either way.
func (t *Table[K, V]) valAt(i int) *V {
	if t.vals == nil {
		var zero V
		return &zero
	}
	return (*V)(unsafe.Add(t.vals.Raw(), uintptr(i)*valStride[V]()))
}

func (t *Table[K, V]) rehash(newReserved int) error {
	oldKeys, oldVals, oldInfo, oldReserved := t.keys, t.vals, t.info, t.reserved

	newKeys := block.New(t.alloc)
	if err := newKeys.Pin(typedesc.For[K](), true); err != nil {
		return err
	}
	if err := newKeys.Allocate(newReserved, true); err != nil {
		return err
	}

	var newVals *block.Block
	if valStride[V]() > 0 {
		newVals = block.New(t.alloc)
		if err := newVals.Pin(typedesc.For[V](), true); err != nil {
			return err
		}
		if err := newVals.Allocate(newReserved, true); err != nil {
			return err
		}
	}

	t.keys, t.vals = newKeys, newVals
	t.info = make([]uint8, newReserved+1)
	t.info[newReserved] = 1
	t.reserved = newReserved
	t.count = 0

	for i := 0; i < oldReserved; i++ {
		if oldInfo[i] != 0 {
			oldVal := *new(V)
			if oldVals != nil {
				oldVal = *(*V)(unsafe.Add(oldVals.Raw(), uintptr(i)*valStride[V]()))
			}
			t.insert(*(*K)(unsafe.Add(oldKeys.Raw(), uintptr(i)*keyStride[K]())), oldVal)
		}
	}
	if oldKeys != nil {
		_ = oldKeys.Reset()
	}
	if oldVals != nil {
		_ = oldVals.Reset()
	}
	return nil
}

// Insert adds or updates k->v, rehashing to 2*reserved first if the load
// factor would exceed 80%, per spec.md §4.6.
func (t *Table[K, V]) Insert(k K, v V) error {
	if float64(t.count+1)/float64(t.reserved) > maxLoadFactor {
		if err := t.rehash(t.reserved * 2); err != nil {
			return err
		}
	}
	t.insert(k, v)
	return nil
}

func (t *Table[K, V]) insert(k K, v V) {
	i := t.bucket(t.hash(k))
	probe := uint8(1)
	curK, curV := k, v
	for {
		if t.info[i] == 0 {
			*t.keyAt(i), *t.valAt(i), t.info[i] = curK, curV, probe
			t.count++
			return
		}
		if t.info[i] == probe && t.eq(*t.keyAt(i), curK) {
			*t.valAt(i) = curV
			return
		}
		if t.info[i] < probe {
			ki, vi := t.keyAt(i), t.valAt(i)
			*ki, curK = curK, *ki
			*vi, curV = curV, *vi
			t.info[i], probe = probe, t.info[i]
		}
		i = (i + 1) % t.reserved
		probe++
	}
}

// Lookup probes from bucket(hash(k)), stopping at the first slot whose
// info byte is smaller than the current probe distance (a miss, per the
// Robin-Hood invariant) or whose key matches (a hit).
func (t *Table[K, V]) Lookup(k K) (V, bool) {
	var zero V
	h := t.hash(k)
	i := t.bucket(h)
	probe := uint8(1)
	for {
		if t.info[i] == 0 || t.info[i] < probe {
			return zero, false
		}
		if t.info[i] == probe && t.eq(*t.keyAt(i), k) {
			return *t.valAt(i), true
		}
		i = (i + 1) % t.reserved
		probe++
	}
}

// Erase removes k via back-shift deletion: while the next slot's info byte
// is greater than 1, it moves one position left and its info is
// decremented; it stops once the next slot's info is <= 1.
func (t *Table[K, V]) Erase(k K) bool {
	h := t.hash(k)
	i := t.bucket(h)
	probe := uint8(1)
	for {
		if t.info[i] == 0 || t.info[i] < probe {
			return false
		}
		if t.info[i] == probe && t.eq(*t.keyAt(i), k) {
			t.backShiftFrom(i)
			t.count--
			return true
		}
		i = (i + 1) % t.reserved
		probe++
	}
}

func (t *Table[K, V]) backShiftFrom(i int) {
	var zeroK K
	var zeroV V
	for {
		next := (i + 1) % t.reserved
		if t.info[next] <= 1 {
			t.info[i] = 0
			*t.keyAt(i) = zeroK
			*t.valAt(i) = zeroV
			return
		}
		*t.keyAt(i) = *t.keyAt(next)
		*t.valAt(i) = *t.valAt(next)
		t.info[i] = t.info[next] - 1
		i = next
	}
}

// Compact shrinks reserved to the smallest power of two that still keeps
// the table under its load factor, reclaiming excess capacity left behind
// by Erase, the way Langulus/Anyness's BlockSet::Compact trims a set's
// reserved region down to what its current Count actually needs.
func (t *Table[K, V]) Compact() error {
	want := t.count
	if want < 1 {
		want = 1
	}
	newReserved := 8
	for float64(want)/float64(newReserved) > maxLoadFactor {
		newReserved *= 2
	}
	if newReserved >= t.reserved {
		return nil
	}
	return t.rehash(newReserved)
}

// Len returns the number of occupied slots.
func (t *Table[K, V]) Len() int { return t.count }

// Reserved returns the current slot count (always a power of two).
func (t *Table[K, V]) Reserved() int { return t.reserved }

// ForEach visits every occupied slot in table order (not insertion order;
// see package hashtable's order.go for that).
func (t *Table[K, V]) ForEach(fn func(K, V) bool) {
	for i := 0; i < t.reserved; i++ {
		if t.info[i] != 0 {
			if !fn(*t.keyAt(i), *t.valAt(i)) {
				return
			}
		}
	}
}

// ProbeDistance returns info[i]-1 for an occupied slot, the value the
// Robin-Hood invariant (spec.md §8) constrains to equal
// (i - bucket(hash(key[i]))) mod reserved.
func (t *Table[K, V]) ProbeDistance(i int) (int, bool) {
	if t.info[i] == 0 {
		return 0, false
	}
	return int(t.info[i]) - 1, true
}

// Bucket exposes bucket(hash(k)) for invariant checks in tests.
func (t *Table[K, V]) Bucket(k K) int { return t.bucket(t.hash(k)) }

// KeyAt exposes the key stored at slot i, for invariant checks in tests.
// The caller must have already confirmed slot i is occupied.
func (t *Table[K, V]) KeyAt(i int) K { return *t.keyAt(i) }
