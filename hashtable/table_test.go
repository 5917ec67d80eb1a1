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

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/erigontech/memblock/mem"
)

func newTestAlloc(t *testing.T) *mem.Allocator {
	t.Helper()
	a, err := mem.NewAllocator(mem.NewConfig(mem.WithDefaultPoolSize(1 << 16)))
	require.NoError(t, err)
	return a
}

func identityHash(k int) uint64 { return uint64(k) }
func intEq(a, b int) bool       { return a == b }

func newTestTable[K any, V any](t *testing.T, hash Hasher[K], eq Equaler[K]) *Table[K, V] {
	t.Helper()
	tb, err := New[K, V](newTestAlloc(t), hash, eq)
	require.NoError(t, err)
	return tb
}

func TestTableInsertLookupErase(t *testing.T) {
	tb := newTestTable[int, string](t, identityHash, intEq)
	require.NoError(t, tb.Insert(1, "a"))
	require.NoError(t, tb.Insert(2, "b"))

	v, ok := tb.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.True(t, tb.Erase(1))
	_, ok = tb.Lookup(1)
	require.False(t, ok)

	v, ok = tb.Lookup(2)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestTableOverwriteExistingKey(t *testing.T) {
	tb := newTestTable[int, string](t, identityHash, intEq)
	require.NoError(t, tb.Insert(1, "a"))
	require.NoError(t, tb.Insert(1, "b"))
	require.Equal(t, 1, tb.Len())
	v, _ := tb.Lookup(1)
	require.Equal(t, "b", v)
}

func TestTableRehashPreservesEntries(t *testing.T) {
	tb := newTestTable[int, int](t, identityHash, intEq)
	for i := 0; i < 1000; i++ {
		require.NoError(t, tb.Insert(i, i*i))
	}
	require.Equal(t, 1000, tb.Len())
	for i := 0; i < 1000; i++ {
		v, ok := tb.Lookup(i)
		require.True(t, ok)
		require.Equal(t, i*i, v)
	}
}

// TestRobinHoodInvariant is spec.md §8's Robin-Hood invariant property:
// every occupied slot's probe distance equals (i - bucket(hash(key))) mod
// reserved.
func TestRobinHoodInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tb := newTestTable[int, struct{}](t, identityHash, intEq)
		keys := rapid.SliceOfDistinct(rapid.IntRange(0, 5000), func(k int) int { return k }).Draw(rt, "keys")
		for _, k := range keys {
			require.NoError(t, tb.Insert(k, struct{}{}))
		}
		for i := 0; i < tb.Reserved(); i++ {
			dist, ok := tb.ProbeDistance(i)
			if !ok {
				continue
			}
			k := tb.KeyAt(i)
			want := (i - tb.Bucket(k) + tb.Reserved()) % tb.Reserved()
			if dist != want {
				rt.Fatalf("slot %d: probe distance %d, want %d", i, dist, want)
			}
		}
	})
}
