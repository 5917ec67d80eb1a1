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

package hashmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/memblock/mem"
)

func newTestAlloc(t *testing.T) *mem.Allocator {
	t.Helper()
	a, err := mem.NewAllocator(mem.NewConfig(mem.WithDefaultPoolSize(1 << 16)))
	require.NoError(t, err)
	return a
}

func TestHashMapSetGetDelete(t *testing.T) {
	m, err := New[string, int](newTestAlloc(t))
	require.NoError(t, err)

	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.NoError(t, m.Set("a", 99))
	v, _ = m.Get("a")
	require.Equal(t, 99, v)

	require.True(t, m.Delete("a"))
	_, ok = m.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, m.Len())

	require.NotNil(t, m.KeyBlock())
	require.NotNil(t, m.ValueBlock())
}

func TestOrderedHashMapPreservesInsertionOrder(t *testing.T) {
	m, err := NewOrdered[string, int](newTestAlloc(t))
	require.NoError(t, err)

	require.NoError(t, m.Set("c", 3))
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	require.NoError(t, m.Set("a", 10)) // overwrite must not move "a" in order

	var keys []string
	var vals []int
	m.ForEach(func(k string, v int) bool {
		keys = append(keys, k)
		vals = append(vals, v)
		return true
	})
	require.Equal(t, []string{"c", "a", "b"}, keys)
	require.Equal(t, []int{3, 10, 2}, vals)
}

func TestHashMapRehashPreservesEntries(t *testing.T) {
	m, err := New[int, int](newTestAlloc(t))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.NoError(t, m.Set(i, i*i))
	}
	require.Equal(t, 1000, m.Len())
	for i := 0; i < 1000; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*i, v)
	}
}

func TestHashMapCompactShrinksCapacity(t *testing.T) {
	m, err := New[int, int](newTestAlloc(t))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Set(i, i))
	}
	for i := 10; i < 100; i++ {
		m.Delete(i)
	}
	require.Equal(t, 10, m.Len())

	require.NoError(t, m.Compact())
	require.Equal(t, 10, m.Len())
	for i := 0; i < 10; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestHashMapMerge(t *testing.T) {
	a, err := New[string, int](newTestAlloc(t))
	require.NoError(t, err)
	b, err := New[string, int](newTestAlloc(t))
	require.NoError(t, err)

	require.NoError(t, a.Set("x", 1))
	require.NoError(t, b.Set("x", 99))
	require.NoError(t, b.Set("y", 2))

	require.NoError(t, a.Merge(b))
	require.Equal(t, 2, a.Len())
	v, _ := a.Get("x")
	require.Equal(t, 99, v)
	v, _ = a.Get("y")
	require.Equal(t, 2, v)
}
