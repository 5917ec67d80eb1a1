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

package hashset

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

func TestHashSetInsertContainsRemove(t *testing.T) {
	s, err := New[string](newTestAlloc(t))
	require.NoError(t, err)

	inserted, err := s.Insert("a")
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = s.Insert("a")
	require.NoError(t, err)
	require.False(t, inserted)

	require.True(t, s.Contains("a"))
	require.Equal(t, 1, s.Len())
	require.NotNil(t, s.Block())

	require.True(t, s.Remove("a"))
	require.False(t, s.Contains("a"))
	require.False(t, s.Remove("a"))
}

func TestOrderedHashSetPreservesOrder(t *testing.T) {
	s, err := NewOrdered[int](newTestAlloc(t))
	require.NoError(t, err)

	for _, v := range []int{3, 1, 2} {
		_, err := s.Insert(v)
		require.NoError(t, err)
	}

	var got []int
	s.ForEach(func(v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{3, 1, 2}, got)

	s.Remove(1)
	got = nil
	s.ForEach(func(v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{3, 2}, got)
}

func TestHashSetRehashPreservesEntries(t *testing.T) {
	s, err := New[int](newTestAlloc(t))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, err := s.Insert(i)
		require.NoError(t, err)
	}
	require.Equal(t, 1000, s.Len())
	for i := 0; i < 1000; i++ {
		require.True(t, s.Contains(i))
	}
}

func TestHashSetCompactShrinksCapacity(t *testing.T) {
	s, err := New[int](newTestAlloc(t))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := s.Insert(i)
		require.NoError(t, err)
	}
	for i := 10; i < 100; i++ {
		s.Remove(i)
	}
	require.Equal(t, 10, s.Len())

	require.NoError(t, s.Compact())
	require.Equal(t, 10, s.Len())
	for i := 0; i < 10; i++ {
		require.True(t, s.Contains(i))
	}
}

func TestHashSetMerge(t *testing.T) {
	a, err := New[int](newTestAlloc(t))
	require.NoError(t, err)
	b, err := New[int](newTestAlloc(t))
	require.NoError(t, err)

	for _, v := range []int{1, 2, 3} {
		_, err := a.Insert(v)
		require.NoError(t, err)
	}
	for _, v := range []int{3, 4, 5} {
		_, err := b.Insert(v)
		require.NoError(t, err)
	}

	require.NoError(t, a.Merge(b))
	require.Equal(t, 5, a.Len())
	for _, v := range []int{1, 2, 3, 4, 5} {
		require.True(t, a.Contains(v))
	}
}
