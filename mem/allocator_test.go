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

package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, poolSize uint64) *Allocator {
	t.Helper()
	cfg := NewConfig(
		WithDefaultPoolSize(poolSize),
		WithMinAllocation(64),
		WithStats(true),
	)
	a, err := NewAllocator(cfg)
	require.NoError(t, err)
	return a
}

func TestAllocateFindRoundTrip(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	e, err := a.Allocate(100)
	require.NoError(t, err)
	require.NotNil(t, e)

	found := a.Find(e.Ptr())
	require.Same(t, e, found)
	require.True(t, a.CheckAuthority(e.Ptr()))
}

func TestAllocateTieredOrder(t *testing.T) {
	// spec.md §8.1: fresh allocations are handed out tier by tier, coarsest
	// first, only descending once the current tier is exhausted.
	a := newTestAllocator(t, 1<<12)
	half := int(1<<12)/2 - entryHeaderBytes - 1
	e1, err := a.Allocate(half)
	require.NoError(t, err)
	e2, err := a.Allocate(half)
	require.NoError(t, err)
	require.NotEqual(t, e1.Ptr(), e2.Ptr())

	// Both halves of the top tier are now spent; a small request that would
	// fit a finer tier must succeed by descending a tier in the same pool,
	// not by growing the pool chain.
	e3, err := a.Allocate(16)
	require.NoError(t, err)
	require.NotNil(t, e3)

	stats := a.Stats()
	require.Equal(t, 1, stats.Pools)
}

func TestRefcountKeepFree(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	e, err := a.Allocate(32)
	require.NoError(t, err)

	require.NoError(t, a.Keep(e.Ptr(), 2))
	require.Equal(t, 3, a.References(e.Ptr()))

	freed, err := a.Free(e.Ptr(), 1)
	require.NoError(t, err)
	require.False(t, freed)

	freed, err = a.Free(e.Ptr(), 2)
	require.NoError(t, err)
	require.True(t, freed)

	require.Nil(t, a.Find(e.Ptr()))
}

func TestDeallocateThenGarbageCollected(t *testing.T) {
	a := newTestAllocator(t, 1<<16)
	e, err := a.Allocate(32)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(e))
	require.NoError(t, a.CollectGarbage())

	stats := a.Stats()
	require.Equal(t, 0, stats.Entries)
}

func TestAllocatorGrowsChainWhenPoolFull(t *testing.T) {
	a := newTestAllocator(t, 1<<10)
	for i := 0; i < 64; i++ {
		_, err := a.Allocate(64)
		require.NoError(t, err)
	}
	stats := a.Stats()
	require.Greater(t, stats.Pools, 1)
}

func TestMallocFallbackWhenUnmanaged(t *testing.T) {
	cfg := NewConfig(WithManagedMemory(false), WithStats(true))
	a, err := NewAllocator(cfg)
	require.NoError(t, err)

	e, err := a.Allocate(128)
	require.NoError(t, err)
	require.True(t, e.IsMallocBacked())
	require.Same(t, e, a.Find(e.Ptr()))

	require.NoError(t, a.Deallocate(e))
	require.Nil(t, a.Find(e.Ptr()))
}
