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

	"github.com/erigontech/memblock/internal/xlog"
)

func newTestPoolForReallocate(t *testing.T) *Pool {
	t.Helper()
	p, err := NewPool(HeapBackend(), 256, 32, 16, xlog.Nop())
	require.NoError(t, err)
	return p
}

func TestReallocateGrowsInPlaceWithinSameSlot(t *testing.T) {
	p := newTestPoolForReallocate(t)
	e, err := p.place(7, 3, 8)
	require.NoError(t, err)

	grew := p.Reallocate(e, 10)
	require.True(t, grew)
	require.EqualValues(t, 10, e.AllocatedBytes())
	require.Equal(t, uint(3), e.level)
	require.Equal(t, 7, e.heapIndex)
}

func TestReallocateAbsorbsFreeBuddyWhenRoomNeeded(t *testing.T) {
	p := newTestPoolForReallocate(t)
	e, err := p.place(7, 3, 8)
	require.NoError(t, err)
	// idx 8 (e's buddy under parent level 2) is left untouched: never
	// placed, never marked occupied.

	grew := p.Reallocate(e, 40)
	require.True(t, grew)
	require.Equal(t, uint(2), e.level)
	require.Equal(t, 3, e.heapIndex)
	require.EqualValues(t, 40, e.AllocatedBytes())
}

func TestReallocateFailsWhenBuddyIsOccupied(t *testing.T) {
	p := newTestPoolForReallocate(t)
	e, err := p.place(7, 3, 8)
	require.NoError(t, err)
	_, err = p.place(8, 3, 8) // occupy the buddy slot
	require.NoError(t, err)

	grew := p.Reallocate(e, 40)
	require.False(t, grew)
	require.Equal(t, uint(3), e.level)
	require.Equal(t, 7, e.heapIndex)
}

func TestReallocateFailsAtTopLevel(t *testing.T) {
	p := newTestPoolForReallocate(t)
	e, err := p.place(0, 0, 8)
	require.NoError(t, err)

	grew := p.Reallocate(e, 1000)
	require.False(t, grew)
}
