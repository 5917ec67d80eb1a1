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

package block

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestRemoveValueFindsAndRemovesFirstMatch(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 10, 20, 30, 20)

	target := int32(20)
	found, err := b.RemoveValue(unsafe.Pointer(&target))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3, b.Count())

	for i, want := range []int32{10, 30, 20} {
		el, err := b.Element(i)
		require.NoError(t, err)
		require.Equal(t, want, *(*int32)(el.Raw()))
	}
}

func TestRemoveValueReportsNotFound(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2, 3)

	target := int32(99)
	found, err := b.RemoveValue(unsafe.Pointer(&target))
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 3, b.Count())
}

func TestTrimDropsTail(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2, 3, 4, 5)

	require.NoError(t, b.Trim(2))
	require.Equal(t, 2, b.Count())
	el, err := b.Element(1)
	require.NoError(t, err)
	require.Equal(t, int32(2), *(*int32)(el.Raw()))
}

func TestTrimNoopWhenKBeyondCount(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2, 3)
	require.NoError(t, b.Trim(10))
	require.Equal(t, 3, b.Count())
}

func TestShrinkReducesReserved(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2, 3)
	require.NoError(t, b.Allocate(10, false))
	require.Equal(t, 10, b.Reserved())

	require.NoError(t, b.Shrink(4))
	require.Equal(t, 6, b.Reserved())
	require.Equal(t, 3, b.Count())
}

func TestTakeAuthorityCopiesBorrowedStorage(t *testing.T) {
	alloc := newTestAlloc(t)
	vals := []int32{5, 6, 7}
	b := BorrowedN(alloc, int32Type, unsafe.Pointer(&vals[0]), len(vals))
	require.False(t, b.IsOwned())

	require.NoError(t, b.TakeAuthority())
	require.True(t, b.IsOwned())
	require.Equal(t, 3, b.Count())

	vals[0] = 999
	el, err := b.Element(0)
	require.NoError(t, err)
	require.Equal(t, int32(5), *(*int32)(el.Raw()))
}

func TestTakeAuthorityNoopWhenAlreadyOwned(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2)
	require.True(t, b.IsOwned())
	entryBefore := b.Entry()
	require.NoError(t, b.TakeAuthority())
	require.Equal(t, entryBefore, b.Entry())
}
