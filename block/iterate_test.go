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

	"github.com/stretchr/testify/require"
)

func TestForEachDeepVisitsAllLeavesInOrder(t *testing.T) {
	alloc := newTestAlloc(t)
	outer := &Block{alloc: alloc, typ: DeepType()}
	require.NoError(t, outer.Allocate(2, false))

	first := int32Block(t, alloc, 1, 2)
	second := int32Block(t, alloc, 3)
	*elemAt(outer.raw, 0) = *first
	*elemAt(outer.raw, 1) = *second
	outer.count = 2

	var seen []int32
	require.NoError(t, outer.ForEachDeep(func(el *Block) error {
		seen = append(seen, *(*int32)(el.Raw()))
		return nil
	}, false, true))
	require.Equal(t, []int32{1, 2, 3}, seen)
}

func TestForEachDeepReverseVisitsLeavesBackward(t *testing.T) {
	alloc := newTestAlloc(t)
	outer := &Block{alloc: alloc, typ: DeepType()}
	require.NoError(t, outer.Allocate(2, false))

	first := int32Block(t, alloc, 1, 2)
	second := int32Block(t, alloc, 3)
	*elemAt(outer.raw, 0) = *first
	*elemAt(outer.raw, 1) = *second
	outer.count = 2

	var seen []int32
	require.NoError(t, outer.ForEachDeep(func(el *Block) error {
		seen = append(seen, *(*int32)(el.Raw()))
		return nil
	}, true, true))
	require.Equal(t, []int32{3, 2, 1}, seen)
}

func TestForEachDeepSkipsEmptyChildren(t *testing.T) {
	alloc := newTestAlloc(t)
	outer := &Block{alloc: alloc, typ: DeepType()}
	require.NoError(t, outer.Allocate(2, false))

	first := int32Block(t, alloc, 1)
	empty := int32Block(t, alloc)
	*elemAt(outer.raw, 0) = *first
	*elemAt(outer.raw, 1) = *empty
	outer.count = 2

	var seen int
	require.NoError(t, outer.ForEachDeep(func(el *Block) error {
		seen++
		return nil
	}, false, true))
	require.Equal(t, 1, seen)
}

func TestGatherCopiesMatchingLeavesIntoOut(t *testing.T) {
	alloc := newTestAlloc(t)
	outer := &Block{alloc: alloc, typ: DeepType()}
	require.NoError(t, outer.Allocate(2, false))

	first := int32Block(t, alloc, 1, 2)
	second := int32Block(t, alloc, 3)
	*elemAt(outer.raw, 0) = *first
	*elemAt(outer.raw, 1) = *second
	outer.count = 2

	out := New(alloc)
	require.NoError(t, out.Pin(int32Type, true))
	require.NoError(t, outer.Gather(out, 0, false))

	require.Equal(t, 3, out.Count())
	for i, want := range []int32{1, 2, 3} {
		el, err := out.Element(i)
		require.NoError(t, err)
		require.Equal(t, want, *(*int32)(el.Raw()))
	}
}

// TestGatherFiltersByPhase exercises Gather's phase bitmask against the
// state every leaf Gather visits actually carries: Element returns a
// Borrowed view, and Borrowed always sets exactly the Static bit (block.go's
// Borrowed/BorrowedN), regardless of the owning Block's own phase state. A
// phase made of any other bit therefore matches no leaf.
func TestGatherFiltersByPhase(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1, 2, 3)

	out := New(alloc)
	require.NoError(t, out.Pin(int32Type, true))
	require.NoError(t, b.Gather(out, Static, false))
	require.Equal(t, 3, out.Count())

	out2 := New(alloc)
	require.NoError(t, out2.Pin(int32Type, true))
	require.NoError(t, b.Gather(out2, Future, false))
	require.Equal(t, 0, out2.Count())
}

func TestElementDeepAndBlockDeepIndexLeaves(t *testing.T) {
	alloc := newTestAlloc(t)
	outer := &Block{alloc: alloc, typ: DeepType()}
	require.NoError(t, outer.Allocate(2, false))

	first := int32Block(t, alloc, 1, 2)
	second := int32Block(t, alloc, 3)
	*elemAt(outer.raw, 0) = *first
	*elemAt(outer.raw, 1) = *second
	outer.count = 2

	el, err := outer.ElementDeep(2)
	require.NoError(t, err)
	require.Equal(t, int32(3), *(*int32)(el.Raw()))

	home, err := outer.BlockDeep(2)
	require.NoError(t, err)
	require.Equal(t, 1, home.Count())
}
