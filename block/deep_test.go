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

func TestDeepeningPreservesOriginalContent(t *testing.T) {
	alloc := newTestAlloc(t)
	b := New(alloc)
	require.NoError(t, b.Pin(int32Type, false))
	first := int32Block(t, alloc, 1, 2, 3)
	require.NoError(t, b.InsertBlock(first, 0, false))
	require.Equal(t, int32Type, b.Type())

	var otherVal int64 = 77
	second := BorrowedN(alloc, int64Type, unsafe.Pointer(&otherVal), 1)
	require.NoError(t, b.InsertBlock(second, b.Count(), false))

	require.True(t, b.Type().IsDeep)
	require.Equal(t, 2, b.Count())

	wrapped := elemAt(b.raw, 0)
	require.Equal(t, 3, wrapped.Count())
	for i, want := range []int32{1, 2, 3} {
		el, err := wrapped.Element(i)
		require.NoError(t, err)
		require.Equal(t, want, *(*int32)(el.Raw()))
	}

	appended := elemAt(b.raw, 1)
	require.Equal(t, 1, appended.Count())
	el, err := appended.Element(0)
	require.NoError(t, err)
	require.Equal(t, int64(77), *(*int64)(el.Raw()))
}
