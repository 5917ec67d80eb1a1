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

	"github.com/erigontech/memblock/typedesc"
)

var byteType = &typedesc.TypeDescriptor{
	ID:            3,
	Size:          1,
	Align:         1,
	IsPOD:         true,
	IsNullifiable: true,
}

var int32WithByteBase = &typedesc.TypeDescriptor{
	ID:            4,
	Size:          4,
	Align:         4,
	IsPOD:         true,
	IsNullifiable: true,
	Bases: []typedesc.BaseInfo{
		{BaseType: byteType, Count: 4, ByteOffset: 0, BinaryCompatible: true},
	},
}

func TestReinterpretAsByteView(t *testing.T) {
	alloc := newTestAlloc(t)
	b := New(alloc)
	require.NoError(t, b.Pin(int32WithByteBase, true))
	vals := []int32{1, 2}
	tmp := BorrowedN(alloc, int32WithByteBase, unsafe.Pointer(&vals[0]), len(vals))
	require.NoError(t, b.InsertBlock(tmp, 0, false))

	pattern := Borrowed(alloc, byteType, nil)
	view, err := b.ReinterpretAs(pattern)
	require.NoError(t, err)
	require.Equal(t, 8, view.Count())
	require.Equal(t, byteType, view.Type())
	require.False(t, view.IsOwned())
}

func TestReinterpretAsFailsWithoutCompatibleBase(t *testing.T) {
	alloc := newTestAlloc(t)
	b := int32Block(t, alloc, 1)
	pattern := Borrowed(alloc, byteType, nil)
	_, err := b.ReinterpretAs(pattern)
	require.ErrorIs(t, err, ErrTypeMismatch)
}
