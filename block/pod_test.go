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

	"github.com/erigontech/memblock/mem"
	"github.com/erigontech/memblock/typedesc"
)

// int32Type is a minimal POD TypeDescriptor, standing in here for what a
// real reflection registry would mint for int32, since that registry lives
// outside this module (spec.md §1).
var int32Type = &typedesc.TypeDescriptor{
	ID:            1,
	Size:          4,
	Align:         4,
	IsPOD:         true,
	IsNullifiable: true,
	CompareEq: func(a, b unsafe.Pointer) bool {
		return *(*int32)(a) == *(*int32)(b)
	},
}

// int64Type is a second, distinct POD TypeDescriptor used to exercise
// mismatched-type insertion (deepening).
var int64Type = &typedesc.TypeDescriptor{
	ID:            2,
	Size:          8,
	Align:         8,
	IsPOD:         true,
	IsNullifiable: true,
}

func newTestAlloc(t *testing.T) *mem.Allocator {
	t.Helper()
	a, err := mem.NewAllocator(mem.NewConfig(mem.WithDefaultPoolSize(1 << 16)))
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	return a
}

func int32Block(t *testing.T, alloc *mem.Allocator, vals ...int32) *Block {
	t.Helper()
	b := New(alloc)
	if err := b.Pin(int32Type, true); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if len(vals) == 0 {
		return b
	}
	tmp := BorrowedN(alloc, int32Type, unsafe.Pointer(&vals[0]), len(vals))
	if err := b.InsertBlock(tmp, 0, false); err != nil {
		t.Fatalf("InsertBlock: %v", err)
	}
	return b
}
