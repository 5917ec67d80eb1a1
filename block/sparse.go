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
	"unsafe"

	"github.com/erigontech/memblock/mem"
	"github.com/erigontech/memblock/typedesc"
)

// sparseCell is a manual shared pointer: {ptr, entry}. entry is nil for
// pointers the Block does not own (borrowed / interop with unmanaged
// memory), per spec.md §9's "Sparse pointer cells" design note -- it is
// deliberately its own record rather than a reuse of some generic
// shared-pointer type, so a cell can name a borrowed pointer with no
// entry at all.
type sparseCell struct {
	ptr   unsafe.Pointer
	entry *mem.Entry
}

func sparseCellAt(raw unsafe.Pointer, i int) *sparseCell {
	return (*sparseCell)(unsafe.Add(raw, uintptr(i)*sparseCellSize))
}

// copySparseCell copy-constructs a cell: copies the bytes and, for an owned
// pointer, bumps the refcount, per spec.md §4.4 "Sparse blocks".
func copySparseCell(dst, src *sparseCell) {
	dst.ptr = src.ptr
	dst.entry = src.entry
	if src.entry != nil {
		src.entry.Keep(1)
	}
}

// destroySparseCell frees the cell's ownership stake. If the refcount
// reaches zero, the pointed-to element is destroyed (via typ's dtor, typ
// being the sparse Block's declared pointee type) and its storage released.
func destroySparseCell(typ *typedesc.TypeDescriptor, alloc *mem.Allocator, c *sparseCell, debugChecks bool) error {
	if c.entry == nil {
		return nil
	}
	zero, err := c.entry.Free(1, debugChecks)
	if err != nil {
		return err
	}
	if !zero {
		return nil
	}
	if typ != nil && typ.Dtor != nil {
		typ.Dtor(c.ptr, 1)
	}
	return alloc.Deallocate(c.entry)
}
