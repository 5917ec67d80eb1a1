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

// defaultConstructRange default-constructs n contiguous slots at dst, per
// spec.md §4.4's construction-primitives table: POD and nullifiable types
// are zeroed in place, everything else goes through the reflected
// default_ctor.
func defaultConstructRange(typ *typedesc.TypeDescriptor, dst unsafe.Pointer, n int, stride uintptr) error {
	if n == 0 {
		return nil
	}
	if typ == nil {
		return nil
	}
	if typ.IsAbstract {
		return ErrAbstractInstantiation
	}
	if typ.IsPOD || typ.IsNullifiable {
		zeroRange(dst, n, stride)
		return nil
	}
	if typ.DefaultCtor == nil {
		return ErrNoDefaultCtor
	}
	typ.DefaultCtor(dst, n)
	return nil
}

// copyConstructRange copy-constructs n elements from src into uninitialized
// storage at dst.
func copyConstructRange(typ *typedesc.TypeDescriptor, dst, src unsafe.Pointer, n int, stride uintptr) error {
	if n == 0 {
		return nil
	}
	if typ == nil {
		copyBytes(dst, src, n, stride)
		return nil
	}
	if typ.IsPOD {
		copyBytes(dst, src, n, stride)
		return nil
	}
	if typ.CopyCtor == nil {
		return ErrNoCopyCtor
	}
	typ.CopyCtor(dst, src, n)
	return nil
}

// moveConstructRange move-constructs n elements from src into uninitialized
// storage at dst, leaving src destructible but unspecified.
func moveConstructRange(typ *typedesc.TypeDescriptor, dst, src unsafe.Pointer, n int, stride uintptr) error {
	if n == 0 {
		return nil
	}
	if typ == nil || typ.IsPOD {
		copyBytes(dst, src, n, stride)
		return nil
	}
	if typ.MoveCtor != nil {
		typ.MoveCtor(dst, src, n)
		return nil
	}
	if typ.CopyCtor == nil {
		return ErrNoMoveCtor
	}
	// No dedicated move ctor: fall back to copy + destroy src, same
	// fallback the teacher's reflection-light code paths use elsewhere.
	typ.CopyCtor(dst, src, n)
	return destructRange(typ, src, n)
}

// destructRange destroys n initialized elements at dst in place.
func destructRange(typ *typedesc.TypeDescriptor, dst unsafe.Pointer, n int) error {
	if n == 0 || typ == nil {
		return nil
	}
	if typ.IsPOD {
		return nil
	}
	if typ.Dtor == nil {
		return nil // absence of dtor on a non-POD type is legal, per §3.1 invariant note about POD only
	}
	typ.Dtor(dst, n)
	return nil
}

func zeroRange(dst unsafe.Pointer, n int, stride uintptr) {
	buf := unsafe.Slice((*byte)(dst), uintptr(n)*stride)
	for i := range buf {
		buf[i] = 0
	}
}

func copyBytes(dst, src unsafe.Pointer, n int, stride uintptr) {
	size := uintptr(n) * stride
	dstSl := unsafe.Slice((*byte)(dst), size)
	srcSl := unsafe.Slice((*byte)(src), size)
	copy(dstSl, srcSl)
}

// sparseCopyConstructRange copy-constructs n sparse cells, bumping each
// non-nil entry's refcount, per §4.4 "Sparse blocks".
func sparseCopyConstructRange(dst, src unsafe.Pointer, n int) {
	for i := 0; i < n; i++ {
		d := (*sparseCell)(unsafe.Add(dst, uintptr(i)*sparseCellSize))
		s := (*sparseCell)(unsafe.Add(src, uintptr(i)*sparseCellSize))
		copySparseCell(d, s)
	}
}

// sparseDestructRange destroys n sparse cells at dst, per §4.4.
func sparseDestructRange(typ *typedesc.TypeDescriptor, alloc *mem.Allocator, dst unsafe.Pointer, n int, debugChecks bool) error {
	for i := 0; i < n; i++ {
		c := (*sparseCell)(unsafe.Add(dst, uintptr(i)*sparseCellSize))
		if err := destroySparseCell(typ, alloc, c, debugChecks); err != nil {
			return err
		}
	}
	return nil
}
