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

// unconstrainedState strips the authority/mutability bits clone() always
// clears on the result, per spec.md §4.5 step 1.
func unconstrainedState(s State) State { return s &^ (Static | Constant) }

// Clone deep-clones src, walking pointer graphs and nested blocks, per
// spec.md §4.5.
func Clone(src *Block) (*Block, error) {
	dst := &Block{alloc: src.alloc, typ: src.typ, state: unconstrainedState(src.state)}

	if src.state.Has(Sparse) {
		if err := cloneSparse(src, dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
	if src.typ == nil || src.typ.Resolve == nil {
		if err := clonePlain(src, dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
	if err := clonePolymorphic(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func cloneSparse(src, dst *Block) error {
	dst.state = dst.state.with(Sparse)
	n := src.count
	if n == 0 {
		return nil
	}
	if err := dst.Allocate(n, false); err != nil {
		return err
	}
	dst.count = n
	for i := 0; i < n; i++ {
		sc := sparseCellAt(src.raw, i)
		dc := sparseCellAt(dst.raw, i)
		if sc.ptr == nil {
			*dc = sparseCell{}
			continue
		}
		elemType, elemPtr := src.typ, sc.ptr
		if elemType != nil && elemType.Resolve != nil {
			res := elemType.Resolve(elemPtr)
			elemType, elemPtr = res.Type, res.Ptr
		}
		one := Borrowed(src.alloc, elemType, elemPtr)
		one.count = 1
		clonedOne, err := Clone(one)
		if err != nil {
			return err
		}
		dc.ptr = clonedOne.raw
		dc.entry = clonedOne.entry
	}
	return nil
}

func clonePlain(src, dst *Block) error {
	n := src.count
	if n == 0 {
		return nil
	}
	if err := dst.Allocate(n, false); err != nil {
		return err
	}
	t := src.typ
	switch {
	case t != nil && t.CloneInPlace != nil:
		t.CloneInPlace(dst.raw, src.raw, n)
	case t != nil && t.CloneInInitialized != nil:
		if err := defaultConstructRange(t, dst.raw, n, t.Size); err != nil {
			return err
		}
		t.CloneInInitialized(dst.raw, src.raw, n)
	case t != nil && t.IsPOD:
		copyBytes(dst.raw, src.raw, n, t.Size)
	default:
		return ErrNoClone
	}
	dst.count = n
	return nil
}

// clonePolymorphic handles a typed Block whose elements resolve to varying
// dynamic types: each element is cloned into a fresh one-element Block of
// its resolved type, then shallow-copied (with refcount, via copy_ctor)
// into the pre-typed destination slot, per spec.md §4.5 step 4.
func clonePolymorphic(src, dst *Block) error {
	n := src.count
	if n == 0 {
		return nil
	}
	if err := dst.Allocate(n, false); err != nil {
		return err
	}
	dst.count = n
	t := src.typ
	for i := 0; i < n; i++ {
		res := t.Resolve(src.slot(i))
		one := Borrowed(src.alloc, res.Type, res.Ptr)
		one.count = 1
		clonedOne, err := Clone(one)
		if err != nil {
			return err
		}
		switch {
		case t.CopyCtor != nil:
			t.CopyCtor(dst.slot(i), clonedOne.raw, 1)
		case t.IsPOD:
			copyBytes(dst.slot(i), clonedOne.raw, 1, t.Size)
		default:
			return ErrNoCopyCtor
		}
		if err := clonedOne.Reset(); err != nil {
			return err
		}
	}
	return nil
}
