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
	"bytes"
	"unsafe"

	"github.com/erigontech/memblock/typedesc"
)

// stateRelevant masks out bits that deep comparison ignores -- constness,
// per spec.md §4.4 step 3 ("state-relevant bits differ (constness
// ignored)").
func stateRelevant(s State) State { return s &^ Constant }

// Equal implements the deep comparison algorithm of spec.md §4.4.
func Equal(a, b *Block) bool {
	if a.count != b.count {
		return false
	}
	if (a.typ == nil) != (b.typ == nil) {
		return false
	}
	if stateRelevant(a.state) != stateRelevant(b.state) {
		return false
	}
	if a.raw == b.raw {
		return true
	}
	if a.typ != nil && b.typ != nil {
		if !typedesc.CastsTo(a.typ, b.typ) && !typedesc.CastsTo(b.typ, a.typ) {
			return false
		}
	}
	if a.typ != nil && a.typ.CompareEq != nil {
		return compareElementwise(a, b)
	}
	if a.typ != nil && b.typ != nil && a.typ.IsPOD && a.typ.Size == b.typ.Size {
		return bytesEqual(a.raw, b.raw, uintptr(a.count)*a.stride())
	}
	return compareStructural(a, b)
}

func compareElementwise(a, b *Block) bool {
	for i := 0; i < a.count; i++ {
		if a.state.Has(Sparse) {
			ca := sparseCellAt(a.raw, i)
			cb := sparseCellAt(b.raw, i)
			if (ca.ptr == nil) != (cb.ptr == nil) {
				return false
			}
			if ca.ptr == nil {
				continue
			}
			if !a.typ.CompareEq(ca.ptr, cb.ptr) {
				return false
			}
			continue
		}
		pa, pb := a.slot(i), b.slot(i)
		ta, tb := a.typ, b.typ
		ra, rb := pa, pb
		if ta.Resolve != nil {
			res := ta.Resolve(pa)
			ra, ta = res.Ptr, res.Type
		}
		if tb.Resolve != nil {
			res := tb.Resolve(pb)
			rb, tb = res.Ptr, res.Type
		}
		if !typedesc.Equal(ta, tb) {
			return false
		}
		if ta.CompareEq == nil || !ta.CompareEq(ra, rb) {
			return false
		}
	}
	return true
}

func compareStructural(a, b *Block) bool {
	if a.typ == nil {
		return b.typ == nil
	}
	for i := 0; i < a.count; i++ {
		if !compareValueStructural(a.typ, a.slot(i), b.slot(i)) {
			return false
		}
	}
	return true
}

func compareValueStructural(t *typedesc.TypeDescriptor, pa, pb unsafe.Pointer) bool {
	for _, base := range t.Bases {
		ba := unsafe.Add(pa, base.ByteOffset)
		bb := unsafe.Add(pb, base.ByteOffset)
		if !compareTypedRange(base.BaseType, ba, bb, base.Count) {
			return false
		}
	}
	for _, m := range t.Members {
		ma := unsafe.Add(pa, m.ByteOffset)
		mb := unsafe.Add(pb, m.ByteOffset)
		if !compareTypedRange(m.MemberType, ma, mb, m.Count) {
			return false
		}
	}
	return true
}

func compareTypedRange(t *typedesc.TypeDescriptor, pa, pb unsafe.Pointer, n int) bool {
	if t == nil {
		return true
	}
	if t.CompareEq != nil {
		for i := 0; i < n; i++ {
			ea := unsafe.Add(pa, uintptr(i)*t.Size)
			eb := unsafe.Add(pb, uintptr(i)*t.Size)
			if !t.CompareEq(ea, eb) {
				return false
			}
		}
		return true
	}
	if t.IsPOD {
		return bytesEqual(pa, pb, uintptr(n)*t.Size)
	}
	for i := 0; i < n; i++ {
		ea := unsafe.Add(pa, uintptr(i)*t.Size)
		eb := unsafe.Add(pb, uintptr(i)*t.Size)
		if !compareValueStructural(t, ea, eb) {
			return false
		}
	}
	return true
}

func bytesEqual(pa, pb unsafe.Pointer, n uintptr) bool {
	if n == 0 {
		return true
	}
	return bytes.Equal(unsafe.Slice((*byte)(pa), n), unsafe.Slice((*byte)(pb), n))
}
