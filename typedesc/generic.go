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

package typedesc

import (
	"hash/fnv"
	"reflect"
	"sync"
)

// genericCache memoizes the synthetic TypeDescriptor minted for each Go type
// a statically-typed facade (TypedVector, HashSet, HashMap, ...) instantiates
// over. Minting real TypeDescriptors is the reflection registry's job (an
// external collaborator this module never implements); a statically-typed Go
// facade doesn't need one -- the compiler already guarantees T's layout -- so
// this is a minimal stand-in carrying only size/align/POD-ness, enough for
// Block's construction primitives to treat T as a plain-old-data element.
var genericCache sync.Map // reflect.Type -> *TypeDescriptor

// For returns (and caches) a POD TypeDescriptor for T, shared by every
// package that builds a compile-time-typed facade over Block (container/
// vector, hashtable, container/hashset, container/hashmap).
func For[T any]() *TypeDescriptor {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil {
		rt = reflect.TypeOf(&zero).Elem()
	}
	if v, ok := genericCache.Load(rt); ok {
		return v.(*TypeDescriptor)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(rt.String()))
	d := &TypeDescriptor{
		ID:            ID(h.Sum64()),
		Size:          rt.Size(),
		Align:         uintptr(rt.Align()),
		IsPOD:         true,
		IsNullifiable: true,
	}
	actual, _ := genericCache.LoadOrStore(rt, d)
	return actual.(*TypeDescriptor)
}
