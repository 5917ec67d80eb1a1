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

// Package typedesc defines the frozen reflection record the memory core
// consumes. A TypeDescriptor is produced and interned by a registry that
// lives outside this module; the core only ever reads one, by stable
// pointer identity, and never mutates it.
package typedesc

import "unsafe"

// ID is a stable identity for a type, used for equality and as a hash key.
// The registry that mints TypeDescriptors owns the ID space; this package
// only requires that equal types produce equal IDs.
type ID uint64

// BaseInfo describes one entry in a TypeDescriptor's ordered base-class
// list: an offset and count of `BaseType` within the owning type's layout.
type BaseInfo struct {
	BaseType          *TypeDescriptor
	Count             int
	ByteOffset        uintptr
	BinaryCompatible  bool
}

// TraitTag is an opaque, registry-defined tag attached to a member. The
// core never interprets it; it is carried for higher layers (e.g. a trait
// system built atop Block).
type TraitTag uint32

// MemberInfo describes one entry in a TypeDescriptor's ordered member list.
type MemberInfo struct {
	MemberType *TypeDescriptor
	Count      int
	ByteOffset uintptr
	Trait      TraitTag
}

// DefaultCtor default-constructs n contiguous elements of the described
// type starting at dst.
type DefaultCtor func(dst unsafe.Pointer, n int)

// CopyCtor copy-constructs n contiguous elements from src into
// uninitialized storage at dst.
type CopyCtor func(dst, src unsafe.Pointer, n int)

// MoveCtor move-constructs n contiguous elements from src into
// uninitialized storage at dst. src is left in a destructible but
// unspecified state.
type MoveCtor func(dst, src unsafe.Pointer, n int)

// Dtor destroys n contiguous, initialized elements at dst in place.
type Dtor func(dst unsafe.Pointer, n int)

// CloneInPlace deep-clones n contiguous elements from src into
// uninitialized storage at dst.
type CloneInPlace func(dst, src unsafe.Pointer, n int)

// CloneInInitialized deep-clones n contiguous elements from src into
// already-default-constructed storage at dst (used when CloneInPlace is
// absent but a DefaultCtor is present).
type CloneInInitialized func(dst, src unsafe.Pointer, n int)

// CopyAssign copy-assigns one initialized element from src over dst.
type CopyAssign func(dst, src unsafe.Pointer)

// MoveAssign move-assigns one initialized element from src over dst.
type MoveAssign func(dst, src unsafe.Pointer)

// CompareEq reports whether the elements at a and b compare equal.
type CompareEq func(a, b unsafe.Pointer) bool

// HashFn hashes the element at p.
type HashFn func(p unsafe.Pointer) uint64

// Resolve returns a Block (expressed here as the minimal shape the core
// needs: a type and a pointer) describing the actual runtime type of the
// dynamic instance at p. Resolved is intentionally untyped at this layer;
// the block package adapts it to a real Block.
type Resolve func(p unsafe.Pointer) ResolvedInstance

// ResolvedInstance is what Resolve reports: the dynamic type backing a
// polymorphic value and the pointer to its actual storage.
type ResolvedInstance struct {
	Type *TypeDescriptor
	Ptr  unsafe.Pointer
}

// Dispatch is the opaque user-level verb handler. The core never calls it;
// it is carried purely so higher layers (out of scope for this module) can
// find it via the descriptor.
type Dispatch func(p unsafe.Pointer, verb uint32, args ...interface{}) (interface{}, error)

// TypeDescriptor is the frozen reflection record: size, alignment, flags,
// and a vtable of optional operations. The core never mutates a
// TypeDescriptor; it is produced once by an external registry and referenced
// by pointer identity thereafter.
type TypeDescriptor struct {
	ID ID

	Size  uintptr
	Align uintptr

	// IsPOD means the type may be byte-copied or zero-initialized without
	// calling any constructor/destructor.
	IsPOD bool
	// IsNullifiable means default-construct is equivalent to zeroing the
	// type's bytes (a stronger-than-POD claim is not required; POD types
	// are nullifiable too, but some non-POD types with trivial default
	// state may set this independently).
	IsNullifiable bool
	// IsAbstract means the type cannot be instantiated directly.
	IsAbstract bool
	// IsDeep means this type IS a Block (i.e. a nested container).
	IsDeep bool

	DefaultCtor        DefaultCtor
	CopyCtor           CopyCtor
	MoveCtor           MoveCtor
	Dtor               Dtor
	CloneInPlace       CloneInPlace
	CloneInInitialized CloneInInitialized
	CopyAssign         CopyAssign
	MoveAssign         MoveAssign
	CompareEq          CompareEq
	Hash               HashFn
	Resolve            Resolve
	Dispatch           Dispatch

	Bases   []BaseInfo
	Members []MemberInfo
}

// Identity equality: TypeDescriptors are compared by pointer identity, with
// ID as a fallback for descriptors that were reconstructed (e.g. across a
// serialization boundary the core does not implement). Equal never
// dereferences fields beyond ID.
func Equal(a, b *TypeDescriptor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.ID == b.ID
}

// CastsTo reports whether a value of type `from` can be viewed as type `to`
// without conversion: identity, or `from` lists `to` as a binary-compatible
// base.
func CastsTo(from, to *TypeDescriptor) bool {
	if Equal(from, to) {
		return true
	}
	if from == nil || to == nil {
		return false
	}
	for _, b := range from.Bases {
		if b.BinaryCompatible && Equal(b.BaseType, to) {
			return true
		}
	}
	return false
}
