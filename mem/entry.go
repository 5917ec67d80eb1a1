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

package mem

import (
	"unsafe"

	"github.com/pkg/errors"
)

// entryHeaderBytes is a conceptual accounting constant: the source this
// design is modeled on prefixes a small header to every user region, so
// pool sizing math (min_allocation, threshold halving) accounts for it.
// This port keeps Entry as an ordinary Go struct referenced by pointer
// instead of literally prefixing bytes -- manual header-prefixing has no
// upside in a garbage-collected language with slices -- but callers that
// reason about capacity still see the same numbers the spec describes.
const entryHeaderBytes = 16

// Entry is the refcounted allocation header shared by every container that
// draws memory from a Pool or the fallback allocator. It is a plain value
// type: no atomics, no mutex. Concurrent use requires an external lock, see
// package mem's doc comment.
type Entry struct {
	// allocatedBytes is the user-visible capacity: what the caller asked
	// for, not the (possibly larger) physical slot backing it.
	allocatedBytes uintptr
	uses           int

	pool         *Pool // nil when mallocBacked
	mallocBacked bool

	ptr unsafe.Pointer // start of the user region

	// bookkeeping the owning Pool needs to reclaim/grow/find this entry;
	// meaningless when mallocBacked.
	heapIndex int
	level     uint
}

// Ptr returns the start of the entry's user region.
func (e *Entry) Ptr() unsafe.Pointer { return e.ptr }

// AllocatedBytes returns the user-visible capacity of the entry.
func (e *Entry) AllocatedBytes() uintptr { return e.allocatedBytes }

// Uses returns the current reference count.
func (e *Entry) Uses() int { return e.uses }

// Pool returns the owning pool, or nil if this entry was satisfied by the
// fallback allocator.
func (e *Entry) Pool() *Pool { return e.pool }

// IsMallocBacked reports whether this entry bypassed pooling.
func (e *Entry) IsMallocBacked() bool { return e.mallocBacked }

// Keep increments the reference count by n (default 1).
func (e *Entry) Keep(n int) {
	if n == 0 {
		n = 1
	}
	e.uses += n
}

// Free decrements the reference count by n (default 1) and reports whether
// it reached zero. In debug-checked builds (debugChecks == true) a
// decrement past zero returns ErrRefcountUnderflow instead of corrupting
// uses; release builds trust the caller and skip the check.
func (e *Entry) Free(n int, debugChecks bool) (zero bool, err error) {
	if n == 0 {
		n = 1
	}
	if debugChecks && e.uses-n < 0 {
		return false, errors.WithStack(ErrRefcountUnderflow)
	}
	e.uses -= n
	return e.uses <= 0, nil
}

// Contains reports whether ptr falls within [e.ptr, e.ptr+allocatedBytes).
// Deliberately bounded by the logical, user-visible size rather than the
// (possibly larger) physical slot, so reverse lookups never claim bytes
// the caller never asked for.
func (e *Entry) Contains(ptr unsafe.Pointer) bool {
	start := uintptr(e.ptr)
	off := uintptr(ptr) - start
	return uintptr(ptr) >= start && off < e.allocatedBytes
}
