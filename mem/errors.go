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

import "errors"

var (
	// ErrOutOfMemory is returned when the backing allocator refused to grow.
	ErrOutOfMemory = errors.New("mem: out of memory")
	// ErrZeroSize is returned by Allocate(0).
	ErrZeroSize = errors.New("mem: zero-size allocation")
	// ErrPoolCorrupt marks a fatal internal invariant violation. Callers
	// should treat it as unrecoverable: log it and abort, per spec.
	ErrPoolCorrupt = errors.New("mem: pool corrupt")
	// ErrRefcountUnderflow is returned by Entry.Free when uses would drop
	// below zero, in debug-checked builds.
	ErrRefcountUnderflow = errors.New("mem: refcount underflow")
	// ErrPoolFull is returned by Pool.Allocate when the pool cannot satisfy
	// a request (exhausted tiers, or the request exceeds the pool's
	// largest allocatable tier).
	ErrPoolFull = errors.New("mem: pool full")
)
