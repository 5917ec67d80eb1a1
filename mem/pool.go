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

// Package mem is the pooled, authority-tracking allocator substrate: Pool
// sub-allocates power-of-two regions out of one backing page, Allocator
// chains pools together and adds a fallback path, and Entry is the
// refcounted handle every container shares.
//
// The whole package is single-threaded by design (spec §5): none of these
// types use a mutex or atomics. A caller sharing an Allocator or Pool
// across goroutines must wrap every entry point in an external lock.
package mem

import (
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"

	"github.com/erigontech/memblock/internal/xlog"
	"github.com/erigontech/memblock/internal/xmath"
)

// Pool sub-allocates out of one backing page. Slots are addressed by a
// binary-heap-style index over an implicit segment tree: index 0 names the
// whole page, indices 1 and 2 its two halves, 3..6 the four quarters, and
// so on -- level L starts at heap index 2^L-1 and holds 2^L slots of size
// total_bytes>>L.
//
// Fresh (never-freed) allocations are handed out tier by tier: the pool
// starts at level 1 (the two halves) and only descends to a finer tier
// once every slot in the current tier is occupied, per the spec's
// "threshold... halved as the pool fills". A slot freed before its tier is
// exhausted goes back on a LIFO free list (last_freed) and is reused
// directly, at whatever level it was originally carved from.
type Pool struct {
	backend Backend
	mem     []byte
	base    unsafe.Pointer

	totalBytes    uintptr
	minAllocation uintptr
	align         uintptr
	maxLevel      uint // level whose slot size == minAllocation

	allocatedBytes uintptr
	entriesCount   int

	level     uint    // current tier being handed out to fresh allocations
	threshold uintptr // sizeAtLevel(level)
	cursor    int     // next untried slot index within the current tier, [0, 1<<level)

	occupied  *roaring.Bitmap // heap index -> occupied
	slotLevel map[int]uint    // heap index -> level it was carved at
	entries   map[int]*Entry  // heap index -> live entry

	freedHead int         // heap index of the most recently freed slot, or -1
	freeNext  map[int]int // heap index -> next slot down the free chain, or -1

	next *Pool

	log *xlog.Logger
}

// NewPool creates a pool backed by a freshly acquired page of exactly
// totalBytes (must be a power of two, >= minAllocation).
func NewPool(backend Backend, totalBytes, minAllocation, align uint64, log *xlog.Logger) (*Pool, error) {
	if !xmath.IsPow2(totalBytes) {
		totalBytes = xmath.NextPow2(totalBytes)
	}
	if !xmath.IsPow2(minAllocation) {
		minAllocation = xmath.NextPow2(minAllocation)
	}
	if minAllocation > totalBytes {
		minAllocation = totalBytes
	}
	buf, err := backend.Acquire(int(totalBytes))
	if err != nil {
		return nil, err
	}
	p := &Pool{
		backend:       backend,
		mem:           buf,
		base:          unsafe.Pointer(&buf[0]),
		totalBytes:    uintptr(totalBytes),
		minAllocation: uintptr(minAllocation),
		align:         uintptr(align),
		maxLevel:      xmath.Log2Floor(totalBytes / minAllocation),
		level:         1,
		threshold:     uintptr(totalBytes) >> 1,
		cursor:        0,
		occupied:      roaring.NewBitmap(),
		slotLevel:     make(map[int]uint),
		entries:       make(map[int]*Entry),
		freedHead:     -1,
		freeNext:      make(map[int]int),
		log:           log,
	}
	if p.maxLevel == 0 {
		p.maxLevel = 1
	}
	log.Debug("pool created", "total_bytes", totalBytes, "min_allocation", minAllocation, "backend", backend.Name())
	return p, nil
}

func levelStartIndex(level uint) int { return (1 << level) - 1 }

func (p *Pool) sizeAtLevel(level uint) uintptr { return p.totalBytes >> level }

func (p *Pool) offsetOf(idx int, level uint) uintptr {
	j := idx - levelStartIndex(level)
	return uintptr(j) * p.sizeAtLevel(level)
}

// need returns the actual pool slot size a size-byte user request needs,
// header included and rounded up to p.align, or ErrPoolCorrupt if the
// arithmetic would overflow uint64 -- unlike the fixed-width fields Pool
// tracks elsewhere, size is caller-controlled, so this is the one spot
// that needs to check rather than trust it.
func (p *Pool) need(size int) (uintptr, error) {
	withHeader, overflowed := xmath.SafeAdd(uint64(size), entryHeaderBytes)
	if overflowed {
		return 0, errors.WithMessagef(ErrPoolCorrupt, "size %d overflows with entry header", size)
	}
	units := xmath.CeilDiv(int(withHeader), int(p.align))
	n, overflowed := xmath.SafeMul(uint64(units), uint64(p.align))
	if overflowed {
		return 0, errors.WithMessagef(ErrPoolCorrupt, "size %d overflows after alignment", size)
	}
	if n < uint64(p.minAllocation) {
		n = uint64(p.minAllocation)
	}
	return uintptr(n), nil
}

// Allocate selects the smallest pool slot whose capacity >= size+header, as
// described above, and returns an Entry wrapping it. Returns ErrPoolFull if
// the pool cannot satisfy the request right now (either every tier is
// spent, or the request exceeds what this pool's largest tier ever
// offers) -- the caller (Allocator) is expected to fall through to another
// pool or create a new, larger one.
func (p *Pool) Allocate(size int) (*Entry, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	need, err := p.need(size)
	if err != nil {
		return nil, err
	}

	if idx, ok := p.reuseFromFreeList(need); ok {
		return p.place(idx, p.slotLevel[idx], uintptr(size))
	}

	if need > p.threshold && p.level <= 1 {
		return nil, errors.WithMessagef(ErrPoolFull, "need %d exceeds pool's largest tier %d", need, p.threshold)
	}

	for {
		if need <= p.threshold && p.cursor < (1<<p.level) {
			idx := levelStartIndex(p.level) + p.cursor
			p.cursor++
			return p.place(idx, p.level, uintptr(size))
		}
		if p.level >= p.maxLevel {
			return nil, errors.WithMessage(ErrPoolFull, "all tiers exhausted")
		}
		p.level++
		p.threshold >>= 1
		p.cursor = 0
	}
}

// reuseFromFreeList checks only the head of the free chain, per spec ("the
// last_freed pointer short-circuits the common case") -- it does not walk
// the whole chain looking for a better fit.
func (p *Pool) reuseFromFreeList(need uintptr) (int, bool) {
	if p.freedHead < 0 {
		return -1, false
	}
	idx := p.freedHead
	lvl := p.slotLevel[idx]
	if p.sizeAtLevel(lvl) < need {
		return -1, false
	}
	p.freedHead = p.freeNext[idx]
	delete(p.freeNext, idx)
	return idx, true
}

func (p *Pool) place(idx int, level uint, userSize uintptr) (*Entry, error) {
	off := p.offsetOf(idx, level)
	if off+p.sizeAtLevel(level) > p.totalBytes {
		return nil, errors.WithStack(ErrPoolCorrupt)
	}
	p.occupied.Add(uint32(idx))
	p.slotLevel[idx] = level
	e := &Entry{
		allocatedBytes: userSize,
		uses:           1,
		pool:           p,
		ptr:            unsafe.Add(p.base, off),
		heapIndex:      idx,
		level:          level,
	}
	p.entries[idx] = e
	p.entriesCount++
	p.allocatedBytes += userSize
	p.log.Debug("pool allocate", "idx", idx, "level", level, "offset", off, "size", userSize)
	return e, nil
}

// Deallocate returns idx's slot to the free list.
func (p *Pool) Deallocate(e *Entry) error {
	idx := e.heapIndex
	if _, live := p.entries[idx]; !live {
		return errors.WithStack(ErrPoolCorrupt)
	}
	delete(p.entries, idx)
	p.occupied.Remove(uint32(idx))
	p.entriesCount--
	p.allocatedBytes -= e.allocatedBytes

	p.freeNext[idx] = p.freedHead
	p.freedHead = idx
	p.log.Debug("pool deallocate", "idx", idx)
	return nil
}

// Reallocate attempts to resize e in place to newSize. It never copies
// data: it succeeds when newSize still fits the slot e already has, or when
// e starts at its parent slot's start and can absorb its provably free
// buddy one level up; otherwise it fails and the caller must allocate fresh
// storage and copy.
func (p *Pool) Reallocate(e *Entry, newSize int) bool {
	cap_ := p.sizeAtLevel(e.level)
	need, err := p.need(newSize)
	if err != nil {
		return false
	}
	if need <= cap_ {
		p.allocatedBytes += uintptr(newSize) - e.allocatedBytes
		e.allocatedBytes = uintptr(newSize)
		return true
	}
	// Rare path: e is the sole occupant of its tier slot; see if we can
	// absorb the buddy slot one level up when it is provably untouched
	// (genuinely free, never handed out, nothing occupies its byte
	// range).
	if e.level == 0 {
		return false
	}
	parentLevel := e.level - 1
	parentOff := p.offsetOf(e.heapIndex, e.level) &^ (p.sizeAtLevel(parentLevel) - 1)
	if p.sizeAtLevel(parentLevel) < need {
		return false
	}
	// e keeps its address, so only a slot that starts where its parent
	// starts can grow into the parent's range.
	if p.offsetOf(e.heapIndex, e.level) != parentOff {
		return false
	}
	if p.rangeOccupiedExcept(parentOff, p.sizeAtLevel(parentLevel), e.heapIndex) {
		return false
	}
	// Safe to absorb: re-home e at the parent's coarser slot.
	p.occupied.Remove(uint32(e.heapIndex))
	delete(p.slotLevel, e.heapIndex)
	delete(p.entries, e.heapIndex)

	parentIdx := levelStartIndex(parentLevel) + (e.heapIndex-levelStartIndex(e.level))/2
	p.occupied.Add(uint32(parentIdx))
	p.slotLevel[parentIdx] = parentLevel
	e.heapIndex = parentIdx
	e.level = parentLevel
	p.allocatedBytes += uintptr(newSize) - e.allocatedBytes
	e.allocatedBytes = uintptr(newSize)
	p.entries[parentIdx] = e
	return true
}

// rangeOccupiedExcept reports whether any occupied slot's byte range
// overlaps [off, off+size) other than exceptIdx itself.
func (p *Pool) rangeOccupiedExcept(off, size uintptr, exceptIdx int) bool {
	for idx, lvl := range p.slotLevel {
		if idx == exceptIdx {
			continue
		}
		if !p.occupied.Contains(uint32(idx)) {
			continue
		}
		so := p.offsetOf(idx, lvl)
		se := so + p.sizeAtLevel(lvl)
		if so < off+size && se > off {
			return true
		}
	}
	return false
}

// Find resolves an interior pointer to the entry that contains it, or nil
// if ptr falls outside the pool or the computed slot isn't live.
func (p *Pool) Find(ptr unsafe.Pointer) *Entry {
	off := uintptr(ptr) - uintptr(p.base)
	if uintptr(ptr) < uintptr(p.base) || off >= p.totalBytes {
		return nil
	}
	for l := uint(1); l <= p.level; l++ {
		size := p.sizeAtLevel(l)
		j := off / size
		idx := levelStartIndex(l) + int(j)
		if p.occupied.Contains(uint32(idx)) {
			e, ok := p.entries[idx]
			if !ok {
				return nil
			}
			if e.Contains(ptr) {
				return e
			}
			return nil
		}
	}
	return nil
}

// Contains is the cheaper, byte-range-only predicate behind Find.
func (p *Pool) Contains(ptr unsafe.Pointer) bool {
	off := uintptr(ptr) - uintptr(p.base)
	return uintptr(ptr) >= uintptr(p.base) && off < p.totalBytes
}

// IsInUse reports whether any entry is currently live in this pool.
func (p *Pool) IsInUse() bool { return p.entriesCount != 0 }

// TotalBytes, AllocatedBytes, Entries expose the pool's accounting fields
// read by the allocator's Stats snapshot.
func (p *Pool) TotalBytes() uintptr     { return p.totalBytes }
func (p *Pool) AllocatedBytes() uintptr { return p.allocatedBytes }
func (p *Pool) EntriesCount() int       { return p.entriesCount }
func (p *Pool) Threshold() uintptr      { return p.threshold }

// Release hands the backing page back to the Backend. Only valid once
// IsInUse() is false.
func (p *Pool) Release() error {
	return p.backend.Release(p.mem)
}
