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
	"golang.org/x/sync/singleflight"

	"github.com/erigontech/memblock/internal/xlog"
)

// Allocator is the spec's top-level entry point (§4.2): it chains Pools
// together, allocates directly from the Backend when managed memory is
// disabled, and tracks every live Entry for reverse lookup.
//
// Like Pool, Allocator carries no locking of its own -- callers sharing one
// across goroutines must hold an external lock across every method call.
type Allocator struct {
	cfg Config
	log *xlog.Logger

	pools         *Pool // head of the pool chain (default_pool_chain)
	lastFoundPool *Pool // single-slot cache checked before hotPoolCache
	hot           *hotPoolCache

	mallocEntries map[unsafe.Pointer]*Entry // fallback-backed live entries

	gcGroup singleflight.Group

	stats Stats
	prom  *promStats
}

// NewAllocator builds an Allocator from cfg, creating its first pool
// immediately when cfg.ManagedMemory is set. Further pools are added on
// demand, and CollectGarbage may retire every pool, the first included.
func NewAllocator(cfg Config) (*Allocator, error) {
	log := cfg.Logger
	if log == nil {
		log = xlog.Nop()
	}
	a := &Allocator{
		cfg:           cfg,
		log:           log,
		hot:           newHotPoolCache(),
		mallocEntries: make(map[unsafe.Pointer]*Entry),
	}
	if cfg.PrometheusStats {
		a.prom = newPromStats()
	}
	if cfg.ManagedMemory {
		p, err := NewPool(cfg.Backend, cfg.DefaultPoolSize, cfg.MinAllocation, cfg.Align, log)
		if err != nil {
			return nil, err
		}
		a.pools = p
	}
	return a, nil
}

// Allocate reserves size bytes and returns the owning Entry. When managed
// memory is enabled it tries every pool in the chain in order, growing the
// chain with a fresh, larger pool if none can satisfy the request; with
// managed memory disabled it allocates from the configured Backend
// directly.
func (a *Allocator) Allocate(size int) (*Entry, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	if a.cfg.ManagedMemory {
		for p := a.pools; p != nil; p = p.next {
			e, err := p.Allocate(size)
			if err == nil {
				a.lastFoundPool = p
				a.hot.record(e.Ptr(), p)
				a.touchStats()
				return e, nil
			}
			if !errors.Is(err, ErrPoolFull) {
				return nil, err
			}
		}
		// No existing pool fit; grow the chain with a pool at least large
		// enough for this request, doubling from the configured default. A
		// pool's largest slot is half the pool, so that half must hold
		// size+header plus alignment padding.
		newSize := a.cfg.DefaultPoolSize
		for newSize/2 < uint64(size)+uint64(entryHeaderBytes)+uint64(a.cfg.Align) {
			newSize *= 2
		}
		p, err := NewPool(a.cfg.Backend, newSize, a.cfg.MinAllocation, a.cfg.Align, a.log)
		if err != nil {
			return nil, errors.WithMessage(ErrOutOfMemory, err.Error())
		}
		p.next = a.pools
		a.pools = p
		e, err := p.Allocate(size)
		if err != nil {
			return nil, err
		}
		a.lastFoundPool = p
		a.hot.record(e.Ptr(), p)
		a.touchStats()
		return e, nil
	}
	return a.allocateMalloc(size)
}

func (a *Allocator) allocateMalloc(size int) (*Entry, error) {
	buf, err := a.cfg.Backend.Acquire(size)
	if err != nil {
		return nil, errors.WithMessage(ErrOutOfMemory, err.Error())
	}
	e := &Entry{
		allocatedBytes: uintptr(size),
		uses:           1,
		mallocBacked:   true,
		ptr:            unsafe.Pointer(&buf[0]),
	}
	a.mallocEntries[e.ptr] = e
	a.touchStats()
	return e, nil
}

// Reallocate grows or shrinks e to newSize in place when it can, reporting
// moved == false on success. moved == true means e was left as it was and
// the caller must satisfy newSize with a fresh Allocate + data copy.
// Pool-backed entries try in-place resizing (Pool.Reallocate); fallback-
// backed entries always report moved. The copy is left to the caller since
// Allocator does not know the element type needed to copy correctly --
// copying raw bytes is the caller's (block package's) responsibility.
func (a *Allocator) Reallocate(e *Entry, newSize int) (moved bool, err error) {
	if e.mallocBacked {
		return true, nil
	}
	if e.pool.Reallocate(e, newSize) {
		return false, nil
	}
	return true, nil
}

// Deallocate releases e back to its owning pool, or stops tracking a
// fallback-backed entry (its buffer is not passed to Backend.Release). A
// pool left empty stays in the chain until CollectGarbage retires it.
func (a *Allocator) Deallocate(e *Entry) error {
	if e.mallocBacked {
		delete(a.mallocEntries, e.ptr)
		a.touchStats()
		return nil
	}
	p := e.pool
	if err := p.Deallocate(e); err != nil {
		return err
	}
	if a.lastFoundPool == p {
		a.lastFoundPool = nil
	}
	a.touchStats()
	return nil
}

// Find resolves ptr to its owning Entry, checking last_found_pool, then the
// hot pool cache, then walking the full chain, then the fallback map.
func (a *Allocator) Find(ptr unsafe.Pointer) *Entry {
	if a.lastFoundPool != nil {
		if e := a.lastFoundPool.Find(ptr); e != nil {
			return e
		}
	}
	if p := a.hot.lookup(ptr); p != nil {
		if e := p.Find(ptr); e != nil {
			a.lastFoundPool = p
			return e
		}
	}
	for p := a.pools; p != nil; p = p.next {
		if e := p.Find(ptr); e != nil {
			a.lastFoundPool = p
			a.hot.record(ptr, p)
			return e
		}
	}
	if e, ok := a.mallocEntries[ptr]; ok {
		return e
	}
	return nil
}

// CheckAuthority reports whether ptr falls within memory this allocator
// owns, without requiring it to resolve to a live entry.
func (a *Allocator) CheckAuthority(ptr unsafe.Pointer) bool {
	for p := a.pools; p != nil; p = p.next {
		if p.Contains(ptr) {
			return true
		}
	}
	_, ok := a.mallocEntries[ptr]
	return ok
}

// References returns the current refcount for the entry owning ptr, or -1
// if ptr is not tracked by this allocator.
func (a *Allocator) References(ptr unsafe.Pointer) int {
	e := a.Find(ptr)
	if e == nil {
		return -1
	}
	return e.Uses()
}

// Keep increments ptr's owning entry's refcount by n.
func (a *Allocator) Keep(ptr unsafe.Pointer, n int) error {
	e := a.Find(ptr)
	if e == nil {
		return errors.WithStack(ErrPoolCorrupt)
	}
	e.Keep(n)
	return nil
}

// Free decrements ptr's owning entry's refcount by n and, if it reaches
// zero, deallocates it. Reports whether the entry was freed.
func (a *Allocator) Free(ptr unsafe.Pointer, n int) (bool, error) {
	e := a.Find(ptr)
	if e == nil {
		return false, errors.WithStack(ErrPoolCorrupt)
	}
	zero, err := e.Free(n, a.cfg.Stats)
	if err != nil {
		return false, err
	}
	if zero {
		return true, a.Deallocate(e)
	}
	return false, nil
}

// CollectGarbage retires every pool in the chain with no live entries,
// returning their backing pages to the Backend. Concurrent external-lock
// holders asking for a sweep at the same time are coalesced into one pass
// via singleflight, since a sweep is idempotent and the result doesn't
// depend on which caller's request triggered it.
func (a *Allocator) CollectGarbage() error {
	_, err, _ := a.gcGroup.Do("sweep", func() (interface{}, error) {
		return nil, a.sweep()
	})
	return err
}

func (a *Allocator) sweep() error {
	var kept *Pool
	var tail *Pool
	for p := a.pools; p != nil; {
		next := p.next
		if p.IsInUse() {
			p.next = nil
			if kept == nil {
				kept = p
				tail = p
			} else {
				tail.next = p
				tail = p
			}
		} else {
			if a.lastFoundPool == p {
				a.lastFoundPool = nil
			}
			a.hot.forget(p)
			if err := p.Release(); err != nil {
				return err
			}
			a.log.Debug("pool released", "backend", p.backend.Name())
		}
		p = next
	}
	a.pools = kept
	a.touchStats()
	return nil
}

// Stats returns a snapshot of the allocator's current counters. Zero value
// if Config.Stats was not enabled.
func (a *Allocator) Stats() Stats { return a.stats }

func (a *Allocator) touchStats() {
	if !a.cfg.Stats {
		return
	}
	var s Stats
	for p := a.pools; p != nil; p = p.next {
		s.Pools++
		s.BytesFrontend += uint64(p.AllocatedBytes())
		s.Entries += p.EntriesCount()
	}
	for _, e := range a.mallocEntries {
		s.Entries++
		s.BytesBackend += uint64(e.AllocatedBytes())
	}
	a.stats = s
	a.prom.update(s)
}
