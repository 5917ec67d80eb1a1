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

	"github.com/elastic/go-freelru"
)

const hotPoolCacheCapacity = 64

// hotPoolCache is the allocator's second line of defense for
// pointer->Entry resolution, sitting behind the spec's single-slot
// last_found_pool. It remembers, for recently-resolved pointers, which
// pool answered -- a workload that repeatedly hashes/compares the same
// handful of Blocks' raw pointers (the common case for nested containers)
// hits this cache instead of walking the full pool chain every time.
type hotPoolCache struct {
	lru *freelru.LRU[uintptr, *Pool]
}

func newHotPoolCache() *hotPoolCache {
	lru, err := freelru.New[uintptr, *Pool](hotPoolCacheCapacity, hashUintptr)
	if err != nil {
		// Only returns an error for a zero/invalid capacity; the constant
		// above is always valid.
		panic(err)
	}
	return &hotPoolCache{lru: lru}
}

func hashUintptr(k uintptr) uint32 {
	return uint32(k) ^ uint32(k>>32)
}

// record remembers that ptr was last resolved to p.
func (c *hotPoolCache) record(ptr unsafe.Pointer, p *Pool) {
	c.lru.Add(uintptr(ptr), p)
}

// lookup returns the pool last recorded for ptr, if it still contains it.
func (c *hotPoolCache) lookup(ptr unsafe.Pointer) *Pool {
	p, ok := c.lru.Get(uintptr(ptr))
	if !ok {
		return nil
	}
	if !p.Contains(ptr) {
		c.lru.Remove(uintptr(ptr))
		return nil
	}
	return p
}

// forget purges the whole cache, which drops every entry pointing at p
// along with all others. Called when p is released
// by collect_garbage so the cache never hands back a dangling pool.
func (c *hotPoolCache) forget(p *Pool) {
	c.lru.Purge()
}
