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
	"fmt"

	"github.com/edsrzf/mmap-go"
)

// Backend provides the backing bytes for one Pool's page. A Pool never
// outlives its Backend; Release is called exactly once, when the pool's
// entries drop to zero and collect_garbage reclaims it.
type Backend interface {
	Acquire(size int) ([]byte, error)
	Release(b []byte) error
	Name() string
}

// heapBackend satisfies Backend with an ordinary Go slice. It is the
// default: portable, and the only backend available once managed_memory's
// mmap path isn't wired (e.g. in a sandboxed test environment).
type heapBackend struct{}

func (heapBackend) Acquire(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapBackend) Release([]byte) error { return nil }

func (heapBackend) Name() string { return "heap" }

// mmapBackend satisfies Backend by mapping anonymous pages via mmap-go, so
// pool pages are real, page-aligned OS memory the same way erigon-lib maps
// its mdbx data files. Anonymous maps carry no file descriptor; mmap-go
// supports this via the ANON flag with a nil *os.File.
type mmapBackend struct{}

func (mmapBackend) Acquire(size int) ([]byte, error) {
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("mem: mmap anonymous region of %d bytes: %w", size, err)
	}
	return []byte(m), nil
}

func (mmapBackend) Release(b []byte) error {
	m := mmap.MMap(b)
	return m.Unmap()
}

func (mmapBackend) Name() string { return "mmap" }

// HeapBackend returns the stdlib-backed Backend.
func HeapBackend() Backend { return heapBackend{} }

// MmapBackend returns the mmap-go-backed Backend.
func MmapBackend() Backend { return mmapBackend{} }
