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

package vector

import (
	"unsafe"

	"github.com/erigontech/memblock/typedesc"
)

// TypeDescriptorFor returns (and caches) a POD TypeDescriptor for T. The
// cache itself lives in package typedesc (typedesc.For) so that hashtable
// and its container/hashset, container/hashmap facades can mint the same
// kind of synthetic descriptor without depending back on this package.
func TypeDescriptorFor[T any]() *typedesc.TypeDescriptor {
	return typedesc.For[T]()
}

func sizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
