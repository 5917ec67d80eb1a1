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

// ReinterpretAs succeeds iff the receiver's type has a binary-compatible
// base whose stride matches pattern's stride; the result is a borrowed,
// static, constant view with count scaled to the new stride.
func (b *Block) ReinterpretAs(pattern *Block) (*Block, error) {
	if b.typ == nil {
		return nil, ErrTypeMismatch
	}
	patternStride := pattern.stride()
	if patternStride == 0 {
		return nil, ErrTypeMismatch
	}
	for _, base := range b.typ.Bases {
		if !base.BinaryCompatible || base.BaseType == nil || base.BaseType.Size == 0 {
			continue
		}
		if base.BaseType.Size != patternStride {
			continue
		}
		totalBytes := uintptr(b.count) * base.BaseType.Size * uintptr(base.Count)
		newCount := int(totalBytes / patternStride)
		return &Block{
			alloc:    b.alloc,
			typ:      base.BaseType,
			state:    Static | Constant,
			count:    newCount,
			reserved: newCount,
			raw:      b.raw,
		}, nil
	}
	return nil, ErrTypeMismatch
}
