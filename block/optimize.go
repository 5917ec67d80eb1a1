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

// Optimize brings a Block into idempotent normal form, per spec.md §4.4:
// a count-1 or_branch loses the or_branch flag, a deep block drops empty
// children, and a deep block left with exactly one child is replaced by
// that child.
func (b *Block) Optimize() error {
	if b.state.Has(OrBranch) && b.count == 1 {
		b.state = b.state.without(OrBranch)
	}
	if b.typ == nil || !b.typ.IsDeep {
		return nil
	}
	for i := 0; i < b.count; i++ {
		if err := elemAt(b.raw, i).Optimize(); err != nil {
			return err
		}
	}
	i := 0
	for i < b.count {
		if elemAt(b.raw, i).count == 0 {
			if err := b.RemoveAt(i, 1); err != nil {
				return err
			}
			continue
		}
		i++
	}
	if b.count == 1 {
		child := elemAt(b.raw, 0)
		flat := *child
		*child = Block{}
		if b.entry != nil {
			if err := b.alloc.Deallocate(b.entry); err != nil {
				return err
			}
		}
		*b = flat
	}
	return nil
}
