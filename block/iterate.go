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

// Element returns a borrowed, static, count-1 view of the i-th slot.
func (b *Block) Element(i int) (*Block, error) {
	if i < 0 || i >= b.count {
		return nil, ErrOutOfRange
	}
	return Borrowed(b.alloc, b.typ, b.slot(i)), nil
}

// ElementDense dereferences one level of sparsity: for a sparse Block it
// returns a view of the pointee rather than the {ptr,entry} cell.
func (b *Block) ElementDense(i int) (*Block, error) {
	if i < 0 || i >= b.count {
		return nil, ErrOutOfRange
	}
	if b.state.Has(Sparse) {
		c := sparseCellAt(b.raw, i)
		return Borrowed(b.alloc, b.typ, c.ptr), nil
	}
	return Borrowed(b.alloc, b.typ, b.slot(i)), nil
}

// ElementResolved additionally asks the element type to resolve its
// dynamic type, when a resolver is present.
func (b *Block) ElementResolved(i int) (*Block, error) {
	el, err := b.ElementDense(i)
	if err != nil {
		return nil, err
	}
	if el.typ != nil && el.typ.Resolve != nil {
		res := el.typ.Resolve(el.raw)
		return Borrowed(b.alloc, res.Type, res.Ptr), nil
	}
	return el, nil
}

// leafCount is the number of leaves reachable from b: b.count for a plain
// Block, the sum of children's leaf counts for a deep Block.
func (b *Block) leafCount() int {
	if b.typ != nil && b.typ.IsDeep {
		total := 0
		for i := 0; i < b.count; i++ {
			total += elemAt(b.raw, i).leafCount()
		}
		return total
	}
	return b.count
}

// BlockDeep returns the (non-deep) Block housing leaf index i across the
// union of nested deep blocks.
func (b *Block) BlockDeep(i int) (*Block, error) {
	if b.typ != nil && b.typ.IsDeep {
		for j := 0; j < b.count; j++ {
			child := elemAt(b.raw, j)
			n := child.leafCount()
			if i < n {
				return child.BlockDeep(i)
			}
			i -= n
		}
		return nil, ErrOutOfRange
	}
	if i < 0 || i >= b.count {
		return nil, ErrOutOfRange
	}
	return b, nil
}

// ElementDeep indexes leaf element i across the union of nested deep
// blocks, counting element_deeps as leaves.
func (b *Block) ElementDeep(i int) (*Block, error) {
	if b.typ != nil && b.typ.IsDeep {
		for j := 0; j < b.count; j++ {
			child := elemAt(b.raw, j)
			n := child.leafCount()
			if i < n {
				return child.ElementDeep(i)
			}
			i -= n
		}
		return nil, ErrOutOfRange
	}
	return b.Element(i)
}

// ForEachElement visits a borrowed single-element Block per entry. fn may
// mutate the element in place; mutating the Block's structure from within
// fn is undefined, per spec.md §4.4.
func (b *Block) ForEachElement(fn func(*Block) error) error {
	for i := 0; i < b.count; i++ {
		el, err := b.Element(i)
		if err != nil {
			return err
		}
		if err := fn(el); err != nil {
			return err
		}
	}
	return nil
}

// ForEachDeep recursively visits leaves, descending into is_deep elements.
func (b *Block) ForEachDeep(fn func(*Block) error, reverse, skipEmpty bool) error {
	if b.typ != nil && b.typ.IsDeep {
		if reverse {
			for i := b.count - 1; i >= 0; i-- {
				child := elemAt(b.raw, i)
				if skipEmpty && child.count == 0 {
					continue
				}
				if err := child.ForEachDeep(fn, reverse, skipEmpty); err != nil {
					return err
				}
			}
			return nil
		}
		for i := 0; i < b.count; i++ {
			child := elemAt(b.raw, i)
			if skipEmpty && child.count == 0 {
				continue
			}
			if err := child.ForEachDeep(fn, reverse, skipEmpty); err != nil {
				return err
			}
		}
		return nil
	}
	if skipEmpty && b.count == 0 {
		return nil
	}
	if reverse {
		for i := b.count - 1; i >= 0; i-- {
			el, err := b.Element(i)
			if err != nil {
				return err
			}
			if err := fn(el); err != nil {
				return err
			}
		}
		return nil
	}
	return b.ForEachElement(fn)
}

// Gather copies leaves matching the phase filter into out, in the
// direction requested (reverse or forward). Matching leaves are appended to
// out one after another (each as its own child Block when out is deep); the
// intermediate levels of b's hierarchy are not reproduced in out. A zero
// phase matches everything.
//
// Exact or_branch-during-gather semantics across mixed-phase elements are
// an open question in spec.md §9 ("intent versus empty containers is
// unclear"); this implementation treats phase as a plain bitmask filter
// and does not special-case or_branch, the resolution recorded in
// DESIGN.md.
func (b *Block) Gather(out *Block, phase State, reverse bool) error {
	matches := func(el *Block) bool {
		return phase == 0 || el.state&phase != 0
	}
	return b.ForEachDeep(func(el *Block) error {
		if !matches(el) {
			return nil
		}
		return out.InsertBlock(el, out.count, false)
	}, reverse, true)
}
