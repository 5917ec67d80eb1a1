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

import "errors"

var (
	ErrStaticViolation      = errors.New("block: mutation of static (borrowed) block")
	ErrConstViolation       = errors.New("block: mutation of constant block")
	ErrTypeConstraint       = errors.New("block: type change on type-constrained block")
	ErrTypeMismatch         = errors.New("block: incompatible type, deepening not allowed")
	ErrAbstractInstantiation = errors.New("block: allocate of abstract type")
	ErrNoCopyCtor           = errors.New("block: type has no copy constructor")
	ErrNoMoveCtor           = errors.New("block: type has no move constructor")
	ErrNoDtor               = errors.New("block: type has no destructor")
	ErrNoClone              = errors.New("block: type has no clone operation")
	ErrNoDefaultCtor        = errors.New("block: type has no default constructor")
	ErrNoHash               = errors.New("block: type has no hash function")
	ErrNoCompare            = errors.New("block: type has no compare function")
	ErrOutOfRange           = errors.New("block: index out of range")
)
