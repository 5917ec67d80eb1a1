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

// Package xmath collects the small integer-arithmetic helpers the pool and
// allocator lean on for power-of-two bookkeeping: overflow-checked add/mul,
// ceiling division, and log2/next-power-of-2.
package xmath

import "math/bits"

// CeilDiv returns ceil(x/y), or 0 if y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// SafeMul returns x*y and whether the multiplication overflowed.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// SafeAdd returns x+y and whether the addition overflowed.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// IsPow2 reports whether n is a power of two (n must be > 0).
func IsPow2(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// NextPow2 returns the smallest power of two >= n. NextPow2(0) == 1.
func NextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	if IsPow2(n) {
		return n
	}
	return uint64(1) << uint(bits.Len64(n))
}

// Log2Floor returns floor(log2(n)) for n > 0.
func Log2Floor(n uint64) uint {
	return uint(bits.Len64(n)) - 1
}

// Log2Ceil returns ceil(log2(n)) for n > 0.
func Log2Ceil(n uint64) uint {
	if IsPow2(n) {
		return Log2Floor(n)
	}
	return Log2Floor(n) + 1
}

// RoundUp rounds x up to the nearest multiple of align (align must be a
// power of two).
func RoundUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}
