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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedVectorOrdersOnInsert(t *testing.T) {
	sv := NewSorted[int](newTestAlloc(t), func(a, b int) bool { return a < b })
	for _, v := range []int{5, 1, 4, 2, 3} {
		require.NoError(t, sv.InsertSorted(v))
	}

	var got []int
	sv.Range(func(v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSortedVectorRangeStopsEarly(t *testing.T) {
	sv := NewSorted[int](newTestAlloc(t), func(a, b int) bool { return a < b })
	for _, v := range []int{3, 1, 2} {
		require.NoError(t, sv.InsertSorted(v))
	}

	var got []int
	sv.Range(func(v int) bool {
		got = append(got, v)
		return v != 2
	})
	require.Equal(t, []int{1, 2}, got)
}
