/*
Copyright © 2024 the InMAP authors.
This file is part of mpinterp.

mpinterp is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

mpinterp is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with mpinterp.  If not, see <http://www.gnu.org/licenses/>.
*/

package mpinterp

import (
	"fmt"
	"strconv"
)

// lkIndex is a control-point index in the notation of Lai and Kaplan
// (2022): interval walls sit on whole indices and interval centres on
// half indices, with the first wall at 1. The value stored is twice the
// paper index so that half steps are exact.
type lkIndex int

// half is the distance between a wall and the neighbouring centre.
const half lkIndex = 1

// wall returns the index of the i'th wall in paper notation.
func wall(i int) lkIndex { return lkIndex(2 * i) }

func (i lkIndex) String() string {
	if i%2 == 0 {
		return strconv.Itoa(int(i / 2))
	}
	return fmt.Sprintf("%d/2", int(i))
}

// lkArray is a dense array addressed by lkIndex. It holds values for
// indices min, min+stride, min+2*stride, ...
type lkArray struct {
	data   []float64
	min    lkIndex
	stride lkIndex
}

func newLKArray(n int, min, stride lkIndex) *lkArray {
	return &lkArray{data: make([]float64, n), min: min, stride: stride}
}

func (a *lkArray) max() lkIndex { return a.min + lkIndex(len(a.data)-1)*a.stride }

// offset converts i to a position in the backing slice. It panics
// with an *IndexError for indices that are off the stride or out of
// range.
func (a *lkArray) offset(i lkIndex) int {
	if (i-a.min)%a.stride != 0 {
		panic(&IndexError{Index: i, Min: a.min, Max: a.max(),
			Msg: fmt.Sprintf("not a multiple of the stride %v from the start", a.stride)})
	}
	if i < a.min || i > a.max() {
		panic(&IndexError{Index: i, Min: a.min, Max: a.max(), Msg: "out of range"})
	}
	return int((i - a.min) / a.stride)
}

func (a *lkArray) at(i lkIndex) float64 { return a.data[a.offset(i)] }

func (a *lkArray) set(i lkIndex, v float64) { a.data[a.offset(i)] = v }

// catchIndexError converts a panicking *IndexError into a returned
// error. Other panics are re-raised.
func catchIndexError(err *error) {
	if r := recover(); r != nil {
		ie, ok := r.(*IndexError)
		if !ok {
			panic(r)
		}
		*err = ie
	}
}
