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
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// BoundsEpsilon is the relative tolerance used when matching group
// boundaries against x boundaries. Boundaries that have been through a
// unit conversion (e.g. months to years) are rarely bit-identical.
const BoundsEpsilon = 1e-9

func boundsEqual(a, b float64) bool {
	return math.Abs(a-b) <= BoundsEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// GroupBoundaryIndices returns the index of each value of groupBounds
// within xBounds. Both must be non-decreasing.
func GroupBoundaryIndices(xBounds, groupBounds []float64) ([]int, error) {
	out := make([]int, len(groupBounds))
	var missing []float64
	for i, g := range groupBounds {
		j := sort.Search(len(xBounds), func(k int) bool {
			return xBounds[k] >= g || boundsEqual(xBounds[k], g)
		})
		if j == len(xBounds) || !boundsEqual(xBounds[j], g) {
			missing = append(missing, g)
			continue
		}
		out[i] = j
	}
	if missing != nil {
		return nil, &NonIntersectingBoundsError{
			Missing:     missing,
			GroupBounds: groupBounds,
			XBounds:     xBounds,
		}
	}
	return out, nil
}

// ElementsPerGroup returns the number of x intervals within each group.
func ElementsPerGroup(xBounds, groupBounds []float64) ([]int, error) {
	idx, err := GroupBoundaryIndices(xBounds, groupBounds)
	if err != nil {
		return nil, err
	}
	return elementsPerGroup(idx)
}

func elementsPerGroup(idx []int) ([]int, error) {
	if len(idx) < 2 {
		return nil, fmt.Errorf("mpinterp: at least two group boundaries are needed, got %d", len(idx))
	}
	n := make([]int, len(idx)-1)
	for i := range n {
		n[i] = idx[i+1] - idx[i]
		if n[i] <= 0 {
			return nil, fmt.Errorf("mpinterp: group %d contains no intervals "+
				"(boundary indices %d and %d)", i, idx[i], idx[i+1])
		}
	}
	return n, nil
}

// GroupIndices returns, for each interval in xBounds, the index of
// the group it belongs to. Intervals outside all groups get -1.
func GroupIndices(xBounds, groupBounds []float64) ([]int, error) {
	idx, err := GroupBoundaryIndices(xBounds, groupBounds)
	if err != nil {
		return nil, err
	}
	if _, err := elementsPerGroup(idx); err != nil {
		return nil, err
	}
	out := make([]int, len(xBounds)-1)
	for i := range out {
		out[i] = -1
	}
	for g := 0; g < len(idx)-1; g++ {
		for i := idx[g]; i < idx[g+1]; i++ {
			out[i] = g
		}
	}
	return out, nil
}

// GroupSums returns the sum of x within each group, where x holds one
// value per interval of xBounds.
func GroupSums(x, xBounds, groupBounds []float64) ([]float64, error) {
	if len(x) != len(xBounds)-1 {
		return nil, fmt.Errorf("mpinterp: %d values for %d boundaries; want one value per interval",
			len(x), len(xBounds))
	}
	idx, err := GroupBoundaryIndices(xBounds, groupBounds)
	if err != nil {
		return nil, err
	}
	if _, err := elementsPerGroup(idx); err != nil {
		return nil, err
	}
	cs := floats.CumSum(make([]float64, len(x)), x)
	// prefix returns the sum of x[:k]. Index k-1 into the cumulative
	// sum is negative for a group starting at the first interval.
	prefix := func(k int) float64 {
		if k-1 < 0 {
			return 0
		}
		return cs[k-1]
	}
	out := make([]float64, len(idx)-1)
	for g := range out {
		out[g] = prefix(idx[g+1]) - prefix(idx[g])
	}
	return out, nil
}

// GroupIntegrals returns the integral of the piecewise-constant function
// x over each group.
func GroupIntegrals(x, xBounds, groupBounds []float64) ([]float64, error) {
	if len(x) != len(xBounds)-1 {
		return nil, fmt.Errorf("mpinterp: %d values for %d boundaries; want one value per interval",
			len(x), len(xBounds))
	}
	w := make([]float64, len(x))
	for i, v := range x {
		w[i] = v * (xBounds[i+1] - xBounds[i])
	}
	return GroupSums(w, xBounds, groupBounds)
}

// GroupAverages returns the average of the piecewise-constant function
// x over each group.
func GroupAverages(x, xBounds, groupBounds []float64) ([]float64, error) {
	integrals, err := GroupIntegrals(x, xBounds, groupBounds)
	if err != nil {
		return nil, err
	}
	for g := range integrals {
		integrals[g] /= groupBounds[g+1] - groupBounds[g]
	}
	return integrals, nil
}
