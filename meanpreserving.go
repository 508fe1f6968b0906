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

	"github.com/spatialmodel/mpinterp/units"
)

// Algorithm is a mean-preserving interpolation algorithm. Interpolate
// returns one value per interval of xBoundsOut, each the average of the
// algorithm's interpolating function over that interval.
type Algorithm interface {
	Interpolate(xBoundsIn, yIn, xBoundsOut units.Array) (units.Array, error)
}

// VerifyOptions control the mean-preservation check in MeanPreserving.
type VerifyOptions struct {
	Verify bool
	// Atol and Rtol default to DefaultAtol and DefaultRtol.
	Atol, Rtol float64
}

// MeanPreserving interpolates yIn, defined on the intervals of
// xBoundsIn, onto the intervals of xBoundsOut using alg. If
// opts.Verify is true, the result is aggregated back onto the input
// intervals and compared with yIn, which requires every input boundary
// to also be an output boundary.
func MeanPreserving(alg Algorithm, xBoundsIn, yIn, xBoundsOut units.Array, opts VerifyOptions) (units.Array, error) {
	out, err := alg.Interpolate(xBoundsIn, yIn, xBoundsOut)
	if err != nil {
		return out, err
	}
	if opts.Verify {
		err = VerifyMeans(xBoundsIn, yIn, xBoundsOut, out,
			orDefault(opts.Atol, DefaultAtol), orDefault(opts.Rtol, DefaultRtol))
	}
	return out, err
}

// VerifyMeans checks that yOut averages to yIn over each input
// interval. It returns a *MeanPreservationError describing the worst
// interval if any interval differs by more than atol + rtol*|yIn|.
func VerifyMeans(xBoundsIn, yIn, xBoundsOut, yOut units.Array, atol, rtol float64) error {
	xOut, err := xBoundsOut.Magnitudes(xBoundsIn.Unit)
	if err != nil {
		return fmt.Errorf("mpinterp: verifying means: %w", err)
	}
	y, err := yOut.Magnitudes(yIn.Unit)
	if err != nil {
		return fmt.Errorf("mpinterp: verifying means: %w", err)
	}
	avg, err := GroupAverages(y, xOut, xBoundsIn.Values)
	if err != nil {
		return fmt.Errorf("mpinterp: verifying means: %w", err)
	}
	worst, maxDiff := -1, 0.0
	failed := false
	for i, want := range yIn.Values {
		d := math.Abs(avg[i] - want)
		if d > atol+rtol*math.Abs(want) || math.IsNaN(d) {
			failed = true
		}
		if d > maxDiff || math.IsNaN(d) || worst < 0 {
			worst, maxDiff = i, d
		}
	}
	if !failed {
		return nil
	}
	return &MeanPreservationError{
		Index:   worst,
		Want:    yIn.At(worst),
		Got:     units.Q(avg[worst], yIn.Unit),
		AbsDiff: maxDiff,
		Atol:    atol,
		Rtol:    rtol,
	}
}

// SubdivideBounds splits each interval of xBounds into factor equal
// parts. New boundaries are rounded to the given number of decimal
// places unless rounding is negative; the original boundaries are kept
// as they are.
func SubdivideBounds(xBounds []float64, factor, rounding int) []float64 {
	if factor < 1 {
		factor = 1
	}
	if len(xBounds) == 0 {
		return nil
	}
	p := math.Pow(10, float64(rounding))
	out := make([]float64, 0, (len(xBounds)-1)*factor+1)
	for i := 0; i < len(xBounds)-1; i++ {
		out = append(out, xBounds[i])
		w := xBounds[i+1] - xBounds[i]
		for k := 1; k < factor; k++ {
			x := xBounds[i] + w*float64(k)/float64(factor)
			if rounding >= 0 {
				x = math.RoundToEven(x*p) / p
			}
			out = append(out, x)
		}
	}
	return append(out, xBounds[len(xBounds)-1])
}
