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

	"github.com/sirupsen/logrus"
)

// A MinValApplier adjusts the interpolated values within one input
// interval so that none are below minVal while their width-weighted
// mean stays equal to target. xBounds has one more element than values;
// leftBound and rightBound are the interpolant's values at the
// interval's edges.
type MinValApplier interface {
	ApplyMinVal(values, xBounds []float64, leftBound, rightBound, target, minVal float64) ([]float64, error)
}

// RymesMeyers enforces a minimum value by iterative local smoothing, in
// the manner of Rymes and Myers (2001),
// https://doi.org/10.1016/S0038-092X(01)00052-4. Each iteration replaces
// every value with the average of itself and its neighbours (the edge
// values stand in for the neighbours beyond the interval), shifts the
// result back to the target mean, clips it at the minimum, and finally
// rescales the excess over the minimum so that the mean is exact again.
//
// Every iteration ends with values that respect both the mean and the
// minimum, so stopping early only affects smoothness.
type RymesMeyers struct {
	// MinIterations and MaxIterations bound the number of iterations.
	// The defaults are 1 and 5000.
	MinIterations, MaxIterations int

	// Atol and Rtol are the convergence tolerances on the change in
	// each value between iterations. They are also used to decide
	// whether a value equals the minimum.
	Atol, Rtol float64

	Log logrus.FieldLogger
}

// ApplyMinVal implements MinValApplier.
func (rm *RymesMeyers) ApplyMinVal(values, xBounds []float64, leftBound, rightBound, target, minVal float64) ([]float64, error) {
	m := len(values)
	if m == 0 || len(xBounds) != m+1 {
		return nil, fmt.Errorf("mpinterp: Rymes-Meyers: %d values for %d boundaries", m, len(xBounds))
	}
	atol, rtol := orDefault(rm.Atol, DefaultAtol), orDefault(rm.Rtol, DefaultRtol)
	minIt := rm.MinIterations
	if minIt < 1 {
		minIt = 1
	}
	maxIt := rm.MaxIterations
	if maxIt < 1 {
		maxIt = 5000
	}
	if maxIt < minIt {
		maxIt = minIt
	}
	isMin := func(v float64) bool { return math.Abs(v-minVal) <= atol+rtol*math.Abs(minVal) }

	if target < minVal && !isMin(target) {
		return nil, fmt.Errorf("mpinterp: Rymes-Meyers: target mean %g is below the minimum %g", target, minVal)
	}
	y := make([]float64, m)
	if isMin(target) {
		for i := range y {
			y[i] = minVal
		}
		return y, nil
	}

	w := make([]float64, m)
	var width float64
	for i := range w {
		w[i] = xBounds[i+1] - xBounds[i]
		width += w[i]
	}
	mean := func(v []float64) float64 {
		var s float64
		for i, x := range v {
			s += w[i] * x
		}
		return s / width
	}

	for i, v := range values {
		if isMin(v) {
			v = minVal
		}
		y[i] = v
	}
	ghostL := math.Max(leftBound, minVal)
	ghostR := math.Max(rightBound, minVal)

	s := make([]float64, m)
	for it := 1; it <= maxIt; it++ {
		for i := range s {
			l, r := ghostL, ghostR
			if i > 0 {
				l = y[i-1]
			}
			if i < m-1 {
				r = y[i+1]
			}
			s[i] = (l + y[i] + r) / 3
		}
		shift := target - mean(s)
		var excess float64
		for i := range s {
			s[i] = math.Max(s[i]+shift, minVal)
			excess += w[i] * (s[i] - minVal)
		}
		if excess > 0 {
			f := width * (target - minVal) / excess
			for i := range s {
				s[i] = minVal + (s[i]-minVal)*f
			}
		}
		converged := true
		for i := range s {
			if math.Abs(s[i]-y[i]) > atol+rtol*math.Abs(y[i]) {
				converged = false
			}
		}
		y, s = s, y
		if converged && it >= minIt {
			return y, nil
		}
	}
	log := rm.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"iterations": maxIt,
		"x_lower":    xBounds[0],
		"x_upper":    xBounds[m],
	}).Warn("mpinterp: Rymes-Meyers minimum value enforcement did not converge")
	return y, nil
}
