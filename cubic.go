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

	"gonum.org/v1/gonum/interp"
)

// cubicFit is a cubic interpolant through a set of points. Unlike the
// gonum splines it wraps, it can be evaluated outside the range of the
// points: the polynomial of the nearest end segment is extended.
type cubicFit struct {
	xs, ys []float64
	spline *interp.NotAKnotCubic
	// left and right are the end segments of spline.
	left, right Patch
}

// fitCubic fits a not-a-knot cubic spline through xs and ys, which must
// be strictly increasing in x. With fewer than four points the
// interpolating polynomial of the highest possible degree is used.
func fitCubic(xs, ys []float64) (*cubicFit, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("mpinterp: cubic fit: %d x values but %d y values", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("mpinterp: cubic fit: no points")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, &UnsortedBoundsError{Index: i - 1, Lo: xs[i-1], Hi: xs[i],
				Argument: "cubic fit x values (strictly)"}
		}
	}
	c := &cubicFit{xs: xs, ys: ys}
	if len(xs) < 4 {
		return c, nil
	}
	c.spline = new(interp.NotAKnotCubic)
	if err := c.spline.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("mpinterp: cubic fit: %w", err)
	}
	n := len(xs)
	c.left = c.segment(xs[0], xs[1])
	c.right = c.segment(xs[n-2], xs[n-1])
	return c, nil
}

// segment returns the spline between two adjacent knots as a Patch.
func (c *cubicFit) segment(x0, x1 float64) Patch {
	return Patch{
		X:     x0,
		Delta: x1 - x0,
		S:     c.spline.Predict(x0),
		SHalf: c.spline.Predict(x1),
		M:     c.spline.PredictDerivative(x0),
		MHalf: c.spline.PredictDerivative(x1),
	}
}

func (c *cubicFit) predict(x float64) float64 {
	if c.spline == nil {
		return lagrange(c.xs, c.ys, x)
	}
	var p Patch
	switch {
	case x < c.xs[0]:
		p = c.left
	case x > c.xs[len(c.xs)-1]:
		p = c.right
	default:
		return c.spline.Predict(x)
	}
	v, _ := p.Calculate(x, false)
	return v
}

// lagrange evaluates the polynomial through (xs, ys) at x.
func lagrange(xs, ys []float64, x float64) float64 {
	var v float64
	for i := range xs {
		l := 1.0
		for j := range xs {
			if j != i {
				l *= (x - xs[j]) / (xs[i] - xs[j])
			}
		}
		v += ys[i] * l
	}
	return v
}
