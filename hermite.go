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

// Hermite basis polynomials on u ∈ [0, 1], as coefficients in order of
// increasing power. The first index selects values (0) or derivatives
// (1); the second selects the left (0) or right (1) end of the patch.
var hermiteCubics = [2][2][4]float64{
	{
		{1, 0, -3, 2}, // h00
		{0, 0, 3, -2}, // h01
	},
	{
		{0, 1, -2, 1}, // h10
		{0, 0, -1, 1}, // h11
	},
}

// hermiteQuartics are the antiderivatives of hermiteCubics that vanish
// at u = 0.
var hermiteQuartics = [2][2][5]float64{
	{
		{0, 1, 0, -1, 1.0 / 2},
		{0, 0, 0, 1, -1.0 / 2},
	},
	{
		{0, 0, 1.0 / 2, -2.0 / 3, 1.0 / 4},
		{0, 0, 0, -1.0 / 3, 1.0 / 4},
	},
}

// polyval evaluates the polynomial with coefficients c (increasing
// power) at x.
func polyval(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// Coefficients of the linear system for the interior control points.
// Each row reads
//
//	a1*y[i-1] + a2*y[i] + a3*y[i+1] = A[i]/δ - β1*wall[i] - β2*wall[i+1]
//
// where A[i] is the integral of the input over interval i. They follow
// from integrating the two Hermite patches that make up each interval.
var (
	q00 = polyval(hermiteQuartics[0][0][:], 1)
	q01 = polyval(hermiteQuartics[0][1][:], 1)
	q10 = polyval(hermiteQuartics[1][0][:], 1)
	q11 = polyval(hermiteQuartics[1][1][:], 1)

	lkA1 = -q10 / 2
	lkA2 = q00 + q01 + q10/2 - q11/2
	lkA3 = q11 / 2

	lkBeta1 = q00 - q10/2 - q11/2
	lkBeta2 = q01 + q10/2 + q11/2

	// The parts of a2 that come from the gradients at the left and
	// right walls of an interval. They drop out, together with a1 or a3,
	// when the gradient at that wall is held at zero.
	lkA2Left  = q10 / 2
	lkA2Right = -q11 / 2
)
