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
	"strings"
)

// BoundaryHandling specifies how values are extrapolated beyond the
// first or last input interval.
type BoundaryHandling int

const (
	// Constant repeats the nearest interval value.
	Constant BoundaryHandling = iota
	// CubicExtrapolation extends a cubic fit through the interval
	// centres beyond the domain. It can overshoot.
	CubicExtrapolation
)

func (b BoundaryHandling) String() string {
	switch b {
	case Constant:
		return "constant"
	case CubicExtrapolation:
		return "cubic"
	default:
		return fmt.Sprintf("BoundaryHandling(%d)", int(b))
	}
}

// ParseBoundaryHandling returns the BoundaryHandling named by s.
func ParseBoundaryHandling(s string) (BoundaryHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant":
		return Constant, nil
	case "cubic", "cubic-extrapolation", "cubic_extrapolation":
		return CubicExtrapolation, nil
	default:
		return 0, fmt.Errorf("mpinterp: invalid boundary handling %q; valid options are 'constant' and 'cubic'", s)
	}
}

// An Extrapolator returns values for the two points in xOut, one below
// and one above all the points in xIn.
type Extrapolator interface {
	Extrapolate(xIn, yIn, xOut []float64) ([]float64, error)
}

// ExtrapolatorFunc adapts a function to the Extrapolator interface.
type ExtrapolatorFunc func(xIn, yIn, xOut []float64) ([]float64, error)

// Extrapolate calls f.
func (f ExtrapolatorFunc) Extrapolate(xIn, yIn, xOut []float64) ([]float64, error) {
	return f(xIn, yIn, xOut)
}

// BoundaryExtrapolator extrapolates each side of the domain according
// to its own policy.
type BoundaryExtrapolator struct {
	Left, Right BoundaryHandling
}

// DefaultExtrapolator holds the start of the series flat and lets the
// end follow its trend.
var DefaultExtrapolator = BoundaryExtrapolator{Left: Constant, Right: CubicExtrapolation}

// Extrapolate implements Extrapolator.
func (b BoundaryExtrapolator) Extrapolate(xIn, yIn, xOut []float64) ([]float64, error) {
	if len(xIn) == 0 || len(xIn) != len(yIn) {
		return nil, fmt.Errorf("mpinterp: extrapolate: %d x values and %d y values", len(xIn), len(yIn))
	}
	if len(xOut) != 2 {
		return nil, fmt.Errorf("mpinterp: extrapolate: want 2 output points, got %d", len(xOut))
	}
	last := len(xIn) - 1
	if xOut[0] >= xIn[0] || xOut[1] <= xIn[last] {
		return nil, fmt.Errorf("mpinterp: extrapolate: output points %v must lie outside [%g, %g]",
			xOut, xIn[0], xIn[last])
	}
	var fit *cubicFit
	side := func(h BoundaryHandling, x, edge float64) (float64, error) {
		switch h {
		case Constant:
			return edge, nil
		case CubicExtrapolation:
			if fit == nil {
				var err error
				if fit, err = fitCubic(xIn, yIn); err != nil {
					return 0, err
				}
			}
			return fit.predict(x), nil
		default:
			return 0, fmt.Errorf("mpinterp: extrapolate: unsupported boundary handling %v", h)
		}
	}
	left, err := side(b.Left, xOut[0], yIn[0])
	if err != nil {
		return nil, err
	}
	right, err := side(b.Right, xOut[1], yIn[last])
	if err != nil {
		return nil, err
	}
	return []float64{left, right}, nil
}
