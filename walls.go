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

	"gonum.org/v1/gonum/interp"
)

// Walls holds estimates of the interpolated function at interval
// boundaries.
type Walls struct {
	Y []float64
	// Flat, if not nil, marks walls at which the gradient of the
	// interpolated function is held at zero.
	Flat []bool
}

// A WallEstimator estimates the values at wallsX of a function whose
// interval-centre values are intervalsY at intervalsX.
type WallEstimator interface {
	EstimateWalls(intervalsX, intervalsY, wallsX []float64) (Walls, error)
}

// WallFunc adapts a function to the WallEstimator interface.
type WallFunc func(intervalsX, intervalsY, wallsX []float64) []float64

// EstimateWalls calls f.
func (f WallFunc) EstimateWalls(intervalsX, intervalsY, wallsX []float64) (Walls, error) {
	return Walls{Y: f(intervalsX, intervalsY, wallsX)}, nil
}

// WallPolicy is one of the built-in wall estimators.
type WallPolicy int

const (
	// CubicWalls fits a cubic spline through the interval centres.
	CubicWalls WallPolicy = iota
	// LinearWalls interpolates linearly between interval centres.
	LinearWalls
	// LinearFlatStartWalls is LinearWalls, except that when the series
	// starts with a run of identical values the first wall after the
	// run keeps the run's value. If the run spans at least two input
	// intervals, that wall also gets a zero gradient, so the run stays
	// exactly flat. A single leading interval is left free to bend
	// into the next.
	LinearFlatStartWalls
)

func (p WallPolicy) String() string {
	switch p {
	case CubicWalls:
		return "cubic"
	case LinearWalls:
		return "linear"
	case LinearFlatStartWalls:
		return "linear-flat-start"
	default:
		return fmt.Sprintf("WallPolicy(%d)", int(p))
	}
}

// ParseWallPolicy returns the WallPolicy named by s.
func ParseWallPolicy(s string) (WallPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cubic":
		return CubicWalls, nil
	case "linear":
		return LinearWalls, nil
	case "linear-flat-start", "linear_flat_start":
		return LinearFlatStartWalls, nil
	default:
		return 0, fmt.Errorf("mpinterp: invalid wall policy %q; valid options are "+
			"'linear', 'linear-flat-start', and 'cubic'", s)
	}
}

// EstimateWalls implements WallEstimator.
func (p WallPolicy) EstimateWalls(intervalsX, intervalsY, wallsX []float64) (Walls, error) {
	switch p {
	case CubicWalls:
		fit, err := fitCubic(intervalsX, intervalsY)
		if err != nil {
			return Walls{}, err
		}
		y := make([]float64, len(wallsX))
		for i, x := range wallsX {
			y[i] = fit.predict(x)
		}
		return Walls{Y: y}, nil
	case LinearWalls:
		y, err := linearWalls(intervalsX, intervalsY, wallsX)
		return Walls{Y: y}, err
	case LinearFlatStartWalls:
		y, err := linearWalls(intervalsX, intervalsY, wallsX)
		if err != nil {
			return Walls{}, err
		}
		w := Walls{Y: y}
		// Constant left padding repeats the first value, so a run that
		// ends at wall i covers i input intervals.
		if i := firstChange(intervalsY); i > 0 && i < len(y) {
			w.Y[i] = intervalsY[0]
			if i >= 2 {
				w.Flat = make([]bool, len(y))
				w.Flat[i] = true
			}
		}
		return w, nil
	default:
		return Walls{}, fmt.Errorf("mpinterp: unsupported wall policy %v", p)
	}
}

func linearWalls(intervalsX, intervalsY, wallsX []float64) ([]float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(intervalsX, intervalsY); err != nil {
		return nil, fmt.Errorf("mpinterp: linear walls: %w", err)
	}
	y := make([]float64, len(wallsX))
	for i, x := range wallsX {
		y[i] = pl.Predict(x)
	}
	return y, nil
}

// firstChange returns the index of the first element of y that
// differs from its successor, or 0 if all elements are the same.
// With the padded intervals, this is also the index of the wall at
// the end of the initial run.
func firstChange(y []float64) int {
	for i := 0; i < len(y)-1; i++ {
		if y[i+1] != y[i] {
			return i
		}
	}
	return 0
}

// FixedWall forces the wall at X to value Y.
type FixedWall struct {
	X, Y float64
	// Flat additionally holds the gradient at the wall at zero.
	Flat bool
}

// ParseFixedWall parses a wall override written as "x=y" or
// "x=y:flat".
func ParseFixedWall(s string) (FixedWall, error) {
	var fw FixedWall
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return fw, fmt.Errorf("mpinterp: invalid fixed wall %q; want x=y", s)
	}
	if vv, ok := strings.CutSuffix(v, ":flat"); ok {
		v = vv
		fw.Flat = true
	}
	if _, err := fmt.Sscan(strings.TrimSpace(k), &fw.X); err != nil {
		return fw, fmt.Errorf("mpinterp: invalid fixed wall position in %q: %w", s, err)
	}
	if _, err := fmt.Sscan(strings.TrimSpace(v), &fw.Y); err != nil {
		return fw, fmt.Errorf("mpinterp: invalid fixed wall value in %q: %w", s, err)
	}
	return fw, nil
}

type fixedWalls struct {
	base  WallEstimator
	fixed []FixedWall
}

// WithFixedWalls returns a WallEstimator that uses base but overrides
// the walls at the given positions. This is used to force continuity
// where two separately-interpolated series meet. Every fixed position
// must be one of the walls.
func WithFixedWalls(base WallEstimator, fixed ...FixedWall) WallEstimator {
	return fixedWalls{base: base, fixed: fixed}
}

func (f fixedWalls) EstimateWalls(intervalsX, intervalsY, wallsX []float64) (Walls, error) {
	w, err := f.base.EstimateWalls(intervalsX, intervalsY, wallsX)
	if err != nil {
		return w, err
	}
	var missing []float64
	for _, fw := range f.fixed {
		i := -1
		for j, x := range wallsX {
			if boundsEqual(x, fw.X) {
				i = j
				break
			}
		}
		if i < 0 {
			missing = append(missing, fw.X)
			continue
		}
		w.Y[i] = fw.Y
		if fw.Flat {
			if w.Flat == nil {
				w.Flat = make([]bool, len(w.Y))
			}
			w.Flat[i] = true
		}
	}
	if missing != nil {
		xs := make([]float64, len(f.fixed))
		for i, fw := range f.fixed {
			xs[i] = fw.X
		}
		return w, &NonIntersectingBoundsError{Missing: missing, GroupBounds: xs, XBounds: wallsX}
	}
	return w, nil
}
