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
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp/units"
	"gonum.org/v1/gonum/mat"
)

// Default numerical tolerances.
const (
	DefaultAtol             = 1e-10
	DefaultRtol             = 1e-7
	DefaultRtolUniformSteps = 1e-7
)

// LaiKaplan is the mean-preserving interpolation algorithm of
// Lai and Kaplan (2022), https://doi.org/10.1175/JTECH-D-21-0154.1.
// The interpolant is made of Hermite cubics on half intervals whose
// control points at the interval centres are chosen so that the
// integral over every input interval equals the input mean times the
// interval width.
//
// The zero value is usable; zero fields take the defaults used by
// NewLaiKaplan. A LaiKaplan is not modified by Interpolate and may be
// used concurrently.
type LaiKaplan struct {
	// Extrapolator provides values beyond the ends of the input.
	// The default is DefaultExtrapolator.
	Extrapolator Extrapolator

	// Walls estimates values at the input boundaries. The default is
	// CubicWalls.
	Walls WallEstimator

	// MinVal, if not nil, is the minimum allowed output value.
	MinVal *units.Quantity

	// MinValApplier enforces MinVal on the output for a single input
	// interval. The default is RymesMeyers.
	MinValApplier MinValApplier

	// Atol and Rtol are the tolerances used to decide whether an
	// output value equals MinVal.
	Atol, Rtol float64

	// RtolUniformSteps is the relative tolerance used to check that
	// the input boundaries are evenly spaced.
	RtolUniformSteps float64

	// ProgressBar specifies whether to show progress while evaluating
	// the output.
	ProgressBar bool

	// Log receives diagnostic messages. The default is the logrus
	// standard logger.
	Log logrus.FieldLogger
}

// NewLaiKaplan returns a LaiKaplan with all options set to their
// defaults.
func NewLaiKaplan() *LaiKaplan {
	return &LaiKaplan{
		Extrapolator:     DefaultExtrapolator,
		Walls:            CubicWalls,
		MinValApplier:    &RymesMeyers{},
		Atol:             DefaultAtol,
		Rtol:             DefaultRtol,
		RtolUniformSteps: DefaultRtolUniformSteps,
		Log:              logrus.StandardLogger(),
	}
}

func (lk *LaiKaplan) extrapolator() Extrapolator {
	if lk.Extrapolator == nil {
		return DefaultExtrapolator
	}
	return lk.Extrapolator
}

func (lk *LaiKaplan) walls() WallEstimator {
	if lk.Walls == nil {
		return CubicWalls
	}
	return lk.Walls
}

func (lk *LaiKaplan) minValApplier() MinValApplier {
	if lk.MinValApplier == nil {
		return &RymesMeyers{Atol: lk.atol(), Rtol: lk.rtol(), Log: lk.log()}
	}
	return lk.MinValApplier
}

func (lk *LaiKaplan) atol() float64 { return orDefault(lk.Atol, DefaultAtol) }
func (lk *LaiKaplan) rtol() float64 { return orDefault(lk.Rtol, DefaultRtol) }

func (lk *LaiKaplan) log() logrus.FieldLogger {
	if lk.Log == nil {
		return logrus.StandardLogger()
	}
	return lk.Log
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Interpolate returns the average of the interpolating function over
// each interval of xBoundsOut. xBoundsIn must be uniformly spaced and
// have one more element than yIn. xBoundsOut must be non-decreasing and
// lie within half an input step of the input domain.
func (lk *LaiKaplan) Interpolate(xBoundsIn, yIn, xBoundsOut units.Array) (out units.Array, err error) {
	defer catchIndexError(&err)

	if yIn.Len() == 0 {
		return out, fmt.Errorf("mpinterp: no input values")
	}
	if xBoundsIn.Len() != yIn.Len()+1 {
		return out, fmt.Errorf("mpinterp: %d input boundaries for %d input values; "+
			"want one more boundary than values", xBoundsIn.Len(), yIn.Len())
	}
	if xBoundsOut.Len() < 2 {
		return out, fmt.Errorf("mpinterp: at least two output boundaries are needed, got %d", xBoundsOut.Len())
	}
	xIn := xBoundsIn.Values
	if err := checkUniform(xIn, orDefault(lk.RtolUniformSteps, DefaultRtolUniformSteps)); err != nil {
		return out, err
	}
	xOutA, err := xBoundsOut.To(xBoundsIn.Unit)
	if err != nil {
		return out, fmt.Errorf("mpinterp: output boundaries: %w", err)
	}
	xOut := xOutA.Values
	if err := checkSorted(xOut, "output boundaries"); err != nil {
		return out, err
	}

	y := yIn.Values
	var minVal float64
	if lk.MinVal != nil {
		if minVal, err = lk.MinVal.Magnitude(yIn.Unit); err != nil {
			return out, fmt.Errorf("mpinterp: minimum value: %w", err)
		}
		for i, v := range y {
			if v < minVal {
				return out, &BelowMinimumError{Index: i, Value: yIn.At(i), Min: *lk.MinVal}
			}
		}
	}

	sol, err := lk.solve(xIn, y)
	if err != nil {
		return out, err
	}
	p := newProgress(lk.ProgressBar, len(xOut)-1, "Lai-Kaplan interpolation")
	vals, err := sol.evaluate(xOut, p)
	p.Done()
	if err != nil {
		return out, err
	}
	if lk.MinVal != nil {
		if vals, err = lk.applyMinVal(sol, xIn, y, xOut, vals, minVal); err != nil {
			return out, err
		}
	}
	return units.Array{Values: vals, Unit: yIn.Unit}, nil
}

func checkUniform(x []float64, rtol float64) error {
	if len(x) < 2 {
		return fmt.Errorf("mpinterp: at least two input boundaries are needed, got %d", len(x))
	}
	step := x[1] - x[0]
	if step <= 0 {
		return &UnsortedBoundsError{Index: 0, Lo: x[0], Hi: x[1], Argument: "input boundaries (strictly)"}
	}
	for i := 1; i < len(x)-1; i++ {
		s := x[i+1] - x[i]
		if math.Abs(s-step) > rtol*math.Abs(step) {
			return &NonUniformStepError{Index: i, Step: s, FirstStep: step, Rtol: rtol}
		}
	}
	return nil
}

func checkSorted(x []float64, name string) error {
	for i := 0; i < len(x)-1; i++ {
		if x[i] > x[i+1] {
			return &UnsortedBoundsError{Index: i, Lo: x[i], Hi: x[i+1], Argument: name}
		}
	}
	return nil
}

// lkSolution holds the solved control points of the interpolant. The
// control points run from the centre of the padding interval before
// the input (index 1/2) to the centre of the one after it (N+3/2).
type lkSolution struct {
	delta    float64
	x, y     *lkArray
	gradient *lkArray
}

func (s *lkSolution) last() lkIndex { return s.y.max() }

func (s *lkSolution) patch(k lkIndex) Patch {
	return Patch{
		X:     s.x.at(k),
		Delta: s.delta,
		S:     s.y.at(k),
		SHalf: s.y.at(k + half),
		M:     s.gradient.at(k),
		MHalf: s.gradient.at(k + half),
	}
}

// solve calculates the control points for uniformly spaced boundaries
// xIn and interval means y.
func (lk *LaiKaplan) solve(xIn, y []float64) (*lkSolution, error) {
	n := len(y)
	step := xIn[1] - xIn[0]
	delta := step / 2

	centres := make([]float64, n)
	for i := range centres {
		centres[i] = (xIn[i] + xIn[i+1]) / 2
	}
	padX := make([]float64, 0, n+2)
	padX = append(padX, centres[0]-step)
	padX = append(padX, centres...)
	padX = append(padX, centres[n-1]+step)

	ext, err := lk.extrapolator().Extrapolate(centres, y, []float64{padX[0], padX[n+1]})
	if err != nil {
		return nil, err
	}
	if len(ext) != 2 {
		return nil, fmt.Errorf("mpinterp: extrapolator returned %d values; want 2", len(ext))
	}
	padY := make([]float64, 0, n+2)
	padY = append(padY, ext[0])
	padY = append(padY, y...)
	padY = append(padY, ext[1])

	walls, err := lk.walls().EstimateWalls(padX, padY, xIn)
	if err != nil {
		return nil, err
	}
	if len(walls.Y) != n+1 || (walls.Flat != nil && len(walls.Flat) != n+1) {
		return nil, fmt.Errorf("mpinterp: wall estimator returned %d values and %d flags for %d walls",
			len(walls.Y), len(walls.Flat), n+1)
	}
	flat := func(j int) bool { return walls.Flat != nil && walls.Flat[j] }

	centreY, err := lk.solveCentres(y, walls, ext, step, delta, flat)
	if err != nil {
		return nil, err
	}

	sol := &lkSolution{
		delta:    delta,
		x:        newLKArray(2*n+3, half, half),
		y:        newLKArray(2*n+3, half, half),
		gradient: newLKArray(2*n+3, half, half),
	}
	last := sol.last()
	sol.x.set(half, xIn[0]-delta)
	sol.y.set(half, ext[0])
	sol.x.set(last, xIn[n]+delta)
	sol.y.set(last, ext[1])
	for j := 0; j <= n; j++ {
		sol.x.set(wall(j+1), xIn[j])
		sol.y.set(wall(j+1), walls.Y[j])
	}
	for i := 0; i < n; i++ {
		sol.x.set(wall(i+1)+half, centres[i])
		sol.y.set(wall(i+1)+half, centreY[i])
	}

	// Centred differences everywhere except the two outermost points,
	// which only have one neighbour.
	for k := wall(1); k < last; k += half {
		g := (sol.y.at(k+half) - sol.y.at(k-half)) / (2 * delta)
		if k%2 == 0 && flat(int(k/2)-1) {
			g = 0
		}
		sol.gradient.set(k, g)
	}
	sol.gradient.set(half, (sol.y.at(wall(1))-sol.y.at(half))/delta)
	sol.gradient.set(last, (sol.y.at(last)-sol.y.at(last-half))/delta)
	return sol, nil
}

// solveCentres solves the tridiagonal system for the control points at
// the interval centres.
func (lk *LaiKaplan) solveCentres(y []float64, walls Walls, ext []float64, step, delta float64, flat func(int) bool) ([]float64, error) {
	n := len(y)
	band := 1
	if n == 1 {
		band = 0
	}
	a := mat.NewBandDense(n, n, band, band, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a2 := lkA2
		rhs := step*y[i]/delta - lkBeta1*walls.Y[i] - lkBeta2*walls.Y[i+1]
		switch {
		case flat(i):
			a2 -= lkA2Left
		case i == 0:
			rhs -= lkA1 * ext[0]
		default:
			a.SetBand(i, i-1, lkA1)
		}
		switch {
		case flat(i + 1):
			a2 -= lkA2Right
		case i == n-1:
			rhs -= lkA3 * ext[1]
		default:
			a.SetBand(i, i+1, lkA3)
		}
		a.SetBand(i, i, a2)
		b.SetVec(i, rhs)
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var c mat.Condition
		if !errors.As(err, &c) {
			return nil, fmt.Errorf("mpinterp: solving for control points: %w", err)
		}
		lk.log().WithField("condition", float64(c)).Warn("mpinterp: control point system is ill-conditioned")
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// evaluate returns the average of the interpolant over each interval
// of xOut. Intervals may span any number of patches; zero-width
// intervals get the value of the interpolant at that point.
func (s *lkSolution) evaluate(xOut []float64, p progress) ([]float64, error) {
	last := s.last()
	lo, hi := s.x.at(half), s.x.at(last)
	for _, x := range []float64{xOut[0], xOut[len(xOut)-1]} {
		if (x < lo && !boundsEqual(x, lo)) || (x > hi && !boundsEqual(x, hi)) {
			return nil, &DomainError{X: x, Lo: lo, Hi: hi, Msg: "output boundary is beyond the interpolation domain"}
		}
	}
	out := make([]float64, len(xOut)-1)
	k := half
	for j := range out {
		a, b := xOut[j], xOut[j+1]
		for k+half < last && s.x.at(k+half) <= a {
			k += half
		}
		if a == b {
			out[j] = s.patch(k).CalculateU((a - s.x.at(k)) / s.delta)
			p.Incr()
			continue
		}
		var integral float64
		x0 := a
		for kk := k; ; kk += half {
			x1 := b
			if kk+half < last {
				x1 = math.Min(b, s.x.at(kk+half))
			}
			if x1 > x0 {
				v, err := s.patch(kk).IntegralDefinite(x0, x1, false)
				if err != nil {
					return nil, err
				}
				integral += v
			}
			if x1 >= b {
				break
			}
			x0 = x1
		}
		out[j] = integral / (b - a)
		p.Incr()
	}
	return out, nil
}

// applyMinVal snaps output values that are within tolerance of minVal
// to minVal and then, for each input interval whose output still falls
// below minVal, replaces that interval's output using the
// MinValApplier.
func (lk *LaiKaplan) applyMinVal(sol *lkSolution, xIn, yIn, xOut, out []float64, minVal float64) ([]float64, error) {
	atol, rtol := lk.atol(), lk.rtol()
	below := make([]float64, len(out))
	anyBelow := false
	for i, v := range out {
		if math.Abs(v-minVal) <= atol+rtol*math.Abs(minVal) {
			out[i] = minVal
		} else if v < minVal {
			below[i] = 1
			anyBelow = true
		}
	}
	if !anyBelow {
		return out, nil
	}
	counts, err := GroupSums(below, xOut, xIn)
	if err != nil {
		return nil, fmt.Errorf("mpinterp: enforcing the minimum value requires output boundaries "+
			"that include every input boundary: %w", err)
	}
	idx, err := GroupBoundaryIndices(xOut, xIn)
	if err != nil {
		return nil, err
	}
	applier := lk.minValApplier()
	for g, c := range counts {
		if c == 0 {
			continue
		}
		s, e := idx[g], idx[g+1]
		lk.log().WithFields(logrus.Fields{
			"interval":     g,
			"x_lower":      xIn[g],
			"values_below": int(c),
		}).Debug("mpinterp: enforcing minimum value")
		v, err := applier.ApplyMinVal(out[s:e], xOut[s:e+1],
			sol.y.at(wall(g+1)), sol.y.at(wall(g+2)), yIn[g], minVal)
		if err != nil {
			return nil, fmt.Errorf("mpinterp: enforcing minimum value in interval %d [%g, %g]: %w",
				g, xIn[g], xIn[g+1], err)
		}
		copy(out[s:e], v)
	}
	return out, nil
}
