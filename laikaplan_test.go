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
	"math"
	"testing"

	"github.com/spatialmodel/mpinterp/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	yr  = units.MustParse("yr")
	ppt = units.MustParse("ppt")
)

func years(start, n int) []float64 {
	o := make([]float64, n+1)
	for i := range o {
		o[i] = float64(start + i)
	}
	return o
}

// wavy returns a smooth but non-trivial test series.
func wavy(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 300 + 20*math.Sin(0.7*float64(i)) + float64(i)
	}
	return y
}

func checkMeans(t *testing.T, xIn, yIn, xOut, yOut []float64, tolerance float64) {
	t.Helper()
	avg, err := GroupAverages(yOut, xOut, xIn)
	require.NoError(t, err)
	for i := range yIn {
		if math.Abs(avg[i]-yIn[i]) > tolerance*math.Max(1, math.Abs(yIn[i])) {
			t.Errorf("interval %d: want mean %g, got %g", i, yIn[i], avg[i])
		}
	}
}

func TestLaiKaplanConstant(t *testing.T) {
	xIn := years(2000, 10)
	y := make([]float64, 10)
	for i := range y {
		y[i] = 7
	}
	for _, walls := range []WallEstimator{CubicWalls, LinearWalls, LinearFlatStartWalls} {
		lk := NewLaiKaplan()
		lk.Walls = walls
		for _, xOut := range [][]float64{
			SubdivideBounds(xIn, 12, 4),
			{2000, 2002, 2004, 2006, 2008, 2010},
			{2000.3, 2003.7, 2003.7, 2009.9},
		} {
			out, err := lk.Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
				units.NewArray(xOut, yr))
			require.NoError(t, err)
			require.Len(t, out.Values, len(xOut)-1)
			for i, v := range out.Values {
				if math.Abs(v-7) > 1e-12 {
					t.Errorf("%v walls, interval %d: want 7, got %g", walls, i, v)
				}
			}
			assert.Equal(t, "ppt", out.Unit.String())
		}
	}
}

func TestLaiKaplanMeanPreservation(t *testing.T) {
	xIn := years(1850, 40)
	y := wavy(40)
	irregular := SubdivideBounds(xIn, 3, -1)
	irregular = append(irregular[:10:10], append([]float64{1853.1, 1853.15}, irregular[10:]...)...)
	for _, walls := range []WallEstimator{CubicWalls, LinearWalls, LinearFlatStartWalls} {
		for _, xOut := range [][]float64{
			SubdivideBounds(xIn, 12, 4),
			SubdivideBounds(xIn, 7, -1),
			SubdivideBounds(xIn, 360, -1),
			irregular,
		} {
			lk := &LaiKaplan{Walls: walls}
			out, err := lk.Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
				units.NewArray(xOut, yr))
			require.NoError(t, err)
			checkMeans(t, xIn, y, xOut, out.Values, 1e-10)
		}
	}
}

func TestLaiKaplanIdempotent(t *testing.T) {
	xIn := years(2015, 12)
	y := wavy(12)
	out, err := NewLaiKaplan().Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
		units.NewArray(xIn, yr))
	require.NoError(t, err)
	for i := range y {
		if different(out.Values[i], y[i], 1e-12) {
			t.Errorf("interval %d: want %g, got %g", i, y[i], out.Values[i])
		}
	}
}

func TestLaiKaplanUnits(t *testing.T) {
	xIn := years(2000, 5)
	y := wavy(5)
	months := SubdivideBounds(xIn, 12, -1)
	for i := range months {
		months[i] *= 12
	}
	out, err := NewLaiKaplan().Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
		units.NewArray(months, units.MustParse("month")))
	require.NoError(t, err)
	require.Len(t, out.Values, 60)
	checkMeans(t, xIn, y, SubdivideBounds(xIn, 12, -1), out.Values, 1e-9)

	_, err = NewLaiKaplan().Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
		units.NewArray(xIn, ppt))
	var ie *units.IncompatibleError
	assert.True(t, errors.As(err, &ie), "got %v", err)
}

func TestLaiKaplanErrors(t *testing.T) {
	lk := NewLaiKaplan()
	y := wavy(4)

	_, err := lk.Interpolate(units.NewArray([]float64{0, 1, 2, 3.5, 4}, yr), units.NewArray(y, ppt),
		units.NewArray([]float64{0, 4}, yr))
	var nu *NonUniformStepError
	require.True(t, errors.As(err, &nu), "got %v", err)
	if nu.Index != 2 {
		t.Errorf("want 2, got %d", nu.Index)
	}
	if nu.Step != 1.5 {
		t.Errorf("want 1.5, got %g", nu.Step)
	}

	_, err = lk.Interpolate(units.NewArray(years(0, 4), yr), units.NewArray(y, ppt),
		units.NewArray([]float64{0, 2, 1, 4}, yr))
	var ue *UnsortedBoundsError
	require.True(t, errors.As(err, &ue), "got %v", err)
	if ue.Index != 1 {
		t.Errorf("want 1, got %d", ue.Index)
	}

	_, err = lk.Interpolate(units.NewArray(years(0, 4), yr), units.NewArray(y, ppt),
		units.NewArray([]float64{-2, 4}, yr))
	var de *DomainError
	require.True(t, errors.As(err, &de), "got %v", err)
	if de.X != -2 {
		t.Errorf("want -2, got %g", de.X)
	}

	_, err = lk.Interpolate(units.NewArray(years(0, 3), yr), units.NewArray(y, ppt),
		units.NewArray([]float64{0, 4}, yr))
	assert.Error(t, err)
}

// Output may extend half an input step past either end of the input.
func TestLaiKaplanPadding(t *testing.T) {
	xIn := years(0, 6)
	y := []float64{1, 2, 3, 4, 5, 6}
	lk := &LaiKaplan{Extrapolator: BoundaryExtrapolator{CubicExtrapolation, CubicExtrapolation}, Walls: LinearWalls}
	out, err := lk.Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
		units.NewArray([]float64{-0.5, 0, 6, 6.5}, yr))
	require.NoError(t, err)
	if different(out.Values[0], 0.25, 1e-9) {
		t.Errorf("want 0.25, got %g", out.Values[0])
	}
	if different(out.Values[1], 3.5, 1e-9) {
		t.Errorf("want 3.5, got %g", out.Values[1])
	}
	if different(out.Values[2], 6.75, 1e-9) {
		t.Errorf("want 6.75, got %g", out.Values[2])
	}
}

func TestLaiKaplanBelowMinimumInput(t *testing.T) {
	minVal := units.Q(0, ppt)
	evaluated := false
	lk := &LaiKaplan{
		MinVal: &minVal,
		Walls: WallFunc(func(intervalsX, intervalsY, wallsX []float64) []float64 {
			evaluated = true
			return make([]float64, len(wallsX))
		}),
	}
	out, err := lk.Interpolate(units.NewArray(years(0, 3), yr), units.NewArray([]float64{1, -1e-3, 2}, ppt),
		units.NewArray(years(0, 3), yr))
	var be *BelowMinimumError
	require.True(t, errors.As(err, &be), "got %v", err)
	if be.Index != 1 {
		t.Errorf("want 1, got %d", be.Index)
	}
	if be.Value.Value != -1e-3 {
		t.Errorf("want -1e-3, got %g", be.Value.Value)
	}
	assert.Nil(t, out.Values)
	assert.False(t, evaluated, "no solve should be attempted")

	// The minimum is compared in the units of the input.
	minVal = units.Q(1, units.MustParse("ppb"))
	_, err = lk.Interpolate(units.NewArray(years(0, 3), yr), units.NewArray([]float64{1500, 999, 2000}, ppt),
		units.NewArray(years(0, 3), yr))
	require.True(t, errors.As(err, &be), "got %v", err)
	if be.Index != 1 {
		t.Errorf("want 1, got %d", be.Index)
	}
}

func TestLaiKaplanMinimum(t *testing.T) {
	xIn := years(2000, 6)
	y := []float64{10, 10, 0.01, 0.01, 10, 10}
	xOut := SubdivideBounds(xIn, 12, 4)
	xInA, yA, xOutA := units.NewArray(xIn, yr), units.NewArray(y, ppt), units.NewArray(xOut, yr)

	raw, err := (&LaiKaplan{Walls: LinearWalls}).Interpolate(xInA, yA, xOutA)
	require.NoError(t, err)
	rawMin := math.Inf(1)
	for _, v := range raw.Values {
		rawMin = math.Min(rawMin, v)
	}
	require.Less(t, rawMin, 0.0, "the test series should need correcting")

	minVal := units.Q(0, ppt)
	lk := &LaiKaplan{Walls: LinearWalls, MinVal: &minVal}
	out, err := lk.Interpolate(xInA, yA, xOutA)
	require.NoError(t, err)
	for i, v := range out.Values {
		if v < 0 {
			t.Errorf("month %d: %g is below the minimum", i, v)
		}
	}
	checkMeans(t, xIn, y, xOut, out.Values, 1e-9)

	// Intervals that didn't need correcting are untouched.
	for i := 0; i < 12; i++ {
		assert.Equal(t, raw.Values[i], out.Values[i])
	}

	// Enforcing a minimum needs the output to line up with the input.
	_, err = lk.Interpolate(xInA, yA, units.NewArray(SubdivideBounds([]float64{2000.5, 2005.5}, 60, -1), yr))
	var ne *NonIntersectingBoundsError
	assert.True(t, errors.As(err, &ne), "got %v", err)
}

func TestLaiKaplanFlatStart(t *testing.T) {
	xIn := years(2000, 6)
	y := []float64{5, 5, 5, 5, 8, 8}
	xOut := SubdivideBounds(xIn, 12, 4)
	run := func(walls WallEstimator) []float64 {
		out, err := (&LaiKaplan{Walls: walls}).Interpolate(units.NewArray(xIn, yr),
			units.NewArray(y, ppt), units.NewArray(xOut, yr))
		require.NoError(t, err)
		checkMeans(t, xIn, y, xOut, out.Values, 1e-10)
		return out.Values
	}
	flat := run(LinearFlatStartWalls)
	for i := 0; i < 48; i++ {
		if math.Abs(flat[i]-5) > 1e-12 {
			t.Errorf("flat start month %d: want 5, got %g", i, flat[i])
		}
	}
	linear := run(LinearWalls)
	var maxDev float64
	for i := 0; i < 48; i++ {
		maxDev = math.Max(maxDev, math.Abs(linear[i]-5))
	}
	assert.Greater(t, maxDev, 1e-3, "linear walls should not keep the start flat")
}

func TestLaiKaplanFixedWalls(t *testing.T) {
	xIn := years(2000, 8)
	y := wavy(8)
	xOut := SubdivideBounds(xIn, 12, 4)
	lk := &LaiKaplan{Walls: WithFixedWalls(CubicWalls, FixedWall{X: 2004, Y: 310, Flat: true})}
	out, err := lk.Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt), units.NewArray(xOut, yr))
	require.NoError(t, err)
	checkMeans(t, xIn, y, xOut, out.Values, 1e-10)

	// The months either side of the fixed wall approach its value.
	p, err := (&LaiKaplan{Walls: lk.Walls}).Interpolate(units.NewArray(xIn, yr), units.NewArray(y, ppt),
		units.NewArray([]float64{2004, 2004}, yr))
	require.NoError(t, err)
	if different(p.Values[0], 310, 1e-9) {
		t.Errorf("want 310, got %g", p.Values[0])
	}
}

func TestLaiKaplanProgressBar(t *testing.T) {
	xIn := years(2000, 3)
	lk := NewLaiKaplan()
	lk.ProgressBar = true
	out, err := lk.Interpolate(units.NewArray(xIn, yr), units.NewArray(wavy(3), ppt),
		units.NewArray(SubdivideBounds(xIn, 12, 4), yr))
	require.NoError(t, err)
	assert.Len(t, out.Values, 36)
}

func TestSingleInterval(t *testing.T) {
	xIn := []float64{0, 1}
	out, err := NewLaiKaplan().Interpolate(units.NewArray(xIn, yr), units.NewArray([]float64{3}, ppt),
		units.NewArray(SubdivideBounds(xIn, 4, -1), yr))
	require.NoError(t, err)
	for _, v := range out.Values {
		if different(v, 3, 1e-12) {
			t.Errorf("want 3, got %g", v)
		}
	}
}
