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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// Padded interval centres and values for input years 2000-2005.
var (
	stepX     = []float64{1999.5, 2000.5, 2001.5, 2002.5, 2003.5, 2004.5, 2005.5, 2006.5}
	stepY     = []float64{5, 5, 5, 5, 5, 8, 8, 9}
	stepWalls = []float64{2000, 2001, 2002, 2003, 2004, 2005, 2006}
)

func TestLinearWalls(t *testing.T) {
	w, err := LinearWalls.EstimateWalls(stepX, stepY, stepWalls)
	require.NoError(t, err)
	want := []float64{5, 5, 5, 5, 6.5, 8, 8.5}
	if !floats.EqualApprox(w.Y, want, 1e-12) {
		t.Errorf("want %v, got %v", want, w.Y)
	}
	assert.Nil(t, w.Flat)

	// Values beyond the centres are held constant.
	w, err = LinearWalls.EstimateWalls([]float64{0.5, 1.5}, []float64{1, 3}, []float64{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, w.Y)
}

func TestLinearFlatStartWalls(t *testing.T) {
	w, err := LinearFlatStartWalls.EstimateWalls(stepX, stepY, stepWalls)
	require.NoError(t, err)
	want := []float64{5, 5, 5, 5, 5, 8, 8.5}
	if !floats.EqualApprox(w.Y, want, 1e-12) {
		t.Errorf("want %v, got %v", want, w.Y)
	}
	require.Len(t, w.Flat, len(stepWalls))
	for i, f := range w.Flat {
		if f != (i == 4) {
			t.Errorf("wall %d: want flat %v, got %v", i, i == 4, f)
		}
	}

	// A run of one input interval keeps its wall value but not a
	// zero gradient.
	y1 := []float64{100, 100, 110, 120, 130, 140, 150, 160}
	w, err = LinearFlatStartWalls.EstimateWalls(stepX, y1, stepWalls)
	require.NoError(t, err)
	if w.Flat != nil {
		t.Errorf("want no flat walls, got %v", w.Flat)
	}
	if w.Y[1] != 100 {
		t.Errorf("want wall value 100, got %g", w.Y[1])
	}
	if different(w.Y[2], 115, 1e-12) {
		t.Errorf("want linear wall 115, got %g", w.Y[2])
	}

	// Two intervals are enough for a flat start.
	y2 := []float64{100, 100, 100, 120, 130, 140, 150, 160}
	w, err = LinearFlatStartWalls.EstimateWalls(stepX, y2, stepWalls)
	require.NoError(t, err)
	require.Len(t, w.Flat, len(stepWalls))
	if !w.Flat[2] || w.Y[2] != 100 {
		t.Errorf("want flat wall 2 at 100, got flat %v at %g", w.Flat[2], w.Y[2])
	}

	// No flat start when the first padded value already differs.
	y := []float64{4, 5, 5, 5, 5, 8, 8, 9}
	w, err = LinearFlatStartWalls.EstimateWalls(stepX, y, stepWalls)
	require.NoError(t, err)
	assert.Nil(t, w.Flat)
	if different(w.Y[0], 4.5, 1e-12) {
		t.Errorf("want 4.5, got %g", w.Y[0])
	}

	// Nor for a series that never changes.
	w, err = LinearFlatStartWalls.EstimateWalls(stepX, []float64{1, 1, 1, 1, 1, 1, 1, 1}, stepWalls)
	require.NoError(t, err)
	assert.Nil(t, w.Flat)
}

func TestCubicWalls(t *testing.T) {
	y := make([]float64, len(stepX))
	for i, x := range stepX {
		y[i] = 3*x - 6000
	}
	w, err := CubicWalls.EstimateWalls(stepX, y, stepWalls)
	require.NoError(t, err)
	for i, x := range stepWalls {
		if math.Abs(w.Y[i]-(3*x-6000)) > 1e-8 {
			t.Errorf("want %g, got %g", 3*x-6000, w.Y[i])
		}
	}
}

func TestWallFunc(t *testing.T) {
	f := WallFunc(func(intervalsX, intervalsY, wallsX []float64) []float64 {
		o := make([]float64, len(wallsX))
		for i := range o {
			o[i] = float64(i)
		}
		return o
	})
	w, err := f.EstimateWalls(stepX, stepY, stepWalls)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6}, w.Y)
}

func TestFixedWalls(t *testing.T) {
	est := WithFixedWalls(LinearWalls, FixedWall{X: 2003, Y: 4}, FixedWall{X: 2005, Y: 7, Flat: true})
	w, err := est.EstimateWalls(stepX, stepY, stepWalls)
	require.NoError(t, err)
	if w.Y[3] != 4 {
		t.Errorf("want 4, got %g", w.Y[3])
	}
	if w.Y[5] != 7 {
		t.Errorf("want 7, got %g", w.Y[5])
	}
	if different(w.Y[4], 6.5, 1e-12) {
		t.Errorf("want 6.5, got %g", w.Y[4])
	}
	assert.True(t, w.Flat[5])
	assert.False(t, w.Flat[3])

	est = WithFixedWalls(LinearWalls, FixedWall{X: 2003.5, Y: 4})
	_, err = est.EstimateWalls(stepX, stepY, stepWalls)
	var ne *NonIntersectingBoundsError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.Equal(t, []float64{2003.5}, ne.Missing)
}

func TestParseFixedWall(t *testing.T) {
	fw, err := ParseFixedWall("2015=400.5")
	require.NoError(t, err)
	assert.Equal(t, FixedWall{X: 2015, Y: 400.5}, fw)
	fw, err = ParseFixedWall(" 2015 = 1e3:flat")
	require.NoError(t, err)
	assert.Equal(t, FixedWall{X: 2015, Y: 1000, Flat: true}, fw)
	for _, s := range []string{"2015", "x=1", "2015=y"} {
		_, err := ParseFixedWall(s)
		assert.Error(t, err, s)
	}
}

func TestParseWallPolicy(t *testing.T) {
	for _, p := range []WallPolicy{CubicWalls, LinearWalls, LinearFlatStartWalls} {
		got, err := ParseWallPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseWallPolicy("spline")
	assert.Error(t, err)
}
