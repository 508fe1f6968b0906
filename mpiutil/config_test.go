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


package mpiutil

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/mpinterp"
	"github.com/spatialmodel/mpinterp/seriesio"
	"github.com/spatialmodel/mpinterp/units"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinValue(t *testing.T) {
	for _, s := range []string{"", "none", "None", " none "} {
		v, err := parseMinValue(s)
		require.NoError(t, err, s)
		assert.Nil(t, v, s)
	}
	v, err := parseMinValue("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, *v)

	t.Setenv("MPI_TEST_MIN", "2")
	v, err = parseMinValue("$MPI_TEST_MIN")
	require.NoError(t, err)
	assert.Equal(t, 2.0, *v)

	_, err = parseMinValue("zero")
	assert.Error(t, err)
}

func TestAlgorithmOptions(t *testing.T) {
	log, _ := test.NewNullLogger()
	ppb := units.MustParse("ppb")

	o := &AlgorithmOptions{MinValue: "0"}
	lk, err := o.Algorithm(ppb, log)
	require.NoError(t, err)
	assert.Equal(t, mpinterp.LinearFlatStartWalls, lk.Walls)
	assert.Equal(t, mpinterp.DefaultExtrapolator, lk.Extrapolator)
	require.NotNil(t, lk.MinVal)
	assert.Equal(t, units.Q(0, ppb), *lk.MinVal)

	o = &AlgorithmOptions{
		MinValue:      "none",
		WallPolicy:    "cubic",
		LeftBoundary:  "cubic",
		RightBoundary: "constant",
		FixedWalls:    []string{"2001=5:flat"},
	}
	lk, err = o.Algorithm(ppb, log)
	require.NoError(t, err)
	assert.Nil(t, lk.MinVal)
	assert.Equal(t, mpinterp.BoundaryExtrapolator{Left: mpinterp.CubicExtrapolation, Right: mpinterp.Constant}, lk.Extrapolator)

	// The fixed wall should be applied to the interpolation.
	yr := units.MustParse("yr")
	out, err := lk.Interpolate(
		units.NewArray([]float64{2000, 2001, 2002}, yr),
		units.NewArray([]float64{5, 5}, ppb),
		units.NewArray([]float64{2000.9, 2001, 2001.1}, yr),
	)
	require.NoError(t, err)
	assert.InDelta(t, 5, out.Values[0], 1e-9)
	assert.InDelta(t, 5, out.Values[1], 1e-9)

	for name, bad := range map[string]*AlgorithmOptions{
		"wall":  {WallPolicy: "quadratic"},
		"left":  {LeftBoundary: "mirror"},
		"right": {RightBoundary: "mirror"},
		"min":   {MinValue: "low"},
		"fixed": {FixedWalls: []string{"2001"}},
	} {
		if _, err := bad.Algorithm(ppb, log); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestAlgorithmOptionsFromConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("min_value", 0.5)
	cfg.Set("wall_policy", "linear")
	cfg.Set("fixed_wall", []string{"2000=1", "2001=2:flat"})
	cfg.Set("progress_bar", true)
	o, err := algorithmOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.5", o.MinValue)
	assert.Equal(t, "linear", o.WallPolicy)
	assert.Equal(t, []string{"2000=1", "2001=2:flat"}, o.FixedWalls)
	assert.True(t, o.ProgressBar)
}

func TestCheckFiles(t *testing.T) {
	ctx := context.Background()
	_, err := checkInputFile("")
	assert.Error(t, err)
	_, err = checkOutputFile(ctx, "")
	assert.Error(t, err)

	dir := t.TempDir()
	f, err := checkOutputFile(ctx, filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.csv"), f)

	_, err = checkOutputFile(ctx, filepath.Join(dir, "missing", "out.csv"))
	assert.Error(t, err)

	_, err = checkOutputFile(ctx, "mem://check/out.csv")
	assert.NoError(t, err)
}

func writeString(t *testing.T, path, s string) {
	t.Helper()
	w, err := seriesio.Create(context.Background(), path)
	require.NoError(t, err)
	_, err = io.WriteString(w, s)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readMonthly(t *testing.T, path string) *mpinterp.MonthlySeries {
	t.Helper()
	r, err := seriesio.Open(context.Background(), path)
	require.NoError(t, err)
	defer r.Close()
	m, err := seriesio.ReadMonthly(r)
	require.NoError(t, err)
	return m
}

const annualCSV = "year,value,unit\n2000,10,ppb\n2001,12,ppb\n2002,15,ppb\n2003,15,ppb\n2004,14,ppb\n"

func checkAnnualMeans(t *testing.T, m *mpinterp.MonthlySeries, want []float64) {
	t.Helper()
	require.Equal(t, 12*len(want), m.Values.Len())
	for y, w := range want {
		var sum float64
		for _, v := range m.Values.Values[12*y : 12*y+12] {
			sum += v
		}
		if d := sum/12 - w; d > 1e-9 || d < -1e-9 {
			t.Errorf("year %d: want mean %g, got %g", y, w, sum/12)
		}
	}
}

func TestRunMonthly(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir := t.TempDir()
	in := filepath.Join(dir, "annual.csv.gz")
	writeString(t, in, annualCSV)
	job := &MonthlyJob{
		Name:             "test",
		InputFile:        in,
		OutputFile:       filepath.Join(dir, "monthly.csv.zst"),
		PlotFile:         filepath.Join(dir, "monthly.svg"),
		AlgorithmOptions: AlgorithmOptions{MinValue: "0"},
		Verify:           true,
	}
	require.NoError(t, RunMonthly(context.Background(), job, log))
	m := readMonthly(t, job.OutputFile)
	checkAnnualMeans(t, m, []float64{10, 12, 15, 15, 14})
	assert.Equal(t, "ppb", m.Values.Unit.String())

	r, err := seriesio.Open(context.Background(), job.PlotFile)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")
}

func TestRunMonthlyErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	ctx := context.Background()
	writeString(t, "mem://errors/gap.csv", "year,value,unit\n2000,1,ppb\n2002,1,ppb\n")
	err := RunMonthly(ctx, &MonthlyJob{Name: "gap", InputFile: "mem://errors/gap.csv", OutputFile: "mem://errors/out.csv"}, log)
	var nu *mpinterp.NonUniformStepError
	assert.ErrorAs(t, err, &nu)

	writeString(t, "mem://errors/neg.csv", "year,value,unit\n2000,1,ppb\n2001,-1,ppb\n")
	err = RunMonthly(ctx, &MonthlyJob{Name: "neg", InputFile: "mem://errors/neg.csv", OutputFile: "mem://errors/out.csv",
		AlgorithmOptions: AlgorithmOptions{MinValue: "0"}}, log)
	var bm *mpinterp.BelowMinimumError
	assert.ErrorAs(t, err, &bm)

	err = RunMonthly(ctx, &MonthlyJob{Name: "missing", InputFile: "mem://errors/missing.csv"}, log)
	assert.Error(t, err)
}

func TestRunMonthlyOutDay(t *testing.T) {
	log, _ := test.NewNullLogger()
	ctx := context.Background()
	writeString(t, "mem://outday/in.csv", annualCSV)
	job := &MonthlyJob{
		Name:          "outday",
		InputFile:     "mem://outday/in.csv",
		OutputFile:    "mem://outday/out.csv",
		MonthRounding: intPtr(0),
		OutDay:        intPtr(1),
		Verify:        true,
	}
	require.NoError(t, RunMonthly(ctx, job, log))
	m := readMonthly(t, job.OutputFile)
	checkAnnualMeans(t, m, []float64{10, 12, 15, 15, 14})
	for i, tm := range m.Times {
		if tm.Day() != 1 {
			t.Errorf("month %d: want day 1, got %d", i, tm.Day())
		}
	}

	job.OutDay = intPtr(0)
	assert.Error(t, RunMonthly(ctx, job, log))
}

func TestRunRefine(t *testing.T) {
	log, _ := test.NewNullLogger()
	ctx := context.Background()
	writeString(t, "mem://refine/in.csv",
		"x_lower,x_upper,value,x_unit,value_unit\n0,1,1,yr,kt / yr\n1,2,3,yr,kt / yr\n2,3,2,yr,kt / yr\n")
	job := &RefineJob{
		Name:             "refine",
		InputFile:        "mem://refine/in.csv",
		OutputFile:       "mem://refine/out.csv",
		AlgorithmOptions: AlgorithmOptions{MinValue: "none", WallPolicy: "cubic"},
		Factor:           4,
		Rounding:         -1,
		Verify:           true,
	}
	require.NoError(t, RunRefine(ctx, job, log))
	r, err := seriesio.Open(ctx, job.OutputFile)
	require.NoError(t, err)
	out, err := seriesio.ReadBounded(r)
	r.Close()
	require.NoError(t, err)
	require.Equal(t, 12, out.Values.Len())
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, out.Bounds.Values[:5])
	assert.Equal(t, "kt / yr", out.Values.Unit.String())
	for i, want := range []float64{1, 3, 2} {
		var sum float64
		for _, v := range out.Values.Values[4*i : 4*i+4] {
			sum += v
		}
		assert.InDelta(t, want, sum/4, 1e-8)
	}

	job.Factor = 0
	assert.Error(t, RunRefine(ctx, job, log))
}

func TestWriteFileFailure(t *testing.T) {
	ctx := context.Background()
	errWrite := errors.New("write failed")
	local := filepath.Join(t.TempDir(), "out.csv")
	half := func(w io.Writer) error {
		io.WriteString(w, "year,value,unit\n2000,1")
		return errWrite
	}
	for _, path := range []string{
		"mem://partial/out.csv",
		"mem://partial/out.csv.gz",
		local,
	} {
		err := writeFile(ctx, path, half)
		if !errors.Is(err, errWrite) {
			t.Errorf("%s: want write error, got %v", path, err)
		}
		if r, err := seriesio.Open(ctx, path); err == nil {
			r.Close()
			t.Errorf("%s: partial output was kept", path)
		}
	}

	// The same paths can still be written in full afterwards.
	path := "mem://partial/out.csv"
	require.NoError(t, writeFile(ctx, path, func(w io.Writer) error {
		_, err := io.WriteString(w, annualCSV)
		return err
	}))
	r, err := seriesio.Open(ctx, path)
	require.NoError(t, err)
	a, err := seriesio.ReadAnnual(r)
	r.Close()
	require.NoError(t, err)
	if len(a.Years) != 5 {
		t.Errorf("want 5 years, got %d", len(a.Years))
	}
	_, err = os.Stat(local)
	assert.True(t, os.IsNotExist(err))
}

func TestWritePlotFormat(t *testing.T) {
	b := &seriesio.Bounded{
		Bounds: units.NewArray([]float64{0, 1}, units.MustParse("yr")),
		Values: units.NewArray([]float64{1}, units.MustParse("ppt")),
	}
	err := writePlot(context.Background(), "mem://plot/x.txt", "x", b, b)
	assert.Error(t, err)
	require.NoError(t, writePlot(context.Background(), "mem://plot/x.png", "x", b, b))
	r, err := seriesio.Open(context.Background(), "mem://plot/x.png")
	require.NoError(t, err)
	defer r.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(head), "\x89PNG"))
}

func TestStepXYs(t *testing.T) {
	b := &seriesio.Bounded{
		Bounds: units.NewArray([]float64{0, 1, 3}, units.MustParse("yr")),
		Values: units.NewArray([]float64{4, 5}, units.MustParse("ppt")),
	}
	xy := stepXYs(b)
	require.Len(t, xy, 4)
	assert.Equal(t, 1.0, xy[1].X)
	assert.Equal(t, 4.0, xy[1].Y)
	assert.Equal(t, 1.0, xy[2].X)
	assert.Equal(t, 5.0, xy[2].Y)
}
