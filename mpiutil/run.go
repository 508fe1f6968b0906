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
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp"
	"github.com/spatialmodel/mpinterp/seriesio"
	"github.com/spatialmodel/mpinterp/units"
)

// MonthlyJob describes the interpolation of one annual series file to
// a monthly series file.
type MonthlyJob struct {
	Name       string
	InputFile  string
	OutputFile string
	// PlotFile, if not empty, receives a plot of the annual and
	// monthly series.
	PlotFile string

	AlgorithmOptions

	// MonthRounding and OutDay, if not nil, override the defaults of
	// mpinterp.MonthlyConfig.
	MonthRounding *int
	OutDay        *int
	Verify        bool
	Atol, Rtol    float64
}

// RunMonthly reads the annual series in job.InputFile, interpolates it
// to monthly values, and writes the result to job.OutputFile.
func RunMonthly(ctx context.Context, job *MonthlyJob, log logrus.FieldLogger) error {
	log = log.WithField("job", job.Name)
	r, err := seriesio.Open(ctx, job.InputFile)
	if err != nil {
		return err
	}
	annual, err := seriesio.ReadAnnual(r)
	r.Close()
	if err != nil {
		return fmt.Errorf("mpinterp: reading %s: %w", job.InputFile, err)
	}
	u, err := units.Parse(annual.Unit)
	if err != nil {
		return fmt.Errorf("mpinterp: %s: %w", job.InputFile, err)
	}
	alg, err := job.Algorithm(u, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"input": job.InputFile,
		"years": fmt.Sprintf("%d-%d", annual.Years[0], annual.Years[len(annual.Years)-1]),
		"unit":  annual.Unit,
	}).Info("interpolating annual series to monthly")

	monthly, err := mpinterp.AnnualToMonthly(annual.Values, annual.Unit, annual.Years, &mpinterp.MonthlyConfig{
		Algorithm:        alg,
		MonthRounding:    job.MonthRounding,
		OutDay:           job.OutDay,
		SkipVerification: !job.Verify,
		Atol:             job.Atol,
		Rtol:             job.Rtol,
		Log:              log,
	})
	if err != nil {
		return fmt.Errorf("mpinterp: job %s: %w", job.Name, err)
	}

	if err := writeFile(ctx, job.OutputFile, func(w io.Writer) error {
		return seriesio.WriteMonthly(w, monthly)
	}); err != nil {
		return err
	}
	log.WithField("output", job.OutputFile).Info("wrote monthly series")

	if job.PlotFile != "" {
		yr := units.MustParse("yr")
		xIn := make([]float64, len(annual.Years)+1)
		for i, y := range annual.Years {
			xIn[i] = float64(y)
		}
		xIn[len(annual.Years)] = xIn[len(annual.Years)-1] + 1
		if err := writePlot(ctx, job.PlotFile, job.Name,
			&seriesio.Bounded{Bounds: units.Array{Values: xIn, Unit: yr}, Values: units.Array{Values: annual.Values, Unit: u}},
			&seriesio.Bounded{Bounds: monthly.Bounds, Values: monthly.Values},
		); err != nil {
			return err
		}
		log.WithField("plot", job.PlotFile).Info("wrote plot")
	}
	return nil
}

// RefineJob describes the subdivision of a bounded series into finer
// intervals.
type RefineJob struct {
	Name       string
	InputFile  string
	OutputFile string
	PlotFile   string

	AlgorithmOptions

	// Factor is the number of output intervals per input interval.
	Factor int
	// Rounding is the number of decimal places the new bounds are
	// rounded to; negative values turn rounding off.
	Rounding int
	Verify   bool
	Atol     float64
	Rtol     float64
}

// RunRefine reads the bounded series in job.InputFile, splits each
// interval into job.Factor parts, and writes the interpolated result.
func RunRefine(ctx context.Context, job *RefineJob, log logrus.FieldLogger) error {
	log = log.WithField("job", job.Name)
	if job.Factor < 1 {
		return fmt.Errorf("mpinterp: refinement factor must be at least 1, not %d", job.Factor)
	}
	r, err := seriesio.Open(ctx, job.InputFile)
	if err != nil {
		return err
	}
	in, err := seriesio.ReadBounded(r)
	r.Close()
	if err != nil {
		return fmt.Errorf("mpinterp: reading %s: %w", job.InputFile, err)
	}
	alg, err := job.Algorithm(in.Values.Unit, log)
	if err != nil {
		return err
	}
	xOut := units.Array{
		Values: mpinterp.SubdivideBounds(in.Bounds.Values, job.Factor, job.Rounding),
		Unit:   in.Bounds.Unit,
	}
	out, err := mpinterp.MeanPreserving(alg, in.Bounds, in.Values, xOut, mpinterp.VerifyOptions{
		Verify: job.Verify,
		Atol:   job.Atol,
		Rtol:   job.Rtol,
	})
	if err != nil {
		return fmt.Errorf("mpinterp: job %s: %w", job.Name, err)
	}
	refined := &seriesio.Bounded{Bounds: xOut, Values: out}
	if err := writeFile(ctx, job.OutputFile, func(w io.Writer) error {
		return seriesio.WriteBounded(w, refined)
	}); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"output":    job.OutputFile,
		"intervals": out.Len(),
	}).Info("wrote refined series")
	if job.PlotFile != "" {
		return writePlot(ctx, job.PlotFile, job.Name, in, refined)
	}
	return nil
}

// writeFile creates path and calls write on it, closing the file
// afterwards.
func writeFile(ctx context.Context, path string, write func(io.Writer) error) error {
	// Cancelling ctx before Close discards a partly written blob.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f, err := seriesio.Create(ctx, path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		cancel()
		f.Close()
		if !seriesio.IsBlob(path) {
			os.Remove(path)
		}
		return fmt.Errorf("mpinterp: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("mpinterp: closing %s: %w", path, err)
	}
	return nil
}
