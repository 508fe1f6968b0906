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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp/units"
)

// MonthlyConfig holds the options for AnnualToMonthly. The zero value
// gives the defaults; nil pointer fields mean "use the default".
type MonthlyConfig struct {
	// Algorithm is the interpolation algorithm. The default is
	// DefaultMonthlyAlgorithm with a minimum of zero in the units of
	// the input values.
	Algorithm Algorithm

	// MonthRounding is the number of decimal places that the reported
	// month boundaries (in years) are rounded to. The default is 4 and
	// a negative value turns rounding off. The interpolation itself
	// always uses exact boundaries.
	MonthRounding *int

	// OutDay is the day of the month, 1 to 28, used for the output
	// time stamps. The default is 15.
	OutDay *int

	// SkipVerification turns off the check that the monthly values
	// average back to the annual ones.
	SkipVerification bool

	// Atol and Rtol are the tolerances for the verification.
	Atol, Rtol float64

	Log logrus.FieldLogger
}

// MonthlySeries is a series of monthly mean values.
type MonthlySeries struct {
	// Bounds holds the month boundaries in years.
	Bounds units.Array
	Values units.Array
	// Times holds a time stamp within each month.
	Times []time.Time
}

// DefaultMonthlyAlgorithm returns the algorithm AnnualToMonthly uses
// by default: Lai-Kaplan with a flat start, no values below minVal,
// and a progress bar.
func DefaultMonthlyAlgorithm(minVal units.Quantity) *LaiKaplan {
	lk := NewLaiKaplan()
	lk.Walls = LinearFlatStartWalls
	lk.MinVal = &minVal
	lk.ProgressBar = true
	return lk
}

// AnnualToMonthly interpolates annual mean values to monthly mean
// values. years must be consecutive, with one value per year.
func AnnualToMonthly[T units.Real](values []T, valuesUnit string, years []int, cfg *MonthlyConfig) (*MonthlySeries, error) {
	if cfg == nil {
		cfg = new(MonthlyConfig)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	u, err := units.Parse(valuesUnit)
	if err != nil {
		return nil, err
	}
	y, upcast := units.Float64s(values)
	if upcast {
		log.WithField("type", fmt.Sprintf("%T", values)).
			Warn("mpinterp: integer values have been converted to floating point for interpolation")
	}
	if len(years) == 0 || len(years) != len(y) {
		return nil, fmt.Errorf("mpinterp: %d years for %d values", len(years), len(y))
	}
	for i := 1; i < len(years); i++ {
		if years[i]-years[i-1] != 1 {
			return nil, &NonUniformStepError{Index: i - 1, Step: float64(years[i] - years[i-1]), FirstStep: 1}
		}
	}

	yr := units.MustParse("yr")
	xIn := make([]float64, len(years)+1)
	for i, v := range years {
		xIn[i] = float64(v)
	}
	xIn[len(years)] = float64(years[len(years)-1] + 1)

	rounding := 4
	if cfg.MonthRounding != nil {
		rounding = *cfg.MonthRounding
	}
	day := 15
	if cfg.OutDay != nil {
		day = *cfg.OutDay
	}
	if day < 1 || day > 28 {
		return nil, fmt.Errorf("mpinterp: output day %d is not between 1 and 28", day)
	}
	// Rounded boundaries don't split a year into equal months, so the
	// plain average of a year's months would drift from the annual
	// value. Only the reported boundaries are rounded.
	xExact := SubdivideBounds(xIn, 12, -1)

	alg := cfg.Algorithm
	if alg == nil {
		alg = DefaultMonthlyAlgorithm(units.Q(0, u))
	}
	out, err := MeanPreserving(alg,
		units.Array{Values: xIn, Unit: yr},
		units.Array{Values: y, Unit: u},
		units.Array{Values: xExact, Unit: yr},
		VerifyOptions{Verify: !cfg.SkipVerification, Atol: cfg.Atol, Rtol: cfg.Rtol},
	)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(xExact)-1)
	for i := range times {
		times[i] = monthTime((xExact[i]+xExact[i+1])/2, day)
	}
	return &MonthlySeries{
		Bounds: units.Array{Values: SubdivideBounds(xIn, 12, rounding), Unit: yr},
		Values: out,
		Times:  times,
	}, nil
}

// monthTime returns the time stamp for the month whose midpoint, in
// fractional years, is mid.
func monthTime(mid float64, day int) time.Time {
	year := math.Floor(mid)
	month := math.Round(12 * (mid - year + 1.0/24))
	return time.Date(int(year), time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
