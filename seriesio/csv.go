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


// Package seriesio reads and writes the CSV files that the mpinterp
// command line tools consume and produce. Files may live on the local
// filesystem or in blob storage, and may be compressed.
package seriesio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/mpinterp"
	"github.com/spatialmodel/mpinterp/units"
)

const timeFormat = "2006-01-02"

var (
	annualHeader  = []string{"year", "value", "unit"}
	monthlyHeader = []string{"time", "year", "month", "value", "unit"}
	boundedHeader = []string{"x_lower", "x_upper", "value", "x_unit", "value_unit"}
)

// Annual is a series of annual mean values.
type Annual struct {
	Years  []int
	Values []float64
	Unit   string
}

// Bounded is a series of values, each the mean over the interval
// between two consecutive bounds.
type Bounded struct {
	Bounds units.Array
	Values units.Array
}

// ParseError reports a malformed line in an input file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("seriesio: line %d: %s", e.Line, e.Msg)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// readRecords reads all records from r and checks the header.
func readRecords(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("seriesio: %w", err)
	}
	if len(recs) == 0 {
		return nil, &ParseError{Line: 1, Msg: "missing header"}
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(recs[0][i]), h) {
			return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("column %d is %q; want %q", i+1, recs[0][i], h)}
		}
	}
	if len(recs) == 1 {
		return nil, &ParseError{Line: 2, Msg: "no data"}
	}
	return recs[1:], nil
}

// sameUnit checks that every row carries the same unit.
func sameUnit(u *string, v string, line int) error {
	v = strings.TrimSpace(v)
	if *u == "" {
		*u = v
		return nil
	}
	if v != *u {
		return &ParseError{Line: line, Msg: fmt.Sprintf("unit %q differs from %q", v, *u)}
	}
	return nil
}

func parseFloat(s string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{Line: line, Msg: err.Error()}
	}
	return v, nil
}

func parseInt(s string, line int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Line: line, Msg: err.Error()}
	}
	return v, nil
}

// ReadAnnual reads an annual series with the columns year, value and unit.
func ReadAnnual(r io.Reader) (*Annual, error) {
	recs, err := readRecords(r, annualHeader)
	if err != nil {
		return nil, err
	}
	a := &Annual{Years: make([]int, len(recs)), Values: make([]float64, len(recs))}
	for i, rec := range recs {
		line := i + 2
		if a.Years[i], err = parseInt(rec[0], line); err != nil {
			return nil, err
		}
		if a.Values[i], err = parseFloat(rec[1], line); err != nil {
			return nil, err
		}
		if err = sameUnit(&a.Unit, rec[2], line); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WriteAnnual writes a in the format ReadAnnual reads.
func WriteAnnual(w io.Writer, a *Annual) error {
	if len(a.Years) != len(a.Values) {
		return fmt.Errorf("seriesio: %d years for %d values", len(a.Years), len(a.Values))
	}
	cw := csv.NewWriter(w)
	cw.Write(annualHeader)
	for i, y := range a.Years {
		cw.Write([]string{strconv.Itoa(y), formatFloat(a.Values[i]), a.Unit})
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthly writes one row per month of s.
func WriteMonthly(w io.Writer, s *mpinterp.MonthlySeries) error {
	if len(s.Times) != s.Values.Len() {
		return fmt.Errorf("seriesio: %d times for %d values", len(s.Times), s.Values.Len())
	}
	cw := csv.NewWriter(w)
	cw.Write(monthlyHeader)
	u := s.Values.Unit.String()
	for i, t := range s.Times {
		cw.Write([]string{
			t.Format(timeFormat),
			strconv.Itoa(t.Year()),
			strconv.Itoa(int(t.Month())),
			formatFloat(s.Values.Values[i]),
			u,
		})
	}
	cw.Flush()
	return cw.Error()
}

// ReadMonthly reads a monthly series written by WriteMonthly. The months
// must be consecutive. The month bounds are reconstructed in years,
// rounded to four decimal places.
func ReadMonthly(r io.Reader) (*mpinterp.MonthlySeries, error) {
	recs, err := readRecords(r, monthlyHeader)
	if err != nil {
		return nil, err
	}
	n := len(recs)
	times := make([]time.Time, n)
	values := make([]float64, n)
	var unit string
	var prev int
	for i, rec := range recs {
		line := i + 2
		if times[i], err = time.Parse(timeFormat, strings.TrimSpace(rec[0])); err != nil {
			return nil, &ParseError{Line: line, Msg: err.Error()}
		}
		year, err := parseInt(rec[1], line)
		if err != nil {
			return nil, err
		}
		month, err := parseInt(rec[2], line)
		if err != nil {
			return nil, err
		}
		if month < 1 || month > 12 {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid month %d", month)}
		}
		if year != times[i].Year() || month != int(times[i].Month()) {
			return nil, &ParseError{Line: line, Msg: "year and month do not match time"}
		}
		m := year*12 + month - 1
		if i > 0 && m != prev+1 {
			return nil, &ParseError{Line: line, Msg: "months are not consecutive"}
		}
		prev = m
		if values[i], err = parseFloat(rec[3], line); err != nil {
			return nil, err
		}
		if err = sameUnit(&unit, rec[4], line); err != nil {
			return nil, err
		}
	}
	u, err := units.Parse(unit)
	if err != nil {
		return nil, err
	}

	first, last := times[0].Year(), times[n-1].Year()
	yearBounds := make([]float64, last-first+2)
	for i := range yearBounds {
		yearBounds[i] = float64(first + i)
	}
	start := int(times[0].Month()) - 1
	bounds := mpinterp.SubdivideBounds(yearBounds, 12, 4)[start : start+n+1]
	return &mpinterp.MonthlySeries{
		Bounds: units.NewArray(bounds, units.MustParse("yr")),
		Values: units.Array{Values: values, Unit: u},
		Times:  times,
	}, nil
}

// ReadBounded reads a series with the columns x_lower, x_upper, value,
// x_unit and value_unit. The intervals must be contiguous.
func ReadBounded(r io.Reader) (*Bounded, error) {
	recs, err := readRecords(r, boundedHeader)
	if err != nil {
		return nil, err
	}
	n := len(recs)
	bounds := make([]float64, n+1)
	values := make([]float64, n)
	var xUnit, vUnit string
	for i, rec := range recs {
		line := i + 2
		lo, err := parseFloat(rec[0], line)
		if err != nil {
			return nil, err
		}
		hi, err := parseFloat(rec[1], line)
		if err != nil {
			return nil, err
		}
		if i > 0 && lo != bounds[i] {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("lower bound %g does not match previous upper bound %g", lo, bounds[i])}
		}
		bounds[i], bounds[i+1] = lo, hi
		if values[i], err = parseFloat(rec[2], line); err != nil {
			return nil, err
		}
		if err = sameUnit(&xUnit, rec[3], line); err != nil {
			return nil, err
		}
		if err = sameUnit(&vUnit, rec[4], line); err != nil {
			return nil, err
		}
	}
	xu, err := units.Parse(xUnit)
	if err != nil {
		return nil, err
	}
	vu, err := units.Parse(vUnit)
	if err != nil {
		return nil, err
	}
	return &Bounded{
		Bounds: units.Array{Values: bounds, Unit: xu},
		Values: units.Array{Values: values, Unit: vu},
	}, nil
}

// WriteBounded writes b in the format ReadBounded reads.
func WriteBounded(w io.Writer, b *Bounded) error {
	if b.Bounds.Len() != b.Values.Len()+1 {
		return fmt.Errorf("seriesio: %d bounds for %d values", b.Bounds.Len(), b.Values.Len())
	}
	cw := csv.NewWriter(w)
	cw.Write(boundedHeader)
	xu, vu := b.Bounds.Unit.String(), b.Values.Unit.String()
	for i, v := range b.Values.Values {
		cw.Write([]string{
			formatFloat(b.Bounds.Values[i]),
			formatFloat(b.Bounds.Values[i+1]),
			formatFloat(v),
			xu, vu,
		})
	}
	cw.Flush()
	return cw.Error()
}
