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

// Package units provides the physical quantities used by mpinterp.
// Dimensional analysis is delegated to github.com/ctessum/unit; this
// package adds named units with scale factors so that values can be kept
// in their original units (e.g. ppt or yr) and converted on demand.
package units

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
)

// MoleFractionDim is the dimension of gas concentrations expressed as
// mole fractions. Keeping it separate from dimensionless numbers prevents
// concentrations from being silently combined with plain ratios.
var MoleFractionDim = unit.NewDimension("vmr")

const secondsPerYear = 365.25 * 24 * 60 * 60

// Unit is a named unit of measure.
type Unit struct {
	name  string
	dims  unit.Dimensions
	scale float64 // multiply by scale to convert to SI base units.
}

var moleFraction = unit.Dimensions{MoleFractionDim: 1}

// registry holds the units that Parse understands.
var registry = newRegistry()

func newRegistry() map[string]Unit {
	r := make(map[string]Unit)
	for _, u := range []Unit{
		{"1", unit.Dimless, 1},
		{"dimensionless", unit.Dimless, 1},
		{"%", unit.Dimless, 1e-2},

		{"s", unit.Second, 1},
		{"day", unit.Second, 24 * 60 * 60},
		{"month", unit.Second, secondsPerYear / 12},
		{"yr", unit.Second, secondsPerYear},
		{"year", unit.Second, secondsPerYear},
		{"a", unit.Second, secondsPerYear},

		{"mol/mol", moleFraction, 1},
		{"ppm", moleFraction, 1e-6},
		{"ppb", moleFraction, 1e-9},
		{"ppt", moleFraction, 1e-12},
		{"ppq", moleFraction, 1e-15},

		{"g", unit.Kilogram, 1e-3},
		{"kg", unit.Kilogram, 1},
		{"t", unit.Kilogram, 1e3},
		{"kt", unit.Kilogram, 1e6},
		{"Mt", unit.Kilogram, 1e9},
		{"Gt", unit.Kilogram, 1e12},
	} {
		r[u.name] = u
	}
	return r
}

// Dimensionless is the unit of plain numbers.
var Dimensionless = MustParse("dimensionless")

// Parse returns the unit represented by s. Simple names are looked up
// in the built-in registry; products are written with spaces and
// quotients with '/', e.g. "kt / yr" or "ppt yr".
func Parse(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if u, ok := registry[s]; ok {
		return u, nil
	}
	parts := strings.Split(s, "/")
	var out Unit
	names := make([]string, len(parts))
	for i, p := range parts {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			if i == 0 && len(parts) > 1 {
				fields = []string{"1"}
			} else {
				return Unit{}, fmt.Errorf("units: can't parse %q: empty term", s)
			}
		}
		var term Unit
		for j, f := range fields {
			u, ok := registry[f]
			if !ok {
				return Unit{}, fmt.Errorf("units: can't parse %q: unknown unit %q", s, f)
			}
			if j == 0 {
				term = u
			} else {
				term = term.Mul(u)
			}
		}
		names[i] = strings.Join(fields, " ")
		if i == 0 {
			out = term
		} else {
			out = out.Div(term)
		}
	}
	out.name = strings.Join(names, " / ")
	return out, nil
}

// MustParse is like Parse but panics if s can't be parsed.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the name of the unit.
func (u Unit) String() string { return u.name }

// Dimensions returns the SI dimensions of u.
func (u Unit) Dimensions() unit.Dimensions { return u.dims }

// IsZero reports whether u is the zero Unit, i.e. has never been set.
func (u Unit) IsZero() bool { return u.name == "" && u.scale == 0 }

// Compatible reports whether values in u can be converted to v.
func (u Unit) Compatible(v Unit) bool { return u.dims.Matches(v.dims) }

// base returns one u expressed in SI base units.
func (u Unit) base() *unit.Unit { return unit.New(u.scale, u.dims) }

// Mul returns the product of u and v.
func (u Unit) Mul(v Unit) Unit {
	r := unit.Mul(u.base(), v.base())
	return Unit{name: u.name + " " + v.name, dims: r.Dimensions(), scale: r.Value()}
}

// Div returns the quotient of u and v.
func (u Unit) Div(v Unit) Unit {
	r := unit.Div(u.base(), v.base())
	return Unit{name: u.name + " / " + v.name, dims: r.Dimensions(), scale: r.Value()}
}

// ConversionFactor returns the factor that converts values in u into
// values in to.
func (u Unit) ConversionFactor(to Unit) (float64, error) {
	if u.name == to.name && u.scale == to.scale {
		return 1, nil
	}
	if err := u.base().Check(to.dims); err != nil {
		return 0, &IncompatibleError{From: u, To: to, Err: err}
	}
	return u.scale / to.scale, nil
}

// IncompatibleError is returned when converting between units with
// different dimensions.
type IncompatibleError struct {
	From, To Unit
	Err      error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("units: can't convert %q to %q: %v", e.From, e.To, e.Err)
}

func (e *IncompatibleError) Unwrap() error { return e.Err }
