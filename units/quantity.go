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

package units

import (
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// Quantity is a value with a unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Q returns a new quantity.
func Q(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u} }

// To converts q to unit u.
func (q Quantity) To(u Unit) (Quantity, error) {
	f, err := q.Unit.ConversionFactor(u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value * f, Unit: u}, nil
}

// Magnitude returns the value of q in unit u.
func (q Quantity) Magnitude(u Unit) (float64, error) {
	c, err := q.To(u)
	return c.Value, err
}

// SI returns q as a ctessum/unit value in SI base units.
func (q Quantity) SI() *unit.Unit { return unit.New(q.Value*q.Unit.scale, q.Unit.dims) }

// Mul returns the product of q and p.
func (q Quantity) Mul(p Quantity) Quantity {
	return Quantity{Value: q.Value * p.Value, Unit: q.Unit.Mul(p.Unit)}
}

func (q Quantity) String() string { return fmt.Sprintf("%g %s", q.Value, q.Unit) }

// Array holds a sequence of values that share a unit.
type Array struct {
	Values []float64
	Unit   Unit
}

// NewArray returns an array holding a copy of v.
func NewArray(v []float64, u Unit) Array {
	return Array{Values: append([]float64(nil), v...), Unit: u}
}

// Len returns the number of values in a.
func (a Array) Len() int { return len(a.Values) }

// At returns the i'th value in a.
func (a Array) At(i int) Quantity { return Quantity{Value: a.Values[i], Unit: a.Unit} }

// To returns a copy of a converted to unit u.
func (a Array) To(u Unit) (Array, error) {
	f, err := a.Unit.ConversionFactor(u)
	if err != nil {
		return Array{}, err
	}
	o := Array{Values: make([]float64, len(a.Values)), Unit: u}
	for i, v := range a.Values {
		o.Values[i] = v * f
	}
	return o, nil
}

// Magnitudes returns the values of a in unit u.
func (a Array) Magnitudes(u Unit) ([]float64, error) {
	c, err := a.To(u)
	return c.Values, err
}

// Round rounds every value in a to the given number of decimal places,
// in place.
func (a Array) Round(decimals int) {
	p := math.Pow(10, float64(decimals))
	for i, v := range a.Values {
		a.Values[i] = math.RoundToEven(v*p) / p
	}
}

func (a Array) String() string { return fmt.Sprintf("%v %s", a.Values, a.Unit) }

// Real is the set of numeric types that can be stored in an Array.
type Real interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Float64s converts v to float64 values. upcast is true when v had
// an integer type, in which case callers may want to warn that the
// values were not floating point to begin with.
func Float64s[T Real](v []T) (o []float64, upcast bool) {
	half := 0.5
	upcast = T(half) == 0
	o = make([]float64, len(v))
	for i, x := range v {
		o[i] = float64(x)
	}
	return o, upcast
}
