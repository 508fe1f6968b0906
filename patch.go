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
	"github.com/spatialmodel/mpinterp/units"
)

// Patch is a Hermite cubic defined on the half interval [X, X+Delta].
//
//	f(u) = S*h00(u) + Delta*M*h10(u) + SHalf*h01(u) + Delta*MHalf*h11(u)
//
// where u = (x - X) / Delta.
type Patch struct {
	X, Delta float64
	// S and SHalf are the values at the left and right ends.
	S, SHalf float64
	// M and MHalf are the gradients at the left and right ends.
	M, MHalf float64
}

// CalculateU returns the value of the patch at u.
func (p Patch) CalculateU(u float64) float64 {
	return p.S*polyval(hermiteCubics[0][0][:], u) +
		p.Delta*p.M*polyval(hermiteCubics[1][0][:], u) +
		p.SHalf*polyval(hermiteCubics[0][1][:], u) +
		p.Delta*p.MHalf*polyval(hermiteCubics[1][1][:], u)
}

func (p Patch) u(x float64) float64 { return (x - p.X) / p.Delta }

func (p Patch) checkDomain(x float64) error {
	hi := p.X + p.Delta
	if (x < p.X && !boundsEqual(x, p.X)) || (x > hi && !boundsEqual(x, hi)) {
		return &DomainError{X: x, Lo: p.X, Hi: hi, Msg: "patch evaluated outside its domain"}
	}
	return nil
}

// Calculate returns the value of the patch at x. If checkDomain is
// true, x must be within the patch's domain.
func (p Patch) Calculate(x float64, checkDomain bool) (float64, error) {
	if checkDomain {
		if err := p.checkDomain(x); err != nil {
			return 0, err
		}
	}
	return p.CalculateU(p.u(x)), nil
}

// IntegralIndefinite returns the integral of the patch from X to x.
func (p Patch) IntegralIndefinite(x float64) float64 {
	u := p.u(x)
	return p.Delta * (p.S*polyval(hermiteQuartics[0][0][:], u) +
		p.Delta*p.M*polyval(hermiteQuartics[1][0][:], u) +
		p.SHalf*polyval(hermiteQuartics[0][1][:], u) +
		p.Delta*p.MHalf*polyval(hermiteQuartics[1][1][:], u))
}

// IntegralDefinite returns the integral of the patch from lo to hi.
func (p Patch) IntegralDefinite(lo, hi float64, checkDomain bool) (float64, error) {
	if lo >= hi {
		return 0, &DomainError{X: lo, Lo: lo, Hi: hi, Msg: "empty or reversed integration range"}
	}
	if checkDomain {
		for _, x := range []float64{lo, hi} {
			if err := p.checkDomain(x); err != nil {
				return 0, err
			}
		}
	}
	return p.IntegralIndefinite(hi) - p.IntegralIndefinite(lo), nil
}

// QuantityPatch is a Patch whose x and y values carry units.
type QuantityPatch struct {
	P            Patch
	XUnit, YUnit units.Unit
}

// Calculate returns the value of the patch at x.
func (p QuantityPatch) Calculate(x units.Quantity) (units.Quantity, error) {
	xv, err := x.Magnitude(p.XUnit)
	if err != nil {
		return units.Quantity{}, err
	}
	v, err := p.P.Calculate(xv, true)
	return units.Q(v, p.YUnit), err
}

// IntegralIndefinite returns the integral of the patch from its left
// end to x.
func (p QuantityPatch) IntegralIndefinite(x units.Quantity) (units.Quantity, error) {
	xv, err := x.Magnitude(p.XUnit)
	if err != nil {
		return units.Quantity{}, err
	}
	return units.Q(p.P.IntegralIndefinite(xv), p.YUnit.Mul(p.XUnit)), nil
}

// IntegralDefinite returns the integral of the patch between lo and hi.
func (p QuantityPatch) IntegralDefinite(lo, hi units.Quantity) (units.Quantity, error) {
	l, err := lo.Magnitude(p.XUnit)
	if err != nil {
		return units.Quantity{}, err
	}
	h, err := hi.Magnitude(p.XUnit)
	if err != nil {
		return units.Quantity{}, err
	}
	v, err := p.P.IntegralDefinite(l, h, true)
	return units.Q(v, p.YUnit.Mul(p.XUnit)), err
}
