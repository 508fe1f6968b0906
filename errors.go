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

	"github.com/spatialmodel/mpinterp/units"
)

// NonUniformStepError is returned when the input boundaries of an
// algorithm that requires uniform spacing are not evenly spaced.
type NonUniformStepError struct {
	// Index is the first step that differs from the first step.
	Index     int
	Step      float64
	FirstStep float64
	Rtol      float64
}

func (e *NonUniformStepError) Error() string {
	return fmt.Sprintf("mpinterp: input boundaries must be uniformly spaced: "+
		"step %d is %g but step 0 is %g (rtol=%g)", e.Index, e.Step, e.FirstStep, e.Rtol)
}

// UnsortedBoundsError is returned when boundaries that must be
// non-decreasing are not.
type UnsortedBoundsError struct {
	Index    int // Bounds[Index] > Bounds[Index+1]
	Lo, Hi   float64
	Argument string
}

func (e *UnsortedBoundsError) Error() string {
	return fmt.Sprintf("mpinterp: %s must be non-decreasing: element %d (%g) > element %d (%g)",
		e.Argument, e.Index, e.Lo, e.Index+1, e.Hi)
}

// NonIntersectingBoundsError is returned when group boundaries are not
// all present in the boundaries they are supposed to group.
type NonIntersectingBoundsError struct {
	Missing     []float64
	GroupBounds []float64
	XBounds     []float64
}

func (e *NonIntersectingBoundsError) Error() string {
	return fmt.Sprintf("mpinterp: group boundaries %v are not in the x boundaries. "+
		"group bounds: %v; x bounds: %v", e.Missing, e.GroupBounds, e.XBounds)
}

// BelowMinimumError is returned when an input value is already below
// the minimum value that the output is required to respect.
type BelowMinimumError struct {
	Index int
	Value units.Quantity
	Min   units.Quantity
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("mpinterp: input value %d (%v) is below the minimum value (%v); "+
		"the minimum can't be enforced while preserving the input means", e.Index, e.Value, e.Min)
}

// MeanPreservationError is returned when verification finds that the
// output doesn't reproduce the input means.
type MeanPreservationError struct {
	Index     int
	Want, Got units.Quantity
	AbsDiff   float64 // the largest absolute difference over all intervals
	Atol      float64
	Rtol      float64
}

func (e *MeanPreservationError) Error() string {
	return fmt.Sprintf("mpinterp: output does not preserve the input means: "+
		"interval %d wants %v but got %v; max absolute difference %g (atol=%g, rtol=%g)",
		e.Index, e.Want, e.Got, e.AbsDiff, e.Atol, e.Rtol)
}

// DomainError is returned when a value lies outside the domain on which
// a function is defined.
type DomainError struct {
	X      float64
	Lo, Hi float64
	Msg    string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("mpinterp: %s: %g is outside [%g, %g]", e.Msg, e.X, e.Lo, e.Hi)
}

// IndexError signals an access into a control-point array at an index
// that is not on the array's stride or is out of range. It indicates a
// bug rather than bad input.
type IndexError struct {
	Index    lkIndex
	Min, Max lkIndex
	Msg      string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("mpinterp: control point index %v: %s (valid range [%v, %v])",
		e.Index, e.Msg, e.Min, e.Max)
}
