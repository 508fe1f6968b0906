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

// Package mpinterp interpolates piecewise-constant series, such as
// annual-mean greenhouse gas concentrations, to a finer resolution
// while exactly preserving the mean over every input interval.
//
// The interpolation is done by LaiKaplan, which can optionally keep
// the output above a minimum value (see RymesMeyers). AnnualToMonthly
// wraps it with defaults suited to annual-to-monthly conversion. The
// Group* functions aggregate fine-resolution values back onto a
// coarser set of intervals.
package mpinterp

// Version gives the version number.
const Version = "0.1.0"
