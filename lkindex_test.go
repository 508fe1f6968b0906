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
	"testing"
)

func TestLKIndexString(t *testing.T) {
	for i, want := range map[lkIndex]string{
		wall(1):        "1",
		wall(1) + half: "3/2",
		half:           "1/2",
		wall(0):        "0",
	} {
		if got := i.String(); got != want {
			t.Errorf("want %s, got %s", want, got)
		}
	}
}

func TestLKArray(t *testing.T) {
	a := newLKArray(5, half, half) // 1/2, 1, 3/2, 2, 5/2
	a.set(half, 1)
	a.set(wall(1), 2)
	a.set(wall(2)+half, 5)
	if a.at(wall(1)) != 2 || a.at(wall(2)+half) != 5 {
		t.Errorf("unexpected contents %v", a.data)
	}
	if a.data[0] != 1 || a.data[4] != 5 {
		t.Errorf("unexpected layout %v", a.data)
	}
	if a.max() != wall(2)+half {
		t.Errorf("want max 5/2, got %v", a.max())
	}

	walls := newLKArray(3, wall(1), wall(1)) // 1, 2, 3
	walls.set(wall(3), 7)
	if walls.data[2] != 7 {
		t.Errorf("unexpected layout %v", walls.data)
	}

	for _, test := range []struct {
		a *lkArray
		i lkIndex
	}{
		{a, 0},
		{a, wall(3)},
		{walls, wall(1) + half},
		{walls, wall(4)},
	} {
		func() {
			var err error
			defer func() {
				var ie *IndexError
				if !errors.As(err, &ie) {
					t.Errorf("index %v: want IndexError, got %v", test.i, err)
				} else if ie.Index != test.i {
					t.Errorf("want offending index %v, got %v", test.i, ie.Index)
				}
			}()
			func() {
				defer catchIndexError(&err)
				test.a.at(test.i)
			}()
		}()
	}
}
