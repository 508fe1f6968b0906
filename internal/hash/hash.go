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


// Package hash computes stable fingerprints of job configurations so
// that batch runs can be logged and compared across invocations.
package hash

import (
	"fmt"
	"hash/fnv"
	"io"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Fingerprint returns a hex-encoded 128-bit FNV-1a hash of the
// printed representation of the given objects. Pointers are followed,
// so two configurations with equal contents have equal fingerprints
// even when they are stored at different addresses. NaN values are
// allowed.
func Fingerprint(objects ...interface{}) string {
	h := fnv.New128a()
	for i, o := range objects {
		if i > 0 {
			io.WriteString(h, "\x00")
		}
		printer.Fprintf(h, "%#v", o)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Short returns the first 8 characters of the fingerprint of objects,
// which is enough to tell jobs apart in log output.
func Short(objects ...interface{}) string {
	return Fingerprint(objects...)[:8]
}
