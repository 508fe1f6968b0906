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


// Command mpinterp is a command-line interface for mean-preserving
// interpolation of annual series to monthly series.
package main

import (
	"os"

	"github.com/spatialmodel/mpinterp/mpiutil"
)

func main() {
	if err := mpiutil.Root.Execute(); err != nil {
		mpiutil.Log.Error(err)
		os.Exit(1)
	}
}
