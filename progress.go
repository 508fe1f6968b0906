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
	"os"

	"github.com/gosuri/uiprogress"
)

// progress reports how far a long-running calculation has got.
type progress interface {
	Incr()
	Done()
}

type noProgress struct{}

func (noProgress) Incr() {}
func (noProgress) Done() {}

type barProgress struct {
	p   *uiprogress.Progress
	bar *uiprogress.Bar
}

// newProgress returns a progress bar with total steps that is written
// to standard error, or a no-op if show is false.
func newProgress(show bool, total int, name string) progress {
	if !show || total <= 0 {
		return noProgress{}
	}
	p := uiprogress.New()
	p.Out = os.Stderr
	p.Start()
	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(*uiprogress.Bar) string { return name })
	return &barProgress{p: p, bar: bar}
}

func (b *barProgress) Incr() { b.bar.Incr() }
func (b *barProgress) Done() { b.p.Stop() }
