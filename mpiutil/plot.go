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


package mpiutil

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/mpinterp/seriesio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// stepXYs returns the points of a step line where each value in b is
// held constant across its interval.
func stepXYs(b *seriesio.Bounded) plotter.XYs {
	xy := make(plotter.XYs, 0, 2*b.Values.Len())
	for i, v := range b.Values.Values {
		xy = append(xy,
			plotter.XY{X: b.Bounds.Values[i], Y: v},
			plotter.XY{X: b.Bounds.Values[i+1], Y: v},
		)
	}
	return xy
}

// newPlot returns a plot comparing the input series with the
// interpolated output.
func newPlot(title string, in, out *seriesio.Bounded) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = in.Bounds.Unit.String()
	p.Y.Label.Text = in.Values.Unit.String()
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range []struct {
		name string
		b    *seriesio.Bounded
	}{{"input", in}, {"interpolated", out}} {
		l, err := plotter.NewLine(stepXYs(s.b))
		if err != nil {
			return nil, fmt.Errorf("mpinterp: plotting %s series: %v", s.name, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1 + float64(1-i))
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	return p, nil
}

// writePlot writes a comparison plot to path. The image format is
// taken from the file extension.
func writePlot(ctx context.Context, path, title string, in, out *seriesio.Bounded) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "png", "svg", "pdf", "jpg", "jpeg":
	default:
		return fmt.Errorf("mpinterp: unsupported plot format %q", format)
	}
	p, err := newPlot(title, in, out)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return err
	}
	return writeFile(ctx, path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
