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
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp"
	"github.com/spatialmodel/mpinterp/seriesio"
	"github.com/spatialmodel/mpinterp/units"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// AlgorithmOptions are the user-facing settings of the Lai-Kaplan
// algorithm.
type AlgorithmOptions struct {
	// MinValue is the minimum allowed output value in the units of the
	// input values, or "none" for no minimum.
	MinValue string

	WallPolicy    string
	LeftBoundary  string
	RightBoundary string

	// FixedWalls holds wall overrides in the form "x=y" or "x=y:flat".
	FixedWalls []string

	ProgressBar bool
}

// Algorithm returns the interpolation algorithm that o describes, for
// input values in valueUnit.
func (o *AlgorithmOptions) Algorithm(valueUnit units.Unit, log logrus.FieldLogger) (*mpinterp.LaiKaplan, error) {
	lk := mpinterp.NewLaiKaplan()
	lk.Log = log
	lk.ProgressBar = o.ProgressBar
	lk.MinValApplier = &mpinterp.RymesMeyers{Log: log}

	minVal, err := parseMinValue(o.MinValue)
	if err != nil {
		return nil, err
	}
	if minVal != nil {
		q := units.Q(*minVal, valueUnit)
		lk.MinVal = &q
	}

	walls, err := mpinterp.ParseWallPolicy(orString(o.WallPolicy, mpinterp.LinearFlatStartWalls.String()))
	if err != nil {
		return nil, err
	}
	lk.Walls = walls
	if len(o.FixedWalls) > 0 {
		fixed := make([]mpinterp.FixedWall, len(o.FixedWalls))
		for i, s := range o.FixedWalls {
			if fixed[i], err = mpinterp.ParseFixedWall(os.ExpandEnv(s)); err != nil {
				return nil, err
			}
		}
		lk.Walls = mpinterp.WithFixedWalls(walls, fixed...)
	}

	ext := mpinterp.DefaultExtrapolator
	if o.LeftBoundary != "" {
		if ext.Left, err = mpinterp.ParseBoundaryHandling(o.LeftBoundary); err != nil {
			return nil, err
		}
	}
	if o.RightBoundary != "" {
		if ext.Right, err = mpinterp.ParseBoundaryHandling(o.RightBoundary); err != nil {
			return nil, err
		}
	}
	lk.Extrapolator = ext
	return lk, nil
}

// algorithmOptions reads the algorithm settings from cfg.
func algorithmOptions(cfg *viper.Viper) (*AlgorithmOptions, error) {
	fixed, err := cast.ToStringSliceE(cfg.Get("fixed_wall"))
	if err != nil {
		return nil, fmt.Errorf("mpinterp: invalid fixed_wall: %v", err)
	}
	minVal, err := cast.ToStringE(cfg.Get("min_value"))
	if err != nil {
		return nil, fmt.Errorf("mpinterp: invalid min_value: %v", err)
	}
	return &AlgorithmOptions{
		MinValue:      minVal,
		WallPolicy:    os.ExpandEnv(cfg.GetString("wall_policy")),
		LeftBoundary:  os.ExpandEnv(cfg.GetString("left_boundary")),
		RightBoundary: os.ExpandEnv(cfg.GetString("right_boundary")),
		FixedWalls:    fixed,
		ProgressBar:   cfg.GetBool("progress_bar"),
	}, nil
}

// parseMinValue interprets a minimum value setting. An empty string or
// "none" means no minimum.
func parseMinValue(s string) (*float64, error) {
	s = strings.TrimSpace(os.ExpandEnv(s))
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return nil, fmt.Errorf("mpinterp: min_value must be a number or \"none\", not %q", s)
	}
	return &v, nil
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// checkInputFile expands environment variables in f and makes sure it
// is specified.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`mpinterp: you need to specify an input file (for example: --input_file="co2_annual.csv")`)
	}
	return os.ExpandEnv(f), nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory or bucket exists, and expands any environment variables.
func checkOutputFile(ctx context.Context, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`mpinterp: you need to specify an output file (for example: --output_file="co2_monthly.csv")`)
	}
	f = os.ExpandEnv(f)
	if seriesio.IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if u.Scheme == "file" {
			return f, nil
		}
		b, err := seriesio.OpenBucket(ctx, u.Scheme+"://"+u.Host)
		if err != nil {
			return f, fmt.Errorf("mpinterp: error when checking output location: %v", err)
		}
		if u.Scheme != "mem" {
			b.Close()
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("mpinterp: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}
