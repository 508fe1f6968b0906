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


// Package mpiutil holds the command-line interface for mpinterp.
package mpiutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by the commands.
var Log = logrus.New()

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	algFlags := []*pflag.FlagSet{monthlyCmd.Flags(), refineCmd.Flags(), batchCmd.Flags()}

	// Options are the configuration options available to mpinterp.
	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_file",
			usage: `
              log_file specifies a file that log messages are written to
              in addition to standard error. It can include environment
              variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "input_file",
			usage: `
              input_file specifies the path to the input series. It can
              be a local file or a blob (gs://, s3://, file://, mem://),
              and is decompressed if it ends in .gz or .zst.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), refineCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "output_file",
			usage: `
              output_file specifies the path where the output series is
              written. It is compressed if it ends in .gz or .zst.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), refineCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "plot_file",
			usage: `
              plot_file, if set, specifies where to write a plot comparing
              the input and output series. The format (png, svg, pdf or jpg)
              is taken from the file extension.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), refineCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "min_value",
			usage: `
              min_value specifies the minimum allowed output value, in the
              units of the input. Set it to "none" to allow any value.`,
			defaultVal: "0",
			flagsets:   algFlags,
		},
		{
			name: "wall_policy",
			usage: `
              wall_policy specifies how values at the interval boundaries are
              estimated: "cubic", "linear", or "linear-flat-start", which
              keeps a constant start of the series exactly constant.`,
			defaultVal: mpinterp.LinearFlatStartWalls.String(),
			flagsets:   algFlags,
		},
		{
			name: "left_boundary",
			usage: `
              left_boundary specifies how the series is extended before its
              start: "constant" or "cubic".`,
			defaultVal: mpinterp.DefaultExtrapolator.Left.String(),
			flagsets:   algFlags,
		},
		{
			name: "right_boundary",
			usage: `
              right_boundary specifies how the series is extended past its
              end: "constant" or "cubic".`,
			defaultVal: mpinterp.DefaultExtrapolator.Right.String(),
			flagsets:   algFlags,
		},
		{
			name: "fixed_wall",
			usage: `
              fixed_wall forces the interpolated value at an interval boundary.
              It is given as x=value, or x=value:flat to also hold the slope
              there at zero, and may be repeated.`,
			defaultVal: []string{},
			flagsets:   algFlags,
		},
		{
			name: "progress_bar",
			usage: `
              progress_bar specifies whether to show a progress bar while
              evaluating the output. It is ignored in batch mode.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), refineCmd.Flags()},
		},
		{
			name: "verify",
			usage: `
              verify specifies whether to check that the output averages back
              to the input over each input interval.`,
			defaultVal: true,
			flagsets:   algFlags,
		},
		{
			name: "atol",
			usage: `
              atol is the absolute tolerance for the verification.`,
			defaultVal: mpinterp.DefaultAtol,
			flagsets:   algFlags,
		},
		{
			name: "rtol",
			usage: `
              rtol is the relative tolerance for the verification.`,
			defaultVal: mpinterp.DefaultRtol,
			flagsets:   algFlags,
		},
		{
			name: "month_rounding",
			usage: `
              month_rounding is the number of decimal places that month
              boundaries, in years, are reported with. A negative value
              turns rounding off.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "out_day",
			usage: `
              out_day is the day of the month, 1 to 28, used for output
              time stamps.`,
			defaultVal: 15,
			flagsets:   []*pflag.FlagSet{monthlyCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "factor",
			usage: `
              factor is the number of output intervals each input interval
              is split into.`,
			shorthand:  "f",
			defaultVal: 12,
			flagsets:   []*pflag.FlagSet{refineCmd.Flags()},
		},
		{
			name: "rounding",
			usage: `
              rounding is the number of decimal places that new interval
              bounds are rounded to. A negative value turns rounding off.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{refineCmd.Flags()},
		},
		{
			name: "batch_file",
			usage: `
              batch_file specifies a TOML file listing the jobs to run. Each
              [[Job]] may set Name, InputFile, OutputFile, MinValue, WallPolicy,
              LeftBoundary, RightBoundary and PlotFile; empty fields take the
              command-line values. NumProcessors sets how many jobs run at once.`,
			shorthand:  "b",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("MPINTERP")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringArrayP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(monthlyCmd)
	Root.AddCommand(refineCmd)
	Root.AddCommand(batchCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig(cmd *cobra.Command) error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("mpinterp: problem reading configuration file: %v", err)
		}
	}
	return setLogging(cmd.ErrOrStderr(), os.ExpandEnv(Cfg.GetString("log_file")), Cfg.GetBool("verbose"))
}

var logFile io.Closer

// setLogging directs log messages to w and, if logPath is not empty,
// to a file as well.
func setLogging(w io.Writer, logPath string, verbose bool) error {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
	Log.SetLevel(logrus.InfoLevel)
	if verbose {
		Log.SetLevel(logrus.DebugLevel)
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if logPath == "" {
		Log.SetOutput(w)
		return nil
	}
	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("mpinterp: problem creating log file: %v", err)
	}
	logFile = f
	Log.SetOutput(io.MultiWriter(w, f))
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "mpinterp",
	Short: "Mean-preserving interpolation of time series.",
	Long: `mpinterp interpolates series of interval means, such as annual mean
greenhouse gas concentrations, onto finer intervals, such as months, so that
the finer values average back exactly to the original ones. It uses the
Lai-Kaplan method, with a Rymes-Meyers correction where values would fall
below a minimum.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'MPINTERP_var' where 'var' is the
name of the variable to be set. File paths may contain environment variables.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return setConfig(cmd) },
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if logFile != nil {
			err := logFile.Close()
			logFile = nil
			return err
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of mpinterp.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("mpinterp v%s\n", mpinterp.Version)
	},
	DisableAutoGenTag: true,
}

// monthlyJobFromConfig builds a MonthlyJob from the current settings.
func monthlyJobFromConfig(name string) (*MonthlyJob, error) {
	alg, err := algorithmOptions(Cfg)
	if err != nil {
		return nil, err
	}
	return &MonthlyJob{
		Name:             name,
		InputFile:        os.ExpandEnv(Cfg.GetString("input_file")),
		OutputFile:       os.ExpandEnv(Cfg.GetString("output_file")),
		PlotFile:         os.ExpandEnv(Cfg.GetString("plot_file")),
		AlgorithmOptions: *alg,
		MonthRounding:    intPtr(Cfg.GetInt("month_rounding")),
		OutDay:           intPtr(Cfg.GetInt("out_day")),
		Verify:           Cfg.GetBool("verify"),
		Atol:             Cfg.GetFloat64("atol"),
		Rtol:             Cfg.GetFloat64("rtol"),
	}, nil
}

func intPtr(i int) *int { return &i }

// monthlyCmd interpolates an annual series to monthly values.
var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Interpolate annual means to monthly means.",
	Long: `monthly reads a CSV file with the columns year, value and unit, and
writes a CSV file with the columns time, year, month, value and unit, where
the monthly values average to the annual values within each year.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		job, err := monthlyJobFromConfig("monthly")
		if err != nil {
			return err
		}
		if job.InputFile, err = checkInputFile(job.InputFile); err != nil {
			return err
		}
		if job.OutputFile, err = checkOutputFile(ctx, job.OutputFile); err != nil {
			return err
		}
		return RunMonthly(ctx, job, Log)
	},
}

// refineCmd subdivides the intervals of a bounded series.
var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Split each interval of a series into finer intervals.",
	Long: `refine reads a CSV file with the columns x_lower, x_upper, value,
x_unit and value_unit, splits each interval into --factor equal parts, and
writes the interpolated values in the same format.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		alg, err := algorithmOptions(Cfg)
		if err != nil {
			return err
		}
		job := &RefineJob{
			Name:             "refine",
			PlotFile:         os.ExpandEnv(Cfg.GetString("plot_file")),
			AlgorithmOptions: *alg,
			Factor:           Cfg.GetInt("factor"),
			Rounding:         Cfg.GetInt("rounding"),
			Verify:           Cfg.GetBool("verify"),
			Atol:             Cfg.GetFloat64("atol"),
			Rtol:             Cfg.GetFloat64("rtol"),
		}
		if job.InputFile, err = checkInputFile(Cfg.GetString("input_file")); err != nil {
			return err
		}
		if job.OutputFile, err = checkOutputFile(ctx, Cfg.GetString("output_file")); err != nil {
			return err
		}
		return RunRefine(ctx, job, Log)
	},
}

// batchCmd runs many monthly interpolations.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a batch of annual-to-monthly interpolations.",
	Long: `batch runs the annual-to-monthly interpolations listed in a TOML
batch file, several at a time. Settings that a job does not give are taken
from the command line or configuration file.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := Cfg.GetString("batch_file")
		if path == "" {
			return fmt.Errorf(`mpinterp: you need to specify a batch file (for example: --batch_file="jobs.toml")`)
		}
		defaults, err := monthlyJobFromConfig("")
		if err != nil {
			return err
		}
		return runBatchFile(context.Background(), path, defaults, Log)
	},
}
