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
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/mpinterp/internal/hash"
	"github.com/spatialmodel/mpinterp/seriesio"
	"github.com/spf13/cast"
)

// BatchConfig is the contents of a batch file.
type BatchConfig struct {
	// NumProcessors is the number of jobs to run at once. Zero means
	// one per CPU.
	NumProcessors int

	Job []BatchJob
}

// BatchJob is a single entry in a batch file. Empty fields take the
// values given on the command line or in the configuration file.
type BatchJob struct {
	Name       string
	InputFile  string
	OutputFile string
	// MinValue is a number or "none".
	MinValue      interface{}
	WallPolicy    string
	LeftBoundary  string
	RightBoundary string
	PlotFile      string
}

// ReadBatch reads a TOML batch file.
func ReadBatch(r io.Reader) (*BatchConfig, error) {
	var c BatchConfig
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, fmt.Errorf("mpinterp: reading batch file: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("mpinterp: unknown keys in batch file: %s", strings.Join(keys, ", "))
	}
	if len(c.Job) == 0 {
		return nil, fmt.Errorf("mpinterp: batch file has no jobs")
	}
	names := make(map[string]bool)
	for i := range c.Job {
		if c.Job[i].Name == "" {
			c.Job[i].Name = fmt.Sprintf("job%d", i+1)
		}
		if names[c.Job[i].Name] {
			return nil, fmt.Errorf("mpinterp: duplicate job name %q in batch file", c.Job[i].Name)
		}
		names[c.Job[i].Name] = true
	}
	return &c, nil
}

// monthlyJob fills in the empty fields of j from defaults.
func (j *BatchJob) monthlyJob(defaults *MonthlyJob) (*MonthlyJob, error) {
	m := *defaults
	m.FixedWalls = append([]string(nil), defaults.FixedWalls...)
	m.Name = j.Name
	m.InputFile = os.ExpandEnv(orString(j.InputFile, defaults.InputFile))
	m.OutputFile = os.ExpandEnv(orString(j.OutputFile, defaults.OutputFile))
	m.PlotFile = os.ExpandEnv(orString(j.PlotFile, defaults.PlotFile))
	m.WallPolicy = orString(j.WallPolicy, defaults.WallPolicy)
	m.LeftBoundary = orString(j.LeftBoundary, defaults.LeftBoundary)
	m.RightBoundary = orString(j.RightBoundary, defaults.RightBoundary)
	if j.MinValue != nil {
		s, err := cast.ToStringE(j.MinValue)
		if err != nil {
			return nil, fmt.Errorf("mpinterp: job %s: invalid MinValue: %v", j.Name, err)
		}
		m.MinValue = s
	}
	// Concurrent jobs would garble each other's progress bars.
	m.ProgressBar = false
	if _, err := checkInputFile(m.InputFile); err != nil {
		return nil, fmt.Errorf("%v (job %s)", err, j.Name)
	}
	if m.OutputFile == "" {
		return nil, fmt.Errorf("mpinterp: job %s has no OutputFile", j.Name)
	}
	return &m, nil
}

// BatchError lists the jobs in a batch that failed.
type BatchError struct {
	Failed map[string]error
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for name, err := range e.Failed {
		msgs = append(msgs, fmt.Sprintf("%s: %v", name, err))
	}
	sort.Strings(msgs)
	return fmt.Sprintf("mpinterp: %d batch job(s) failed:\n%s", len(e.Failed), strings.Join(msgs, "\n"))
}

// RunBatch runs the jobs in c, c.NumProcessors at a time. Every job is
// attempted even if others fail.
func RunBatch(ctx context.Context, c *BatchConfig, defaults *MonthlyJob, log logrus.FieldLogger) error {
	jobs := make([]*MonthlyJob, len(c.Job))
	for i := range c.Job {
		j, err := c.Job[i].monthlyJob(defaults)
		if err != nil {
			return err
		}
		jobs[i] = j
	}
	nprocs := c.NumProcessors
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nprocs > len(jobs) {
		nprocs = len(jobs)
	}
	log.WithFields(logrus.Fields{"jobs": len(jobs), "processors": nprocs}).Info("starting batch")

	jobChan := make(chan *MonthlyJob)
	var mu sync.Mutex
	failed := make(map[string]error)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func() {
			defer wg.Done()
			for j := range jobChan {
				jlog := log.WithField("fingerprint", hash.Short(j))
				err := ctx.Err()
				if err == nil {
					err = RunMonthly(ctx, j, jlog)
				}
				if err != nil {
					jlog.WithField("job", j.Name).WithError(err).Error("job failed")
					mu.Lock()
					failed[j.Name] = err
					mu.Unlock()
				}
			}
		}()
	}
	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)
	wg.Wait()

	if len(failed) > 0 {
		return &BatchError{Failed: failed}
	}
	log.Info("batch finished")
	return nil
}

// runBatchFile reads the batch file at path and runs it.
func runBatchFile(ctx context.Context, path string, defaults *MonthlyJob, log logrus.FieldLogger) error {
	r, err := seriesio.Open(ctx, os.ExpandEnv(path))
	if err != nil {
		return err
	}
	c, err := ReadBatch(r)
	r.Close()
	if err != nil {
		return err
	}
	return RunBatch(ctx, c, defaults, log)
}
