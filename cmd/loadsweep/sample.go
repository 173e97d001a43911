// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/loadsweep/loadsweep/common"
	"github.com/loadsweep/loadsweep/common/log"
	"github.com/loadsweep/loadsweep/report"
)

const (
	sampleLongDesc = `Sample the CPU load readings of an existing server log and print their
summary. Nothing is run.`
	sampleUsage = `Usage: %s sample [flags] [log]
`
)

type sampleCmd struct {
	sampler  common.SamplerConfig
	window   int
	quiet    bool
	plotPath string
	backend  string
	show     bool
	promPath string
}

func (*sampleCmd) Name() string     { return "sample" }
func (*sampleCmd) Synopsis() string { return "Samples the CPU load readings of a server log." }
func (*sampleCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintln(w, sampleLongDesc)
	fmt.Fprintln(w)
	fmt.Fprintf(w, sampleUsage, base)
}

func (c *sampleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sampler.Label, "label", common.DefaultLabel, "text preceding each reading")
	f.StringVar(&c.sampler.Filter, "filter", common.DefaultFilter, "readings kept in the filtered view: none, nonzero or above=<x>")
	f.StringVar(&c.sampler.Malformed, "malformed", common.DefaultMalformed, "what to do with a reading that isn't a number: fail or skip")
	f.IntVar(&c.window, "window", common.DefaultBreakoutWindow, "minimum readings on either side of a breakout (0 disables)")
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.StringVar(&c.plotPath, "plot", "", "write the chart to this file (.png or .svg)")
	f.StringVar(&c.backend, "backend", common.DefaultBackend, "chart renderer: gonum or gochart")
	f.BoolVar(&c.show, "show", false, "display the chart in a window")
	f.StringVar(&c.promPath, "prom", "", "also write the statistics to this file in Prometheus text format")
}

func (c *sampleCmd) Run(args []string) error {
	log.SetActivityLog(!c.quiet)

	path := common.DefaultLogName
	switch len(args) {
	case 0:
	case 1:
		path = args[0]
	default:
		return fmt.Errorf("expected at most one log file, got %d", len(args))
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	cfg := &common.Config{Sampler: c.sampler}
	cfg.Sampler.BreakoutWindow = &c.window
	cfg.Plot.Backend = c.backend
	if err := cfg.Validate(filepath.Dir(path)); err != nil {
		return err
	}
	// Validate defaults the chart path; only draw one when asked to.
	cfg.Plot.Output = ""
	if c.plotPath != "" {
		if cfg.Plot.Output, err = filepath.Abs(c.plotPath); err != nil {
			return err
		}
	}
	smp, err := newSampler(&cfg.Sampler)
	if err != nil {
		return err
	}
	out, err := newOutputs(cfg, "", c.promPath, c.show)
	if err != nil {
		return err
	}

	res, err := smp.SampleFile(path)
	if err != nil {
		return err
	}
	rep := report.New("", path, smp, res, cfg.Sampler.Window())
	return out.emit(context.Background(), os.Stdout, rep)
}
