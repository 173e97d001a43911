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
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/loadsweep/loadsweep/common"
	"github.com/loadsweep/loadsweep/common/log"
	"github.com/loadsweep/loadsweep/report"
	"github.com/loadsweep/loadsweep/runner"
	"github.com/loadsweep/loadsweep/upload"
)

const (
	runLongDesc = `Run a load session: start the server, drive it with the load generator,
then sample the CPU load readings from the server log, print their summary and
chart them.

Without a configuration file the session is the default one: the server is
started with "./gradlew runIdeaServer" in -server-root, the load generator with
"./gradlew startLoad" in -client-root, and the log is logback.log in the
server root.`
	runUsage = `Usage: %s run [flags] [config.toml]
`
)

type runCmd struct {
	serverRoot string
	clientRoot string
	quiet      bool
	printCmd   bool
	noShow     bool
	plotPath   string
	promPath   string
	skipTasks  bool
	waitIdle   float64
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Runs a load session and samples the server's CPU load." }
func (*runCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintln(w, runLongDesc)
	fmt.Fprint(w, common.ConfigHelp)
	fmt.Fprintln(w)
	fmt.Fprintf(w, runUsage, base)
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serverRoot, "server-root", ".", "server source tree, when no configuration is given")
	f.StringVar(&c.clientRoot, "client-root", "../projector-client", "load generator source tree, when no configuration is given")
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr (no effect on -shell)")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.BoolVar(&c.noShow, "no-show", false, "don't display the chart in a window")
	f.StringVar(&c.plotPath, "plot", "", "write the chart here instead of the configured output")
	f.StringVar(&c.promPath, "prom", "", "also write the statistics to this file in Prometheus text format")
	f.BoolVar(&c.skipTasks, "skip-tasks", false, "don't run any task, only sample the existing log")
	f.Float64Var(&c.waitIdle, "wait-idle", 0, "before starting, wait until the 1 minute load average is below this value (0 disables)")
}

func (c *runCmd) config(args []string) (*common.Config, error) {
	switch len(args) {
	case 0:
		cfg := common.DefaultConfig(c.serverRoot, c.clientRoot)
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(wd); err != nil {
			return nil, err
		}
		return cfg, nil
	case 1:
		return common.LoadConfig(args[0])
	}
	return nil, fmt.Errorf("expected at most one configuration file, got %d", len(args))
}

func (c *runCmd) Run(args []string) error {
	log.SetCommandTrace(c.printCmd)
	log.SetActivityLog(!c.quiet)

	cfg, err := c.config(args)
	if err != nil {
		return err
	}
	if c.plotPath != "" {
		if cfg.Plot.Output, err = filepath.Abs(c.plotPath); err != nil {
			return err
		}
	}
	smp, err := newSampler(&cfg.Sampler)
	if err != nil {
		return err
	}
	runID := upload.NewRunID()
	out, err := newOutputs(cfg, runID, c.promPath, cfg.Plot.ShowPlot() && !c.noShow)
	if err != nil {
		return err
	}
	tasks, err := runner.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.waitIdle > 0 {
		if err := runner.WaitForIdle(ctx, c.waitIdle, 5*time.Second); err != nil {
			return err
		}
	}

	if !c.skipTasks && len(tasks) > 0 {
		r := &runner.Runner{Stdout: taskOutput(c.quiet)}
		log.Printf("Session %s: running %d tasks", runID, len(tasks))
		results, err := r.Run(ctx, tasks)
		for _, res := range results {
			switch {
			case res.Stopped:
				log.Printf("  %s: stopped after %s", res.Name, res.Duration.Round(time.Second))
			case res.Err != nil:
				log.Error(fmt.Errorf("%s: %w", res.Name, res.Err))
			default:
				log.Printf("  %s: ok in %s", res.Name, res.Duration.Round(time.Second))
			}
		}
		if err != nil {
			return err
		}
	}
	stop()

	log.Printf("Sampling %s", cfg.LogPath())
	res, err := smp.SampleFile(cfg.LogPath())
	if err != nil {
		return err
	}
	rep := report.New(runID, cfg.LogPath(), smp, res, cfg.Sampler.Window())
	return out.emit(context.Background(), os.Stdout, rep)
}

// taskOutput is where tasks write their standard output. It is kept off
// stdout, which carries the report.
func taskOutput(quiet bool) io.Writer {
	if quiet {
		return io.Discard
	}
	return os.Stderr
}
