// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loadsweep/loadsweep/common"
	"github.com/loadsweep/loadsweep/common/log"
	"github.com/loadsweep/loadsweep/report"
)

const (
	watchLongDesc = `Follow a server log while a session is running, printing a one-line summary
of its CPU load readings every time it changes. The log doesn't need to exist
yet. Stop with an interrupt.`
	watchUsage = `Usage: %s watch [flags] <log>
`
)

type watchCmd struct {
	sampler common.SamplerConfig
	quiet   bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "Follows a server log and summarizes it as it grows." }
func (*watchCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintln(w, watchLongDesc)
	fmt.Fprintln(w)
	fmt.Fprintf(w, watchUsage, base)
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sampler.Label, "label", common.DefaultLabel, "text preceding each reading")
	f.StringVar(&c.sampler.Filter, "filter", common.DefaultFilter, "readings kept in the filtered view: none, nonzero or above=<x>")
	// A line may be caught half written, so skip rather than fail.
	f.StringVar(&c.sampler.Malformed, "malformed", "skip", "what to do with a reading that isn't a number: fail or skip")
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
}

func (c *watchCmd) Run(args []string) error {
	log.SetActivityLog(!c.quiet)
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one log file")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	smp, err := newSampler(&c.sampler)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summarize := func() {
		res, err := smp.SampleFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		} else if err != nil {
			log.Printf("sampling %s: %v", path, err)
			return
		}
		rep := report.New("", path, smp, res, 0)
		fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), report.Summary(rep))
	}
	summarize()
	return watchLog(ctx, path, summarize)
}

// watchLog calls onChange every time the file at path is created or
// written, until ctx is done. It watches the parent directory so that the
// file may be created or replaced after the watch starts.
func watchLog(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log.Printf("Watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watching %s: %v", path, err)
		}
	}
}
