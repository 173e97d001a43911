// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/loadsweep/loadsweep/common"
	"github.com/loadsweep/loadsweep/common/log"
	"github.com/loadsweep/loadsweep/plot"
	"github.com/loadsweep/loadsweep/plot/display"
	"github.com/loadsweep/loadsweep/report"
	"github.com/loadsweep/loadsweep/sampler"
	"github.com/loadsweep/loadsweep/upload"
)

// newSampler builds a sampler from the sampler section of a config.
func newSampler(c *common.SamplerConfig) (*sampler.Sampler, error) {
	filter, err := sampler.ParseFilter(c.Filter)
	if err != nil {
		return nil, err
	}
	policy, err := sampler.ParseMalformedPolicy(c.Malformed)
	if err != nil {
		return nil, err
	}
	return &sampler.Sampler{
		Grammar:   sampler.Grammar{Label: c.Label},
		Filter:    filter,
		Malformed: policy,
	}, nil
}

// outputs is everything produced from a sampled log besides the text
// report on stdout.
type outputs struct {
	runID string

	// plotPath is where the chart goes. Empty means no chart.
	plotPath string
	renderer plot.Renderer
	width    float64
	height   float64
	show     bool

	// promPath is where the Prometheus metrics go. Empty means none.
	promPath string

	// gcs uploads every artifact. Nil means no upload.
	gcs *upload.GCS
}

// newOutputs checks the plot and upload settings of a config. Everything is
// checked up front so that a typo doesn't surface after a long session.
func newOutputs(cfg *common.Config, runID, promPath string, show bool) (*outputs, error) {
	r, err := plot.Lookup(cfg.Plot.Backend)
	if err != nil {
		return nil, err
	}
	o := &outputs{
		runID:    runID,
		renderer: r,
		width:    cfg.Plot.Width,
		height:   cfg.Plot.Height,
		show:     show,
		promPath: promPath,
	}
	if cfg.Plot.Output != "" {
		o.plotPath = cfg.PlotPath()
		if _, err := plot.FormatFromPath(o.plotPath); err != nil {
			return nil, err
		}
	}
	if cfg.Upload.Bucket != "" {
		g := &upload.GCS{Bucket: cfg.Upload.Bucket, Prefix: cfg.Upload.Prefix, RunID: runID}
		if err := g.Auth.Set(cfg.Upload.Auth); err != nil {
			return nil, err
		}
		if g.Auth == upload.AuthNone {
			return nil, fmt.Errorf("upload to %s: authentication required for upload", g.Bucket)
		}
		o.gcs = g
	}
	return o, nil
}

// emit prints the report for rep to stdout and writes, shows and uploads
// the other artifacts.
func (o *outputs) emit(ctx context.Context, stdout io.Writer, rep *report.Report) error {
	var text bytes.Buffer
	if err := report.WriteText(io.MultiWriter(stdout, &text), rep); err != nil {
		return err
	}
	artifacts := map[string][]byte{"report.txt": text.Bytes()}

	if o.promPath != "" {
		var prom bytes.Buffer
		if err := report.WritePrometheus(&prom, rep); err != nil {
			return err
		}
		if err := os.WriteFile(o.promPath, prom.Bytes(), 0644); err != nil {
			return err
		}
		log.Printf("Wrote metrics to %s", o.promPath)
		artifacts[filepath.Base(o.promPath)] = prom.Bytes()
	}

	fig := plot.NewFigure(rep.Samples)
	fig.Width, fig.Height = o.width, o.height
	fig.Breakout = rep.Breakout
	if rep.RunID != "" {
		fig.Title = "CPU load (" + rep.RunID + ")"
	}
	if o.plotPath != "" {
		if err := plot.Save(o.renderer, fig, o.plotPath); err != nil {
			return err
		}
		log.Printf("Wrote chart to %s", o.plotPath)
		b, err := os.ReadFile(o.plotPath)
		if err != nil {
			return err
		}
		artifacts[filepath.Base(o.plotPath)] = b
	}

	if o.gcs != nil {
		for name, b := range artifacts {
			url, err := o.gcs.Put(ctx, name, bytes.NewReader(b))
			if err != nil {
				return fmt.Errorf("uploading %s: %w", name, err)
			}
			log.Printf("Uploaded %s", url)
		}
	}

	if o.show {
		var png bytes.Buffer
		if err := o.renderer.Render(&png, fig, plot.PNG); err != nil {
			return err
		}
		return display.ShowPNG(fig.Title, png.Bytes())
	}
	return nil
}
