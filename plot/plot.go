// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plot renders CPU load readings as an index-vs-value chart with
// point markers joined by a line.
package plot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Default figure size in inches. The chart is ten times wider than it is
// tall so that long sessions stay readable.
const (
	DefaultWidth  = 30.0
	DefaultHeight = 3.0
)

// dpi converts inches to pixels for raster output.
const dpi = 96

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// FormatFromPath picks the output format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	case "":
		return "", fmt.Errorf("%s: no file extension to pick a format from", path)
	default:
		return "", fmt.Errorf("%s: unsupported format %q (want png or svg)", path, ext)
	}
}

type Figure struct {
	Title  string
	XLabel string
	YLabel string

	// Width and Height are in inches. Zero means the default.
	Width, Height float64

	// Values are plotted against their index.
	Values []float64

	// Breakout, if positive, is marked with a vertical line.
	Breakout int
}

// NewFigure returns a figure of values with the default labels and size.
func NewFigure(values []float64) *Figure {
	return &Figure{
		Title:    "CPU load",
		XLabel:   "sample",
		YLabel:   "load",
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Values:   values,
		Breakout: -1,
	}
}

func (f *Figure) size() (w, h float64) {
	w, h = f.Width, f.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

func (f *Figure) hasBreakout() bool {
	return f.Breakout > 0 && f.Breakout < len(f.Values)
}

// yRange returns the extent of the values, widened when it is empty or
// a single point.
func (f *Figure) yRange() (lo, hi float64) {
	if len(f.Values) == 0 {
		return 0, 1
	}
	lo, hi = f.Values[0], f.Values[0]
	for _, v := range f.Values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

// Renderer draws a figure.
type Renderer interface {
	Render(w io.Writer, f *Figure, format Format) error
}

// DefaultBackend is the name of the default Renderer.
const DefaultBackend = "gonum"

var backends = map[string]Renderer{
	"gonum":   Gonum{},
	"gochart": GoChart{},
}

// Lookup returns the renderer registered under name.
func Lookup(name string) (Renderer, error) {
	if r, ok := backends[name]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unknown plot backend %q (want gonum or gochart)", name)
}

// Save renders f to the file at path, in the format its extension names.
func Save(r Renderer, f *Figure, path string) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if err := r.Render(out, f, format); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return nil
}
