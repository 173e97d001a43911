// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report prints the outcome of sampling a server log.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/loadsweep/loadsweep/sampler"
	"github.com/loadsweep/loadsweep/stats"
)

type Report struct {
	RunID   string
	LogPath string
	Filter  string

	Samples        []float64
	FilteredValues []float64

	All      stats.Summary
	Filtered stats.Summary

	// Breakout is the index at which the load level shifts, or -1.
	Breakout int

	// Malformed counts readings skipped as malformed.
	Malformed int
}

// New summarizes a sampling result. A window below 2 disables breakout
// detection.
func New(runID, logPath string, s *sampler.Sampler, res *sampler.Result, window int) *Report {
	values := res.Values()
	return &Report{
		RunID:          runID,
		LogPath:        logPath,
		Filter:         s.Filter.String(),
		Samples:        values,
		FilteredValues: res.Filtered,
		All:            stats.Summarize(values),
		Filtered:       stats.Summarize(res.Filtered),
		Breakout:       stats.Breakout(values, window),
		Malformed:      len(res.Diagnostics),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// WriteText writes the readings, their count and their mean, first for
// every reading and then for the filtered ones, followed by the remaining
// statistics.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	row := func(label, value string) {
		fmt.Fprintf(tw, "%s:\t%s\n", label, value)
	}
	row("CPU load", formatValues(r.Samples))
	row("Length", strconv.Itoa(r.All.Count))
	row("AVG", formatFloat(r.All.Mean))
	row("Filtered ("+r.Filter+")", formatValues(r.FilteredValues))
	row("Length filtered", strconv.Itoa(r.Filtered.Count))
	row("AVG filtered", formatFloat(r.Filtered.Mean))
	fmt.Fprintln(tw)
	for _, set := range []struct {
		name string
		s    stats.Summary
	}{
		{"all", r.All},
		{"filtered", r.Filtered},
	} {
		row("Stddev "+set.name, formatFloat(set.s.StdDev))
		row("Min "+set.name, formatFloat(set.s.Min))
		row("Max "+set.name, formatFloat(set.s.Max))
		row("Median "+set.name, formatFloat(set.s.Median))
	}
	if r.Breakout >= 0 {
		row("Breakout", strconv.Itoa(r.Breakout))
	} else {
		row("Breakout", "none")
	}
	row("Malformed", strconv.Itoa(r.Malformed))
	if r.RunID != "" {
		row("Run", r.RunID)
	}
	return tw.Flush()
}

// Summary is a one line digest of r.
func Summary(r *Report) string {
	return fmt.Sprintf("n=%d avg=%s n(%s)=%d avg(%s)=%s max=%s",
		r.All.Count, formatFloat(r.All.Mean),
		r.Filter, r.Filtered.Count, r.Filter, formatFloat(r.Filtered.Mean),
		formatFloat(r.All.Max))
}
