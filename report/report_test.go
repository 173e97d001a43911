// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"

	"github.com/loadsweep/loadsweep/sampler"
)

func newReport(t *testing.T, log string) *Report {
	t.Helper()
	s := sampler.New()
	res, err := s.Scan(strings.NewReader(log))
	if err != nil {
		t.Fatal(err)
	}
	return New("run-1", "logback.log", s, res, 2)
}

func TestWriteText(t *testing.T) {
	r := newReport(t, "CPU load: 10\nCPU load: 0\nCPU load: 30\n")
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	want := []struct{ label, value string }{
		{"CPU load:", "[10 0 30]"},
		{"Length:", "3"},
		{"AVG:", "13.333333333333334"},
		{"Filtered (nonzero):", "[10 30]"},
		{"Length filtered:", "2"},
		{"AVG filtered:", "20"},
	}
	if len(lines) < len(want) {
		t.Fatalf("report too short:\n%s", buf.String())
	}
	for i, w := range want {
		f := strings.Fields(lines[i])
		if !strings.HasPrefix(lines[i], w.label) || len(f) == 0 || !strings.HasSuffix(lines[i], w.value) {
			t.Errorf("line %d: got %q, want %s %s", i, lines[i], w.label, w.value)
		}
	}
	for _, s := range []string{"Median all:", "Breakout:", "Malformed:", "Run:"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("report missing %q:\n%s", s, buf.String())
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	r := newReport(t, "Starting server\n")
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"CPU load:", "[]", "Length:", "AVG:", "NaN", "Breakout:", "none"} {
		if !strings.Contains(out, s) {
			t.Errorf("report missing %q:\n%s", s, out)
		}
	}
	if !math.IsNaN(r.All.Mean) || r.All.Count != 0 {
		t.Errorf("empty summary: %+v", r.All)
	}
}

func TestWritePrometheus(t *testing.T) {
	r := newReport(t, "CPU load: 10\nCPU load: 0\nCPU load: 30\n")
	var buf bytes.Buffer
	if err := WritePrometheus(&buf, r); err != nil {
		t.Fatal(err)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(&buf)
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	means := mfs["loadsweep_cpu_load_mean"]
	if means == nil {
		t.Fatalf("no mean metric in %v", mfs)
	}
	got := map[string]float64{}
	for _, m := range means.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "set" {
				got[l.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}
	if math.Abs(got["all"]-40.0/3) > 1e-9 || got["filtered"] != 20 {
		t.Errorf("means: got %v", got)
	}
	if mf := mfs["loadsweep_cpu_load_samples"]; mf == nil || len(mf.GetMetric()) != 2 {
		t.Errorf("samples metric: %v", mf)
	}
	if mf := mfs["loadsweep_cpu_load_breakout_index"]; mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != -1 {
		t.Errorf("breakout metric: %v", mf)
	}
}

func TestSummary(t *testing.T) {
	r := newReport(t, "CPU load: 10\nCPU load: 0\nCPU load: 30\n")
	if got, want := Summary(r), "n=3 avg=13.333333333333334 n(nonzero)=2 avg(nonzero)=20 max=30"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
