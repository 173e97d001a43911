// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
	"reflect"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{10, 0, 30})
	if s.Count != 3 || !near(s.Mean, 40.0/3) {
		t.Errorf("count/mean: got %d, %v", s.Count, s.Mean)
	}
	if s.Min != 0 || s.Max != 30 || s.Median != 10 {
		t.Errorf("min/max/median: got %v, %v, %v", s.Min, s.Max, s.Median)
	}
	// Deviations -3.33, -13.33, 16.67; population variance 155.55...
	if !near(s.StdDev, math.Sqrt(1400.0/9)) {
		t.Errorf("stddev: got %v", s.StdDev)
	}

	f := Summarize([]float64{10, 30})
	if f.Count != 2 || f.Mean != 20 || f.Median != 20 || f.StdDev != 10 {
		t.Errorf("filtered summary: got %+v", f)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	for _, in := range [][]float64{nil, {}} {
		s := Summarize(in)
		if s.Count != 0 {
			t.Errorf("count: got %d", s.Count)
		}
		for name, v := range map[string]float64{"mean": s.Mean, "stddev": s.StdDev, "min": s.Min, "max": s.Max, "median": s.Median} {
			if !math.IsNaN(v) {
				t.Errorf("%s of empty input: got %v, want NaN", name, v)
			}
		}
	}
}

func TestSummarizeKeepsOrder(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	if !reflect.DeepEqual(in, []float64{3, 1, 2}) {
		t.Errorf("Summarize reordered its input: %v", in)
	}
}

func TestBreakout(t *testing.T) {
	step := func(n, at int, lo, hi float64) []float64 {
		v := make([]float64, n)
		for i := range v {
			if i >= at {
				v[i] = hi
			} else {
				v[i] = lo
			}
		}
		return v
	}
	tests := []struct {
		name   string
		values []float64
		window int
		want   int
	}{
		{"Step", step(20, 10, 0.05, 0.9), 3, 10},
		{"StepDown", step(16, 8, 0.8, 0.1), 2, 8},
		{"Offset", step(24, 12, 3.5, 4), 4, 12},
		{"Flat", step(20, 0, 0.5, 0.5), 3, -1},
		{"TooShort", step(5, 2, 0, 1), 3, -1},
		{"TinyWindow", step(20, 10, 0, 1), 1, -1},
		{"Empty", nil, 2, -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := append([]float64(nil), test.values...)
			if got := Breakout(in, test.window); got != test.want {
				t.Errorf("got %d, want %d", got, test.want)
			}
			if !reflect.DeepEqual(in, test.values) && test.values != nil {
				t.Errorf("input modified: %v", in)
			}
		})
	}
}

func TestRunningMedian(t *testing.T) {
	var m runningMedian
	for i, tc := range []struct{ add, want float64 }{
		{5, 5}, {1, 3}, {9, 5}, {2, 3.5}, {7, 5},
	} {
		m.add(tc.add)
		if got := m.median(); got != tc.want {
			t.Errorf("step %d: median %v, want %v", i, got, tc.want)
		}
	}
	m.reset()
	m.add(4)
	if got := m.median(); got != 4 {
		t.Errorf("after reset: median %v, want 4", got)
	}
}
