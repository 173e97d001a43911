// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/loadsweep/loadsweep/stats"
)

const metricPrefix = "loadsweep_cpu_load_"

func ptr[T any](v T) *T { return &v }

func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: ptr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: ptr(labels[i]), Value: ptr(labels[i+1])})
	}
	return m
}

func family(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(metricPrefix + name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// families returns the metric families describing r, in a stable order.
func families(r *Report) []*dto.MetricFamily {
	perSet := func(name, help string, get func(stats.Summary) float64) *dto.MetricFamily {
		return family(name, help,
			gauge(get(r.All), "set", "all"),
			gauge(get(r.Filtered), "set", "filtered"))
	}
	return []*dto.MetricFamily{
		perSet("samples", "Number of CPU load readings.", func(s stats.Summary) float64 { return float64(s.Count) }),
		perSet("mean", "Mean CPU load.", func(s stats.Summary) float64 { return s.Mean }),
		perSet("stddev", "Population standard deviation of the CPU load.", func(s stats.Summary) float64 { return s.StdDev }),
		perSet("min", "Lowest CPU load reading.", func(s stats.Summary) float64 { return s.Min }),
		perSet("max", "Highest CPU load reading.", func(s stats.Summary) float64 { return s.Max }),
		perSet("median", "Median CPU load.", func(s stats.Summary) float64 { return s.Median }),
		family("breakout_index", "Index of the reading where the load level shifts, -1 if none.", gauge(float64(r.Breakout))),
		family("malformed", "Readings skipped as malformed.", gauge(float64(r.Malformed))),
	}
}

// WritePrometheus writes r in the Prometheus text exposition format, for
// the node_exporter textfile collector.
func WritePrometheus(w io.Writer, r *Report) error {
	for _, mf := range families(r) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
