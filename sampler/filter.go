// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterType selects which readings make up the filtered view.
type FilterType int

const (
	// FilterNone keeps every reading.
	FilterNone FilterType = iota
	// FilterNonZero drops readings exactly equal to zero.
	FilterNonZero
	// FilterAbove keeps readings strictly greater than a threshold.
	FilterAbove
)

type Filter struct {
	Type      FilterType
	Threshold float64
}

// DefaultFilter drops zero readings.
var DefaultFilter = Filter{Type: FilterNonZero}

// ParseFilter parses a filter in the form <type>[=<arg>], where type is
// one of none, nonzero or above. Only above takes an argument.
func ParseFilter(s string) (Filter, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	switch name {
	case "none", "nonzero":
		if hasArg {
			return Filter{}, fmt.Errorf("filter %q takes no argument", name)
		}
		if name == "none" {
			return Filter{Type: FilterNone}, nil
		}
		return Filter{Type: FilterNonZero}, nil
	case "above":
		if !hasArg {
			return Filter{}, fmt.Errorf("filter %q needs a threshold, e.g. above=0.5", name)
		}
		x, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("filter %q: bad threshold: %w", name, err)
		}
		return Filter{Type: FilterAbove, Threshold: x}, nil
	}
	return Filter{}, fmt.Errorf("unknown filter %q (want none, nonzero or above=<x>)", s)
}

func (f Filter) String() string {
	switch f.Type {
	case FilterNone:
		return "none"
	case FilterNonZero:
		return "nonzero"
	case FilterAbove:
		return "above=" + strconv.FormatFloat(f.Threshold, 'g', -1, 64)
	}
	return fmt.Sprintf("Filter(%d)", int(f.Type))
}

func (f Filter) keep(v float64) bool {
	switch f.Type {
	case FilterNonZero:
		return v != 0
	case FilterAbove:
		return v > f.Threshold
	}
	return true
}

// Apply returns the values f keeps, in their original order. The input is
// not modified.
func (f Filter) Apply(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f.keep(v) {
			out = append(out, v)
		}
	}
	return out
}
