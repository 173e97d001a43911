// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampler extracts CPU load readings from a server log.
package sampler

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/loadsweep/loadsweep/common/log"
)

// maxLineSize bounds a single log line. Stack traces in server logs can be
// much longer than bufio's default token size.
const maxLineSize = 1 << 20

// MalformedPolicy decides what happens to a labelled line whose value
// does not parse.
type MalformedPolicy int

const (
	// MalformedFail aborts the scan.
	MalformedFail MalformedPolicy = iota
	// MalformedSkip records a Diagnostic and carries on.
	MalformedSkip
)

func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch s {
	case "fail":
		return MalformedFail, nil
	case "skip":
		return MalformedSkip, nil
	}
	return 0, fmt.Errorf("unknown malformed policy %q (want fail or skip)", s)
}

func (p MalformedPolicy) String() string {
	if p == MalformedSkip {
		return "skip"
	}
	return "fail"
}

// MalformedError is returned by a scan under MalformedFail.
type MalformedError struct {
	Line int
	Text string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("line %d: malformed reading %q", e.Line, e.Text)
}

// Sample is a reading and the 1-based line it came from.
type Sample struct {
	Line  int
	Value float64
}

// Samples are kept in file order.
type Samples []Sample

func (s Samples) Values() []float64 {
	vs := make([]float64, len(s))
	for i := range s {
		vs[i] = s[i].Value
	}
	return vs
}

type Diagnostic struct {
	Line int
	Text string
	Err  error
}

type Result struct {
	// Samples holds every reading, zeros included.
	Samples Samples

	// Filtered holds the values kept by the sampler's filter.
	Filtered []float64

	// Diagnostics lists the malformed readings skipped.
	Diagnostics []Diagnostic

	// Lines is the number of lines scanned.
	Lines int
}

// Values returns every sampled value in file order.
func (r *Result) Values() []float64 {
	return r.Samples.Values()
}

type Sampler struct {
	Grammar   Grammar
	Filter    Filter
	Malformed MalformedPolicy
}

// New returns a Sampler with the default label, filter and policy.
func New() *Sampler {
	return &Sampler{
		Grammar: Grammar{Label: DefaultLabel},
		Filter:  DefaultFilter,
	}
}

// Scan reads r line by line and collects the readings it contains.
func (s *Sampler) Scan(r io.Reader) (*Result, error) {
	res := new(Result)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		res.Lines++
		rd := s.Grammar.Parse(sc.Text())
		switch rd.Kind {
		case Value:
			res.Samples = append(res.Samples, Sample{Line: res.Lines, Value: rd.Value})
		case Malformed:
			err := &MalformedError{Line: res.Lines, Text: rd.Text}
			if s.Malformed == MalformedFail {
				return nil, err
			}
			log.Printf("skipping %v", err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: res.Lines, Text: rd.Text, Err: err})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", res.Lines+1, err)
	}
	res.Filtered = s.Filter.Apply(res.Values())
	return res, nil
}

// SampleFile scans the log at path.
func (s *Sampler) SampleFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()
	res, err := s.Scan(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
