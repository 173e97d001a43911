// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultLabel prefixes the CPU load readings in a server log.
const DefaultLabel = "CPU load:"

// Kind classifies a single log line.
type Kind int

const (
	// NoMatch lines carry no reading.
	NoMatch Kind = iota
	// Value lines carry a well-formed reading.
	Value
	// Malformed lines carry the label but no number after it.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case Value:
		return "value"
	case Malformed:
		return "malformed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Reading is the result of parsing one line. Value is only meaningful for
// Kind Value; Text holds what followed the label for Value and Malformed.
type Reading struct {
	Kind  Kind
	Value float64
	Text  string
}

// Grammar recognizes lines of the form
//
//	<anything> <Label> <float>
//
// where the label is the last occurrence in the line and the remainder,
// trimmed of surrounding space, is a finite decimal number.
type Grammar struct {
	Label string
}

func (g Grammar) label() string {
	if g.Label == "" {
		return DefaultLabel
	}
	return g.Label
}

func (g Grammar) Parse(line string) Reading {
	label := g.label()
	i := strings.LastIndex(line, label)
	if i < 0 {
		return Reading{Kind: NoMatch}
	}
	text := strings.TrimSpace(line[i+len(label):])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{Kind: Malformed, Text: text}
	}
	return Reading{Kind: Value, Value: v, Text: text}
}
