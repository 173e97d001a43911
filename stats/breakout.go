// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Breakout finds the index at which the level of values shifts, for
// example where a load generator started hitting an idle server. It
// implements EDM-X (E-Divisive with Medians, exact) from "Leveraging
// Cloud Data to Mitigate User Experience from 'Breaking Bad'" (James,
// Kejariwal, Matteson) and returns the first index of the new level.
//
// window is the minimum number of readings on either side of the
// breakout. Breakout returns -1 if window < 2, if there are fewer than
// 2*window values, or if the series is flat. values is not modified.
func Breakout(values []float64, window int) int {
	if window < 2 || len(values) < 2*window {
		return -1
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return -1
	}
	// Scale to [0, 1] so the statistic doesn't depend on units.
	z := append([]float64(nil), values...)
	floats.AddConst(-lo, z)
	floats.Scale(1/(hi-lo), z)

	var left, right runningMedian
	best, at := math.Inf(-1), -1
	for i := 0; i < window-1; i++ {
		left.add(z[i])
	}
	for i := window; i < len(z)-window+1; i++ {
		left.add(z[i-1])
		ml := left.median()
		right.reset()
		for j := i; j < i+window-1; j++ {
			right.add(z[j])
		}
		for j := i + window; j <= len(z); j++ {
			right.add(z[j-1])
			d := ml - right.median()
			if s := float64(i*(j-i)) / float64(j) * d * d; s > best {
				best, at = s, i
			}
		}
	}
	return at
}

// runningMedian tracks the median of a growing set of values with a pair
// of heaps whose sizes differ by at most one.
type runningMedian struct {
	low  maxHeap // values below the median
	high minHeap // values at or above the median
}

func (m *runningMedian) add(x float64) {
	if m.high.Len() == 0 || x < m.high[0] {
		heap.Push(&m.low, x)
	} else {
		heap.Push(&m.high, x)
	}
	switch {
	case m.high.Len() > m.low.Len()+1:
		heap.Push(&m.low, heap.Pop(&m.high))
	case m.low.Len() > m.high.Len()+1:
		heap.Push(&m.high, heap.Pop(&m.low))
	}
}

func (m *runningMedian) median() float64 {
	switch {
	case m.high.Len() > m.low.Len():
		return m.high[0]
	case m.low.Len() > m.high.Len():
		return m.low[0]
	}
	return (m.low[0] + m.high[0]) / 2
}

func (m *runningMedian) reset() {
	m.low, m.high = m.low[:0], m.high[:0]
}

type maxHeap []float64

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(float64)) }
func (h *maxHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

type minHeap []float64

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(float64)) }
func (h *minHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
