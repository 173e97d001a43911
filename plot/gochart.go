// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// GoChart renders with github.com/wcharczuk/go-chart.
type GoChart struct{}

func (GoChart) Render(w io.Writer, f *Figure, format Format) error {
	var provider chart.RendererProvider
	switch format {
	case PNG:
		provider = chart.PNG
	case SVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("go-chart cannot render %q", format)
	}

	xs := make([]float64, len(f.Values))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := f.Values
	lo, hi := f.yRange()
	if len(ys) < 2 {
		// go-chart needs two points to size its axes.
		y := lo
		if len(ys) == 1 {
			y = ys[0]
		}
		xs, ys = []float64{0, 1}, []float64{y, y}
	}

	color := drawing.Color{R: lineColor.R, G: lineColor.G, B: lineColor.B, A: lineColor.A}
	series := []chart.Series{
		chart.ContinuousSeries{
			Name: f.Title,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 1,
				DotColor:    color,
				DotWidth:    2,
			},
			XValues: xs,
			YValues: ys,
		},
	}
	if f.hasBreakout() {
		x := float64(f.Breakout)
		red := drawing.Color{R: breakoutColor.R, G: breakoutColor.G, B: breakoutColor.B, A: breakoutColor.A}
		series = append(series, chart.ContinuousSeries{
			Name: "breakout",
			Style: chart.Style{
				StrokeColor:     red,
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
			XValues: []float64{x, x},
			YValues: []float64{lo, hi},
		})
	}

	width, height := f.size()
	c := chart.Chart{
		Title:  f.Title,
		Width:  int(width * dpi),
		Height: int(height * dpi),
		DPI:    dpi,
		XAxis: chart.XAxis{
			Name:  f.XLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: max(xs[len(xs)-1], 1)},
		},
		YAxis: chart.YAxis{
			Name:  f.YLabel,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	return c.Render(provider, w)
}
