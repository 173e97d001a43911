// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plot

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	lineColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	breakoutColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Gonum renders with gonum.org/v1/plot.
type Gonum struct{}

func (Gonum) Render(w io.Writer, f *Figure, format Format) error {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Add(plotter.NewGrid())

	if len(f.Values) > 0 {
		xys := make(plotter.XYs, len(f.Values))
		for i, v := range f.Values {
			xys[i].X = float64(i)
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = lineColor
		points, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(2)
		points.GlyphStyle.Color = lineColor
		p.Add(line, points)
	}

	if f.hasBreakout() {
		lo, hi := f.yRange()
		x := float64(f.Breakout)
		mark, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
		if err != nil {
			return err
		}
		mark.LineStyle.Color = breakoutColor
		mark.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(mark)
	}

	width, height := f.size()
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, string(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
