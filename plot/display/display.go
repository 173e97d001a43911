// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package display shows a rendered chart in a desktop window.
package display

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
)

// maxWidth caps the initial window width in device-independent pixels.
const maxWidth = 1600

// Show opens a window titled title holding img and blocks until the window
// is closed. It must be called from the main goroutine.
func Show(title string, img image.Image) {
	a := app.New()
	w := a.NewWindow(title)

	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	w.SetContent(c)
	w.Resize(windowSize(img.Bounds()))
	w.ShowAndRun()
}

// ShowPNG decodes a PNG and shows it.
func ShowPNG(title string, b []byte) error {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("decoding chart: %w", err)
	}
	Show(title, img)
	return nil
}

// windowSize fits r into the maximum width, keeping its aspect ratio.
func windowSize(r image.Rectangle) fyne.Size {
	w, h := float32(r.Dx()), float32(r.Dy())
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	return fyne.NewSize(w, h)
}
