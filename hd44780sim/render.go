// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780sim

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// RenderOpts controls how Render draws the glass.
type RenderOpts struct {
	// Cell is the size of a character cell in pixels. Defaults to 12x20.
	Cell image.Point
	// Margin around the text area in pixels. Defaults to 8.
	Margin int
	// Face draws the ROM characters. Defaults to Go Regular sized to the
	// cell.
	Face font.Face
	// Ink, Lit and Unlit are the pixel, backlight on and backlight off
	// colors.
	Ink   color.Color
	Lit   color.Color
	Unlit color.Color

	_ struct{}
}

var (
	inkColor   = color.NRGBA{R: 0x20, G: 0x30, B: 0x10, A: 0xFF}
	litColor   = color.NRGBA{R: 0x9C, G: 0xCC, B: 0x2C, A: 0xFF}
	unlitColor = color.NRGBA{R: 0x50, G: 0x60, B: 0x30, A: 0xFF}
)

// DefaultRenderOpts is the classic yellow-green module.
var DefaultRenderOpts = RenderOpts{
	Cell:   image.Point{X: 12, Y: 20},
	Margin: 8,
	Ink:    inkColor,
	Lit:    litColor,
	Unlit:  unlitColor,
}

var (
	regularOnce sync.Once
	regular     *truetype.Font
)

// defaultFace returns Go Regular at size points, or basicfont when the
// embedded font fails to parse.
func defaultFace(size float64) font.Face {
	regularOnce.Do(func() {
		regular, _ = truetype.Parse(goregular.TTF)
	})
	if regular == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(regular, &truetype.Options{Size: size})
}

// Render draws the visible content of s. Glyphs of the user defined
// characters are drawn from CGRAM pixel by pixel.
func Render(s State, opts *RenderOpts) image.Image {
	if opts == nil {
		opts = &DefaultRenderOpts
	}
	o := *opts
	if o.Cell.X <= 0 || o.Cell.Y <= 0 {
		o.Cell = DefaultRenderOpts.Cell
	}
	if o.Margin < 0 {
		o.Margin = DefaultRenderOpts.Margin
	}
	if o.Ink == nil {
		o.Ink = DefaultRenderOpts.Ink
	}
	if o.Lit == nil {
		o.Lit = DefaultRenderOpts.Lit
	}
	if o.Unlit == nil {
		o.Unlit = DefaultRenderOpts.Unlit
	}
	if o.Face == nil {
		o.Face = defaultFace(float64(o.Cell.Y) * 0.7)
	}

	cw, ch := float64(o.Cell.X), float64(o.Cell.Y)
	m := float64(o.Margin)
	dc := gg.NewContext(2*o.Margin+s.Cols*o.Cell.X, 2*o.Margin+s.Rows()*o.Cell.Y)
	if s.Backlight {
		dc.SetColor(o.Lit)
	} else {
		dc.SetColor(o.Unlit)
	}
	dc.Clear()
	if !s.DisplayOn {
		return dc.Image()
	}

	dc.SetColor(o.Ink)
	dc.SetFontFace(o.Face)
	for row := 0; row < s.Rows(); row++ {
		for col, b := range s.Visible(row) {
			x, y := m+float64(col)*cw, m+float64(row)*ch
			if b < 0x10 {
				drawGlyph(dc, s.Glyph(b), x, y, cw, ch)
				continue
			}
			dc.DrawStringAnchored(string(Rune(b)), x+cw/2, y+ch/2, 0.5, 0.5)
		}
	}
	if col, row, ok := s.Cursor(); ok {
		x, y := m+float64(col)*cw, m+float64(row)*ch
		if s.CursorOn {
			dc.DrawRectangle(x, y+ch-ch/8, cw, ch/8)
			dc.Fill()
		}
		if s.BlinkOn {
			// A still image shows the blink in its on phase.
			dc.DrawRectangle(x, y, cw, ch)
			dc.Fill()
		}
	}
	return dc.Image()
}

// drawGlyph draws a 5x8 CGRAM pattern scaled to the cell.
func drawGlyph(dc *gg.Context, g [8]byte, x, y, cw, ch float64) {
	pw, ph := cw/6, ch/9
	for gy, bits := range g {
		for gx := 0; gx < 5; gx++ {
			if bits&(0x10>>gx) != 0 {
				dc.DrawRectangle(x+float64(gx)*pw, y+float64(gy)*ph, pw, ph)
			}
		}
	}
	dc.Fill()
}

// EncodePNG renders the controller content and writes it to w as a PNG.
func (c *Controller) EncodePNG(w io.Writer, opts *RenderOpts) error {
	img := Render(c.State(), opts)
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("hd44780sim: %w", err)
	}
	return nil
}
