// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780sim

import (
	"bytes"
	"fmt"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options available for the terminal preview.
type TerminalOpts struct {
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Terminal prints the glass content to a console, framed by blocks of the
// backlight color. Each refresh redraws over the previous one.
type Terminal struct {
	w       io.Writer
	palette ansi256.Palette
	drawn   int
	buf     bytes.Buffer
}

// NewTerminal returns a Terminal writing to opts.W.
func NewTerminal(opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Terminal{w: w, palette: *p}
}

func (t *Terminal) String() string {
	return "hd44780sim.Terminal"
}

// Refresh draws s.
func (t *Terminal) Refresh(s State) error {
	frame := unlitColor
	if s.Backlight {
		frame = litColor
	}
	block := t.palette.Block(frame)

	t.buf.Reset()
	if t.drawn > 0 {
		fmt.Fprintf(&t.buf, "\033[%dA", t.drawn)
	}
	lines := s.Lines()
	if !s.DisplayOn {
		for i := range lines {
			lines[i] = string(bytes.Repeat([]byte{' '}, s.Cols))
		}
	}
	for _, l := range lines {
		_, _ = t.buf.WriteString("\r\033[0m")
		_, _ = t.buf.WriteString(block)
		_, _ = t.buf.WriteString(l)
		_, _ = t.buf.WriteString(block)
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	t.drawn = len(lines)
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m"))
	t.drawn = 0
	return err
}
