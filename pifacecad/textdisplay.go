// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// Rows returns the number of display rows.
func (d *Dev) Rows() int {
	return MaxLines
}

// Cols returns the number of visible columns.
func (d *Dev) Cols() int {
	return Width
}

// MinRow returns 0, rows are zero based.
func (d *Dev) MinRow() int {
	return 0
}

// MinCol returns 0, columns are zero based.
func (d *Dev) MinCol() int {
	return 0
}

// MoveTo moves the cursor to (row, col) of the visible area. Unlike
// SetCursor, out of range values are rejected.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row >= d.Rows() || col < d.MinCol() || col >= d.Cols() {
		return fmt.Errorf("pifacecad: MoveTo(%d, %d): %w", row, col, display.ErrInvalidCommand)
	}
	_, err := d.SetCursor(col, row)
	return err
}

// Move is not supported and returns ErrNotImplemented.
func (d *Dev) Move(dir display.CursorDirection) error {
	return fmt.Errorf("pifacecad: move %d: %w", dir, ErrNotImplemented)
}

// Write writes p at the cursor. See WriteText. On error, n is the number of
// bytes of p already sent.
func (d *Dev) Write(p []byte) (int, error) {
	return d.write(string(p))
}

// WriteString writes text at the cursor. See WriteText.
func (d *Dev) WriteString(text string) (int, error) {
	return d.write(text)
}

// Display turns the display on or off. The content is kept.
func (d *Dev) Display(on bool) error {
	return d.SetDisplayControl(DisplayOnFlag, on)
}

// AutoScroll makes the display shift on each write instead of the cursor.
func (d *Dev) AutoScroll(enabled bool) error {
	return d.SetEntryMode(EntryShiftIncrement, enabled)
}

// Cursor sets the cursor modes, applied in order. The HD44780 shows
// CursorBlink and CursorBlock the same way, as a blinking block.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	ctl := d.displayControl
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			ctl &^= CursorOnFlag | BlinkOnFlag
		case display.CursorUnderline:
			ctl |= CursorOnFlag
		case display.CursorBlock, display.CursorBlink:
			ctl |= BlinkOnFlag
		default:
			return fmt.Errorf("pifacecad: unexpected cursor mode %d", mode)
		}
	}
	d.displayControl = ctl
	return d.SendCommand(cmdDisplayControl | uint8(ctl))
}

// Backlight turns the backlight on for any non-zero intensity. There is no
// dimming.
func (d *Dev) Backlight(intensity display.Intensity) error {
	return d.SetBacklight(intensity > 0)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
