// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780sim

// CustomRune is shown in place of the eight user defined characters.
const CustomRune = '▒'

// romA00 lists the characters of the A00 (Japanese) font ROM that differ
// from ASCII or that have an obvious Unicode equivalent.
var romA00 = map[byte]rune{
	0x5C: '¥',
	0x7E: '→',
	0x7F: '←',
	0xDF: '°',
	0xE4: 'µ',
	0xF4: 'Ω',
	0xF7: 'π',
	0xFF: '█',
}

// Rune returns the Unicode character closest to the font ROM character b.
func Rune(b byte) rune {
	if r, ok := romA00[b]; ok {
		return r
	}
	switch {
	case b < 0x10:
		return CustomRune
	case b >= 0x20 && b < 0x80:
		return rune(b)
	}
	return '?'
}

// Rows returns the number of display lines, 1 or 2.
func (s *State) Rows() int {
	if s.TwoLine {
		return 2
	}
	return 1
}

// Visible returns the DDRAM bytes of row currently shown through the window,
// taking the display shift into account.
func (s *State) Visible(row int) []byte {
	if row < 0 || row >= s.Rows() {
		return nil
	}
	out := make([]byte, s.Cols)
	for col := range out {
		cell := ((col+s.Shift)%LineWidth + LineWidth) % LineWidth
		out[col] = s.DDRAM[row*LineWidth+cell]
	}
	return out
}

// Lines returns the visible text, one string per line.
func (s *State) Lines() []string {
	lines := make([]string, s.Rows())
	for row := range lines {
		r := make([]rune, 0, s.Cols)
		for _, b := range s.Visible(row) {
			r = append(r, Rune(b))
		}
		lines[row] = string(r)
	}
	return lines
}

// Line returns the 40 DDRAM bytes of row 0 or 1.
func (s *State) Line(row int) []byte {
	row &= 1
	return append([]byte(nil), s.DDRAM[row*LineWidth:(row+1)*LineWidth]...)
}

// Glyph returns the eight rows of the user defined character slot (0-7). Only
// the five low bits of each row are displayed.
func (s *State) Glyph(slot uint8) [8]byte {
	var g [8]byte
	copy(g[:], s.CGRAM[int(slot&7)*8:])
	return g
}

// Cursor returns the window position of the address counter. ok is false
// when the counter points to CGRAM or outside the visible window.
func (s *State) Cursor() (col, row int, ok bool) {
	if s.CGRAMMode {
		return 0, 0, false
	}
	i := index(s.AddressCounter)
	row = i / LineWidth
	if row >= s.Rows() {
		return 0, 0, false
	}
	col = ((i%LineWidth-s.Shift)%LineWidth + LineWidth) % LineWidth
	if col >= s.Cols {
		return 0, 0, false
	}
	return col, row, true
}
