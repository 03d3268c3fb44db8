// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad

const (
	// Width is the number of visible columns.
	Width = 16
	// MaxLines is the number of display rows.
	MaxLines = 2
	// RAMWidth is the size of the display data RAM. Each row holds
	// RAMWidth/2 cells, of which Width are visible.
	RAMWidth = 80
)

// rowOffsets is the DDRAM address of column 0 of each row.
var rowOffsets = [MaxLines]int{0x00, 0x40}

// ColRowToAddress returns the DDRAM address of (col, row). row is clamped to
// the available rows; col is not checked.
func ColRowToAddress(col, row int) int {
	return col + rowOffsets[clamp(row, 0, MaxLines-1)]
}

// AddressToCol returns the column of the DDRAM address addr.
func AddressToCol(addr int) int {
	return addr % rowOffsets[1]
}

// AddressToRow returns the row of the DDRAM address addr.
//
// Address 0x40 is reported on row 0.
func AddressToRow(addr int) int {
	if addr > rowOffsets[1] {
		return 1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
