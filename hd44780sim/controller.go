// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780sim

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// LineWidth is the number of DDRAM cells per line in 2-line mode.
	LineWidth = 40
	// DDRAMSize is the display data RAM size in bytes.
	DDRAMSize = 2 * LineWidth
	// CGRAMSize is the character generator RAM size in bytes, eight 5x8
	// glyphs.
	CGRAMSize = 64

	line2 = 0x40
)

// Instruction bits.
const (
	cmdClear          = 0x01
	cmdHome           = 0x02
	cmdEntryMode      = 0x04
	cmdDisplayControl = 0x08
	cmdShift          = 0x10
	cmdFunctionSet    = 0x20
	cmdSetCGRAM       = 0x40
	cmdSetDDRAM       = 0x80
)

// Opts configures a Controller.
type Opts struct {
	// Cols is the number of visible columns of the glass. Defaults to 16.
	Cols int
	// Logger receives the decoded instructions. Defaults to
	// logrus.StandardLogger().
	Logger logrus.FieldLogger

	_ struct{}
}

// DefaultOpts is the 16x2 module used on most boards.
var DefaultOpts = Opts{Cols: 16}

// State is a copy of the controller registers and memories.
type State struct {
	DDRAM [DDRAMSize]byte
	CGRAM [CGRAMSize]byte
	// AddressCounter is the DDRAM or CGRAM address, depending on CGRAMMode.
	AddressCounter uint8
	CGRAMMode      bool

	EightBit bool
	TwoLine  bool
	Font5x10 bool

	DisplayOn bool
	CursorOn  bool
	BlinkOn   bool

	// Increment is the I/D bit of entry mode, ShiftOnWrite the S bit.
	Increment    bool
	ShiftOnWrite bool
	// Shift is the display shift in cells, positive to the left.
	Shift int

	Backlight bool
	Cols      int
}

// Controller is a behavioral HD44780 model. It is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	log     logrus.FieldLogger
	s       State
	pending bool  // a high nibble was latched in 4-bit mode
	high    uint8 // the latched high nibble
	count   int
}

// New returns a controller in its power-on reset state: 8-bit interface,
// one line, display off, increment mode.
func New(opts *Opts) *Controller {
	if opts == nil {
		opts = &DefaultOpts
	}
	c := &Controller{log: opts.Logger}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	cols := opts.Cols
	if cols <= 0 || cols > LineWidth {
		cols = DefaultOpts.Cols
	}
	c.s.Cols = cols
	c.reset()
	return c
}

func (c *Controller) String() string {
	return fmt.Sprintf("hd44780sim(%dx2)", c.s.Cols)
}

func (c *Controller) reset() {
	for i := range c.s.DDRAM {
		c.s.DDRAM[i] = ' '
	}
	c.s.CGRAM = [CGRAMSize]byte{}
	c.s.AddressCounter = 0
	c.s.CGRAMMode = false
	c.s.EightBit = true
	c.s.TwoLine = false
	c.s.Font5x10 = false
	c.s.DisplayOn = false
	c.s.CursorOn = false
	c.s.BlinkOn = false
	c.s.Increment = true
	c.s.ShiftOnWrite = false
	c.s.Shift = 0
	c.pending = false
}

// Reset puts the controller back in its power-on state. The backlight is not
// part of the controller and is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Latch is called on the falling edge of E with the level of RS, R/W and
// D7..D4 (the low 4 bits of nibble).
//
// In 8-bit mode D3..D0 are assumed tied low, so each nibble is a complete
// instruction. Once a function set selects the 4-bit interface, nibbles are
// paired high first.
func (c *Controller) Latch(rs, rw bool, nibble uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nibble &= 0x0F
	if c.s.EightBit {
		c.execute(rs, rw, nibble<<4)
		return
	}
	if !c.pending {
		c.high = nibble
		c.pending = true
		return
	}
	c.pending = false
	c.execute(rs, rw, c.high<<4|nibble)
}

// Execute runs a complete 8-bit transfer, bypassing the interface
// width. RS selects data (true) or instruction (false).
func (c *Controller) Execute(rs bool, b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execute(rs, false, b)
}

// SetBacklight sets the backlight LED state.
func (c *Controller) SetBacklight(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Backlight != on {
		c.log.WithField("on", on).Debug("hd44780sim: backlight")
	}
	c.s.Backlight = on
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// Lines returns the visible text of both lines.
func (c *Controller) Lines() []string {
	s := c.State()
	return s.Lines()
}

// Instructions returns the number of instructions and data writes executed
// since creation.
func (c *Controller) Instructions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Controller) execute(rs, rw bool, b byte) {
	c.count++
	if rw {
		// Busy flag and RAM reads put data on the bus, which is not modeled.
		c.log.WithField("rs", rs).Trace("hd44780sim: read ignored")
		return
	}
	if rs {
		c.writeData(b)
		return
	}
	l := c.log.WithField("instruction", fmt.Sprintf("%#02x", b))
	switch {
	case b&cmdSetDDRAM != 0:
		c.s.AddressCounter = normalize(b &^ cmdSetDDRAM)
		c.s.CGRAMMode = false
		l.WithField("address", c.s.AddressCounter).Debug("hd44780sim: set DDRAM address")
	case b&cmdSetCGRAM != 0:
		c.s.AddressCounter = b & (CGRAMSize - 1)
		c.s.CGRAMMode = true
		l.WithField("address", c.s.AddressCounter).Debug("hd44780sim: set CGRAM address")
	case b&cmdFunctionSet != 0:
		c.s.EightBit = b&0x10 != 0
		c.s.TwoLine = b&0x08 != 0
		c.s.Font5x10 = b&0x04 != 0
		c.pending = false
		l.WithFields(logrus.Fields{
			"eightBit": c.s.EightBit,
			"twoLine":  c.s.TwoLine,
		}).Debug("hd44780sim: function set")
	case b&cmdShift != 0:
		right := b&0x04 != 0
		if b&0x08 != 0 {
			if right {
				c.s.Shift--
			} else {
				c.s.Shift++
			}
			l.WithField("shift", c.s.Shift).Debug("hd44780sim: display shift")
		} else {
			c.s.AddressCounter = c.step(c.s.AddressCounter, right)
			l.WithField("address", c.s.AddressCounter).Debug("hd44780sim: cursor shift")
		}
	case b&cmdDisplayControl != 0:
		c.s.DisplayOn = b&0x04 != 0
		c.s.CursorOn = b&0x02 != 0
		c.s.BlinkOn = b&0x01 != 0
		l.WithFields(logrus.Fields{
			"display": c.s.DisplayOn,
			"cursor":  c.s.CursorOn,
			"blink":   c.s.BlinkOn,
		}).Debug("hd44780sim: display control")
	case b&cmdEntryMode != 0:
		c.s.Increment = b&0x02 != 0
		c.s.ShiftOnWrite = b&0x01 != 0
		l.WithFields(logrus.Fields{
			"increment": c.s.Increment,
			"shift":     c.s.ShiftOnWrite,
		}).Debug("hd44780sim: entry mode")
	case b&cmdHome != 0:
		c.s.AddressCounter = 0
		c.s.CGRAMMode = false
		c.s.Shift = 0
		l.Debug("hd44780sim: return home")
	case b&cmdClear != 0:
		for i := range c.s.DDRAM {
			c.s.DDRAM[i] = ' '
		}
		c.s.AddressCounter = 0
		c.s.CGRAMMode = false
		c.s.Shift = 0
		c.s.Increment = true
		l.Debug("hd44780sim: clear")
	default:
		l.Trace("hd44780sim: nop")
	}
}

func (c *Controller) writeData(b byte) {
	if c.s.CGRAMMode {
		c.s.CGRAM[c.s.AddressCounter&(CGRAMSize-1)] = b
		if c.s.Increment {
			c.s.AddressCounter = (c.s.AddressCounter + 1) & (CGRAMSize - 1)
		} else {
			c.s.AddressCounter = (c.s.AddressCounter - 1) & (CGRAMSize - 1)
		}
		return
	}
	c.s.DDRAM[index(c.s.AddressCounter)] = b
	c.log.WithFields(logrus.Fields{
		"address": c.s.AddressCounter,
		"data":    fmt.Sprintf("%q", rune(b)),
	}).Trace("hd44780sim: write data")
	c.s.AddressCounter = c.step(c.s.AddressCounter, c.s.Increment)
	if c.s.ShiftOnWrite {
		if c.s.Increment {
			c.s.Shift++
		} else {
			c.s.Shift--
		}
	}
}

// step moves a DDRAM address by one cell, wrapping across the two lines.
func (c *Controller) step(a uint8, forward bool) uint8 {
	if forward {
		switch a {
		case LineWidth - 1:
			return line2
		case line2 + LineWidth - 1:
			return 0
		}
		return a + 1
	}
	switch a {
	case 0:
		return line2 + LineWidth - 1
	case line2:
		return LineWidth - 1
	}
	return a - 1
}

// normalize maps a 7-bit DDRAM address onto the two 40 cell lines. The gaps
// 0x28..0x3F and 0x68..0x7F continue on the following line, the way the
// address counter wraps.
func normalize(a uint8) uint8 {
	a &= 0x7F
	switch {
	case a < LineWidth:
		return a
	case a < line2:
		return a - LineWidth + line2
	case a < line2+LineWidth:
		return a
	default:
		return a - line2 - LineWidth
	}
}

// index returns the DDRAM array index of a normalized address.
func index(a uint8) int {
	if a >= line2 {
		return int(a-line2) + LineWidth
	}
	return int(a)
}
