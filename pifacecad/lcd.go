// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/pifacecad/mcp23s17"
)

// Expander is the register access needed by the board. It is implemented by
// *mcp23s17.Dev.
type Expander interface {
	ReadRegister(reg mcp23s17.Register) (uint8, error)
	WriteRegister(reg mcp23s17.Register, value uint8) error
	WriteBit(reg mcp23s17.Register, bit uint8, on bool) error
}

// Port B wiring of the LCD. Bits 0 to 3 carry D4 to D7.
const (
	PinEnable    uint8 = 4
	PinRW        uint8 = 5
	PinRS        uint8 = 6
	PinBacklight uint8 = 7

	// LCDPort is the expander port wired to the LCD.
	LCDPort = mcp23s17.GPIOB
	// SwitchPort is the expander port wired to the switches.
	SwitchPort = mcp23s17.GPIOA

	dataMask    = 0x0F
	controlMask = 0xF0
)

// Instructions.
const (
	cmdClearDisplay   = 0x01
	cmdReturnHome     = 0x02
	cmdEntryModeSet   = 0x04
	cmdDisplayControl = 0x08
	cmdFunctionSet    = 0x20
	cmdSetCGRAMAddr   = 0x40
	cmdSetDDRAMAddr   = 0x80
)

// DisplayControl is the display control bitfield.
type DisplayControl uint8

// Display control flags.
const (
	DisplayOnFlag DisplayControl = 0x04
	CursorOnFlag  DisplayControl = 0x02
	BlinkOnFlag   DisplayControl = 0x01
)

// EntryMode is the entry mode bitfield.
type EntryMode uint8

// Entry mode flags. Without EntryLeft text runs right to left; without
// EntryShiftIncrement the display does not scroll on writes.
const (
	EntryLeft           EntryMode = 0x02
	EntryShiftIncrement EntryMode = 0x01
)

// FunctionSet is the function set bitfield.
type FunctionSet uint8

// Function set flags. The zero value selects 4-bit, 1 line, 5x8 dots.
const (
	Function8BitMode FunctionSet = 0x10
	Function2Line    FunctionSet = 0x08
	Function5x10Dots FunctionSet = 0x04
)

// Controller timings.
const (
	DelayPulse  = time.Microsecond
	DelaySettle = 40 * time.Microsecond
	DelayClear  = 2600 * time.Microsecond
	DelaySetup0 = 15 * time.Millisecond
	DelaySetup1 = 5 * time.Millisecond
	DelaySetup2 = time.Millisecond
)

// LCD drives the HD44780 on port B of the expander in 4-bit mode.
//
// It keeps track of the DDRAM address and the flag bitfields, since the R/W
// line is held low and nothing is ever read back from the controller. LCD
// is not safe for concurrent use.
type LCD struct {
	e     Expander
	sleep func(time.Duration)

	cursor         uint8
	entryMode      EntryMode
	displayControl DisplayControl
	functionSet    FunctionSet
}

// NewLCD returns an LCD using e. The controller is not touched until Init is
// called.
func NewLCD(e Expander) *LCD {
	return &LCD{e: e, sleep: time.Sleep}
}

// Init brings the controller from power-on to 4-bit, 2 lines, 5x8 dots with
// the display, cursor and blink on, writing left to right.
//
// The sequence is aborted at the first transport error.
func (l *LCD) Init() error {
	for _, d := range []time.Duration{DelaySetup0, DelaySetup1, DelaySetup2} {
		l.sleep(d)
		// 8-bit mode, sent as the D7..D4 nibble.
		if err := l.e.WriteRegister(LCDPort, 0x03); err != nil {
			return l.wrap("init", err)
		}
		if err := l.PulseEnable(); err != nil {
			return err
		}
	}
	if err := l.e.WriteRegister(LCDPort, 0x02); err != nil {
		return l.wrap("init", err)
	}
	if err := l.PulseEnable(); err != nil {
		return err
	}

	l.functionSet = Function2Line
	if err := l.SendCommand(cmdFunctionSet | uint8(l.functionSet)); err != nil {
		return err
	}
	l.displayControl = 0
	if err := l.SendCommand(cmdDisplayControl | uint8(l.displayControl)); err != nil {
		return err
	}
	if err := l.Clear(); err != nil {
		return err
	}
	l.entryMode = EntryLeft
	if err := l.SendCommand(cmdEntryModeSet | uint8(l.entryMode)); err != nil {
		return err
	}
	l.displayControl = DisplayOnFlag | CursorOnFlag | BlinkOnFlag
	return l.SendCommand(cmdDisplayControl | uint8(l.displayControl))
}

// Clear blanks the display and moves the cursor to address 0.
func (l *LCD) Clear() error {
	if err := l.SendCommand(cmdClearDisplay); err != nil {
		return err
	}
	l.sleep(DelayClear)
	l.cursor = 0
	return nil
}

// Home moves the cursor to address 0 and undoes any display shift.
func (l *LCD) Home() error {
	if err := l.SendCommand(cmdReturnHome); err != nil {
		return err
	}
	l.sleep(DelayClear)
	l.cursor = 0
	return nil
}

// WriteText writes msg at the cursor and returns the new cursor address.
//
// A '\n' moves to the start of the second row. Other bytes are sent as is,
// so msg should only contain characters of the controller font ROM. The
// address is not wrapped while writing.
func (l *LCD) WriteText(msg string) (uint8, error) {
	_, err := l.write(msg)
	return l.cursor, err
}

// write implements WriteText and returns the number of bytes of msg that
// were handled before an error.
func (l *LCD) write(msg string) (int, error) {
	if err := l.SendCommand(cmdSetDDRAMAddr | l.cursor); err != nil {
		return 0, err
	}
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\n' {
			if _, err := l.SetCursor(0, 1); err != nil {
				return i, err
			}
			continue
		}
		if err := l.SendData(msg[i]); err != nil {
			return i, err
		}
		l.cursor++
	}
	return len(msg), nil
}

// SetCursor moves the cursor to (col, row) and returns the DDRAM address
// stored, after the same modulo RAMWidth reduction as SetCursorAddress.
//
// Out of range values are clamped to column 0-39 and row 0-1. Row 1 columns
// 16 and up land past RAMWidth and wrap to the start of row 0.
func (l *LCD) SetCursor(col, row int) (uint8, error) {
	col = clamp(col, 0, RAMWidth/2-1)
	row = clamp(row, 0, MaxLines-1)
	err := l.SetCursorAddress(ColRowToAddress(col, row))
	return l.cursor, err
}

// SetCursorAddress moves the cursor to the DDRAM address addr modulo
// RAMWidth. Negative addresses wrap too.
func (l *LCD) SetCursorAddress(addr int) error {
	l.cursor = uint8(((addr % RAMWidth) + RAMWidth) % RAMWidth)
	return l.SendCommand(cmdSetDDRAMAddr | l.cursor)
}

// CursorAddress returns the tracked DDRAM address.
func (l *LCD) CursorAddress() uint8 {
	return l.cursor
}

// Position returns the column and row of the tracked DDRAM address.
func (l *LCD) Position() (col, row int) {
	return AddressToCol(int(l.cursor)), AddressToRow(int(l.cursor))
}

// DisplayControl returns the current display control flags.
func (l *LCD) DisplayControl() DisplayControl {
	return l.displayControl
}

// EntryMode returns the current entry mode flags.
func (l *LCD) EntryMode() EntryMode {
	return l.entryMode
}

// FunctionSet returns the flags latched by Init.
func (l *LCD) FunctionSet() FunctionSet {
	return l.functionSet
}

// SetDisplayControl sets or clears flag and sends the whole bitfield.
func (l *LCD) SetDisplayControl(flag DisplayControl, on bool) error {
	if on {
		l.displayControl |= flag
	} else {
		l.displayControl &^= flag
	}
	return l.SendCommand(cmdDisplayControl | uint8(l.displayControl))
}

// SetEntryMode sets or clears flag and sends the whole bitfield.
func (l *LCD) SetEntryMode(flag EntryMode, on bool) error {
	if on {
		l.entryMode |= flag
	} else {
		l.entryMode &^= flag
	}
	return l.SendCommand(cmdEntryModeSet | uint8(l.entryMode))
}

// On/off shortcuts for single flags.

func (l *LCD) DisplayOn() error { return l.SetDisplayControl(DisplayOnFlag, true) }
func (l *LCD) DisplayOff() error { return l.SetDisplayControl(DisplayOnFlag, false) }
func (l *LCD) CursorOn() error { return l.SetDisplayControl(CursorOnFlag, true) }
func (l *LCD) CursorOff() error { return l.SetDisplayControl(CursorOnFlag, false) }
func (l *LCD) BlinkOn() error { return l.SetDisplayControl(BlinkOnFlag, true) }
func (l *LCD) BlinkOff() error { return l.SetDisplayControl(BlinkOnFlag, false) }
func (l *LCD) LeftToRight() error { return l.SetEntryMode(EntryLeft, true) }
func (l *LCD) RightToLeft() error { return l.SetEntryMode(EntryLeft, false) }
func (l *LCD) AutoscrollOn() error { return l.SetEntryMode(EntryShiftIncrement, true) }
func (l *LCD) AutoscrollOff() error { return l.SetEntryMode(EntryShiftIncrement, false) }

// BacklightOn turns the backlight on.
func (l *LCD) BacklightOn() error { return l.SetBacklight(true) }

// BacklightOff turns the backlight off.
func (l *LCD) BacklightOff() error { return l.SetBacklight(false) }

// MoveLeft is not supported.
func (l *LCD) MoveLeft() error {
	return fmt.Errorf("pifacecad: move left: %w", ErrNotImplemented)
}

// MoveRight is not supported.
func (l *LCD) MoveRight() error {
	return fmt.Errorf("pifacecad: move right: %w", ErrNotImplemented)
}

// LeftJustify is not supported.
func (l *LCD) LeftJustify() error {
	return fmt.Errorf("pifacecad: left justify: %w", ErrNotImplemented)
}

// RightJustify is not supported.
func (l *LCD) RightJustify() error {
	return fmt.Errorf("pifacecad: right justify: %w", ErrNotImplemented)
}

// StoreCustomBitmap stores a 5x8 glyph in CGRAM slot (0-7, masked). Each
// byte is a pixel row, bit 4 being the leftmost pixel.
//
// The DDRAM address is restored by the next write.
func (l *LCD) StoreCustomBitmap(slot uint8, bitmap [8]byte) error {
	slot &= 7
	if err := l.SendCommand(cmdSetCGRAMAddr | slot<<3); err != nil {
		return err
	}
	for _, row := range bitmap {
		if err := l.SendData(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteCustomBitmap writes the glyph stored in slot at the cursor.
func (l *LCD) WriteCustomBitmap(slot uint8) error {
	if err := l.SendCommand(cmdSetDDRAMAddr | l.cursor); err != nil {
		return err
	}
	if err := l.SendData(slot); err != nil {
		return err
	}
	l.cursor++
	return nil
}

// SendCommand sends an instruction and waits for it to settle.
func (l *LCD) SendCommand(cmd uint8) error {
	if err := l.SetRS(false); err != nil {
		return err
	}
	if err := l.SendByte(cmd); err != nil {
		return err
	}
	l.sleep(DelaySettle)
	return nil
}

// SendData sends a character code, or a CGRAM row after a CGRAM address
// instruction, and waits for it to settle.
func (l *LCD) SendData(b uint8) error {
	if err := l.SetRS(true); err != nil {
		return err
	}
	if err := l.SendByte(b); err != nil {
		return err
	}
	l.sleep(DelaySettle)
	return nil
}

// SendByte sends b as two nibbles, high first, keeping the control lines and
// the backlight as they are.
func (l *LCD) SendByte(b uint8) error {
	current, err := l.e.ReadRegister(LCDPort)
	if err != nil {
		return l.wrap("send byte", err)
	}
	current &= controlMask
	for _, n := range [2]uint8{b >> 4, b & dataMask} {
		if err := l.e.WriteRegister(LCDPort, current|n); err != nil {
			return l.wrap("send byte", err)
		}
		if err := l.PulseEnable(); err != nil {
			return err
		}
	}
	return nil
}

// PulseEnable latches the nibble present on D7..D4.
func (l *LCD) PulseEnable() error {
	if err := l.SetEnable(true); err != nil {
		return err
	}
	l.sleep(DelayPulse)
	if err := l.SetEnable(false); err != nil {
		return err
	}
	l.sleep(DelayPulse)
	return nil
}

// SetRS sets the register select line, true for data.
func (l *LCD) SetRS(on bool) error {
	return l.writePin("RS", PinRS, on)
}

// SetRW sets the read/write line. The driver never reads, the line is meant
// to stay low.
func (l *LCD) SetRW(on bool) error {
	return l.writePin("RW", PinRW, on)
}

// SetEnable sets the enable line.
func (l *LCD) SetEnable(on bool) error {
	return l.writePin("E", PinEnable, on)
}

// SetBacklight turns the backlight LED on or off.
func (l *LCD) SetBacklight(on bool) error {
	return l.writePin("backlight", PinBacklight, on)
}

func (l *LCD) writePin(name string, bit uint8, on bool) error {
	if err := l.e.WriteBit(LCDPort, bit, on); err != nil {
		return fmt.Errorf("pifacecad: set %s: %w", name, err)
	}
	return nil
}

func (l *LCD) wrap(op string, err error) error {
	return fmt.Errorf("pifacecad: %s: %w", op, err)
}
