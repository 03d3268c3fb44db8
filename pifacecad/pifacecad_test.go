// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/GermanBionicSystems/pifacecad/hd44780sim"
	"github.com/GermanBionicSystems/pifacecad/mcp23s17"
	"github.com/GermanBionicSystems/pifacecad/pifacecad"
	"github.com/GermanBionicSystems/pifacecad/pifacecad/pifacecadtest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
)

func newBoard(hwAddr uint8) *pifacecadtest.Board {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return pifacecadtest.NewBoard(&pifacecadtest.Opts{HWAddr: hwAddr, Logger: l})
}

func newDev(t *testing.T, b *pifacecadtest.Board, hwAddr uint8) *pifacecad.Dev {
	d, err := pifacecad.NewSPI(b, &pifacecad.Opts{HWAddr: hwAddr, Interrupt: b.Interrupt})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

var blank = []string{"                ", "                "}

func TestNewSPI(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	assert.Equal(t, "PiFaceCAD{MCP23S17_0}", d.String())
	assert.Equal(t, blank, b.Lines())

	s := b.LCD.State()
	assert.False(t, s.EightBit)
	assert.True(t, s.TwoLine)
	assert.True(t, s.DisplayOn)
	assert.True(t, s.CursorOn)
	assert.True(t, s.BlinkOn)
	assert.True(t, s.Increment)

	e := b.Expander
	assert.Equal(t, uint8(mcp23s17.HAENOn|mcp23s17.SeqOpOff), e.Register(mcp23s17.IOCON))
	assert.Equal(t, uint8(0xFF), e.Register(mcp23s17.IODIRA))
	assert.Equal(t, uint8(0xFF), e.Register(mcp23s17.GPPUA))
	assert.Equal(t, uint8(0x00), e.Register(mcp23s17.IODIRB))
	assert.Equal(t, uint8(0xFF), e.Register(mcp23s17.GPINTENA))
}

func TestDev_WriteText(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	addr, err := d.WriteText("Hello\nWorld")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x45), addr)
	assert.Equal(t, []string{"Hello           ", "World           "}, b.Lines())

	_, err = d.SetCursor(11, 0)
	require.NoError(t, err)
	_, err = d.WriteText("there")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello      there", "World           "}, b.Lines())
	// The cursor sits right of the window.
	s := b.LCD.State()
	_, _, ok := s.Cursor()
	assert.False(t, ok)

	require.NoError(t, d.Clear())
	assert.Equal(t, blank, b.Lines())
	assert.Equal(t, uint8(0), d.CursorAddress())
}

func TestDev_backlight(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	assert.False(t, b.Backlight())
	require.NoError(t, d.BacklightOn())
	assert.True(t, b.Backlight())
	// Text goes through without touching the backlight.
	_, err := d.WriteText("lit")
	require.NoError(t, err)
	assert.True(t, b.Backlight())
	require.NoError(t, d.Backlight(0))
	assert.False(t, b.Backlight())
	require.NoError(t, d.Backlight(255))
	assert.True(t, b.Backlight())
}

func TestDev_cursor(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	require.NoError(t, d.Cursor(display.CursorOff, display.CursorUnderline))
	s := b.LCD.State()
	assert.True(t, s.CursorOn)
	assert.False(t, s.BlinkOn)

	require.NoError(t, d.Cursor(display.CursorOff))
	s = b.LCD.State()
	assert.False(t, s.CursorOn)
	assert.False(t, s.BlinkOn)
	assert.True(t, s.DisplayOn)

	assert.Error(t, d.Cursor(display.CursorBlink+1))
	assert.ErrorIs(t, d.Move(display.Forward), display.ErrNotImplemented)
	assert.ErrorIs(t, d.MoveTo(2, 0), display.ErrInvalidCommand)
	assert.ErrorIs(t, d.MoveTo(0, 16), display.ErrInvalidCommand)
}

func TestDev_customBitmap(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	heart := [8]byte{0x00, 0x0A, 0x1F, 0x1F, 0x0E, 0x04, 0x00, 0x00}
	require.NoError(t, d.StoreCustomBitmap(3, heart))
	require.NoError(t, d.SetCursorAddress(0x42))
	require.NoError(t, d.WriteCustomBitmap(3))
	s := b.LCD.State()
	assert.Equal(t, heart, s.Glyph(3))
	assert.Equal(t, "  "+string(hd44780sim.CustomRune)+"             ", b.Lines()[1])
}

func TestDev_Halt(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	require.NoError(t, d.BacklightOn())
	_, err := d.WriteText("bye")
	require.NoError(t, err)
	require.NoError(t, d.Halt())
	assert.Equal(t, blank, b.Lines())
	assert.False(t, b.Backlight())
	assert.False(t, b.LCD.State().DisplayOn)
}

func TestTextDisplay(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	for _, err := range displaytest.TestTextDisplay(d, false) {
		if !errors.Is(err, display.ErrNotImplemented) {
			t.Error(err)
		}
	}
}

func TestDev_switches(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)
	v, err := d.ReadSwitches()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), v)

	b.Press(3)
	v, err = d.ReadSwitches()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xF7), v)
	s, err := d.ReadSwitch(3)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), s)
	s, err = d.ReadSwitch(3 + 8)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), s)
	s, err = d.ReadSwitch(4)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), s)
	assert.Equal(t, gpio.Low, d.Switch(3).Read())
	assert.Equal(t, gpio.High, d.Switch(4).Read())
}

func TestDev_WaitForSwitch(t *testing.T) {
	b := newBoard(0)
	d := newDev(t, b, 0)

	b.Press(2)
	ev, err := d.WaitForSwitch(time.Second)
	require.NoError(t, err)
	assert.Equal(t, pifacecad.SwitchEvent{Switch: 2, Pressed: true}, ev)
	assert.Equal(t, "switch 2 pressed", ev.String())

	b.Release(2)
	ev, err = d.WaitForSwitch(-1)
	require.NoError(t, err)
	assert.Equal(t, pifacecad.SwitchEvent{Switch: 2, Pressed: false}, ev)
	assert.Equal(t, "switch 2 released", ev.String())

	_, err = d.WaitForSwitch(10 * time.Millisecond)
	assert.ErrorIs(t, err, pifacecad.ErrTimeout)

	// An edge with no flag raised is skipped.
	b.Interrupt.EdgesChan <- gpio.Low
	_, err = d.WaitForSwitch(20 * time.Millisecond)
	assert.ErrorIs(t, err, pifacecad.ErrTimeout)
	assert.Empty(t, b.Interrupt.EdgesChan)

	b.Press(6)
	ev, err = d.WaitForSwitch(time.Second)
	require.NoError(t, err)
	assert.Equal(t, pifacecad.SwitchEvent{Switch: 6, Pressed: true}, ev)
}

func TestDev_WaitForSwitch_noInterrupt(t *testing.T) {
	b := newBoard(0)
	d, err := pifacecad.NewSPI(b, nil)
	require.NoError(t, err)
	defer d.Close()
	_, err = d.WaitForSwitch(time.Millisecond)
	assert.ErrorIs(t, err, pifacecad.ErrNoInterrupt)
}

func TestDev_Close(t *testing.T) {
	b := newBoard(0)
	d, err := pifacecad.NewSPI(b, &pifacecad.Opts{Interrupt: b.Interrupt})
	require.NoError(t, err)
	_, err = d.WriteText("kept")
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Equal(t, uint8(0), b.Expander.Register(mcp23s17.GPINTENA))
	assert.Equal(t, "kept            ", b.Lines()[0])
}

func TestNewSPI_hardwareAddress(t *testing.T) {
	b := newBoard(5)
	d := newDev(t, b, 5)
	assert.Equal(t, uint8(5), d.MCP23S17().HWAddr())
	_, err := d.WriteText("addr 5")
	require.NoError(t, err)
	assert.Equal(t, "addr 5          ", b.Lines()[0])

	b.Press(0)
	ev, err := d.WaitForSwitch(time.Second)
	require.NoError(t, err)
	assert.Equal(t, pifacecad.SwitchEvent{Switch: 0, Pressed: true}, ev)
}

func TestNewSPI_wrongAddress(t *testing.T) {
	b := newBoard(0)
	_, err := pifacecad.NewSPI(b, &pifacecad.Opts{HWAddr: 8})
	assert.ErrorIs(t, err, mcp23s17.ErrInvalidAddress)
}

func TestNewSPI_noInit(t *testing.T) {
	b := newBoard(0)
	first := newDev(t, b, 0)
	_, err := first.WriteText("first")
	require.NoError(t, err)

	before := len(b.Expander.Ops())
	d, err := pifacecad.NewSPI(b, &pifacecad.Opts{NoInit: true})
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, before, len(b.Expander.Ops()))
	assert.Equal(t, "first           ", b.Lines()[0])

	// The new handle starts at address 0.
	_, err = d.WriteText("F")
	require.NoError(t, err)
	assert.Equal(t, "First           ", b.Lines()[0])
}

func TestNewSPI_failure(t *testing.T) {
	errBus := errors.New("bus error")
	b := newBoard(0)
	b.Expander.Fail(errBus)
	_, err := pifacecad.NewSPI(b, nil)
	assert.ErrorIs(t, err, errBus)
	assert.Empty(t, b.Expander.Ops())
}
