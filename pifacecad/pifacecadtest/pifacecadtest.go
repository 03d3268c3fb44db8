// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pifacecadtest is a fake PiFace Control and Display board.
//
// The Board is an SPI port. Connecting the driver to it runs the driver
// against an emulated MCP23S17 whose port B is wired to an HD44780 model and
// whose port A is wired to eight virtual switches, so tests can check what is
// shown on the glass and press buttons.
package pifacecadtest

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/pifacecad/hd44780sim"
	"github.com/GermanBionicSystems/pifacecad/mcp23s17/mcp23s17test"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Port B wiring, the same as the real board.
const (
	bitEnable    = 0x10
	bitRW        = 0x20
	bitRS        = 0x40
	bitBacklight = 0x80
	dataMask     = 0x0F

	lcdPort    = 1
	switchPort = 0
)

// Opts configures a Board.
type Opts struct {
	// HWAddr is the address the expander is strapped at.
	HWAddr uint8
	// Logger receives the LCD, expander and switch activity. Defaults to
	// logrus.StandardLogger().
	Logger logrus.FieldLogger

	_ struct{}
}

// Board is a fake PiFace Control and Display. It implements spi.PortCloser.
type Board struct {
	// Expander is the emulated MCP23S17.
	Expander *mcp23s17test.Emulator
	// LCD is the display controller model.
	LCD *hd44780sim.Controller
	// Interrupt is the host pin wired to INTA. Pass it as
	// pifacecad.Opts.Interrupt.
	Interrupt *gpiotest.Pin

	log     logrus.FieldLogger
	mu      sync.Mutex
	pressed uint8
}

// NewBoard returns a powered on board with all the switches released.
func NewBoard(opts *Opts) *Board {
	if opts == nil {
		opts = &Opts{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	b := &Board{
		Expander:  mcp23s17test.NewEmulator(opts.HWAddr),
		LCD:       hd44780sim.New(&hd44780sim.Opts{Cols: 16, Logger: log}),
		Interrupt: &gpiotest.Pin{N: "GPIO25", Num: 25, EdgesChan: make(chan gpio.Level, 16)},
		log:       log,
	}
	b.Expander.Logger = log
	b.Expander.Interrupt = b.Interrupt
	b.Expander.OnOutput = b.onOutput
	return b
}

func (b *Board) String() string {
	return fmt.Sprintf("pifacecadtest.Board(%d)", b.Expander.HWAddr)
}

// Connect implements spi.Port.
func (b *Board) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	return b.Expander.Connect(f, mode, bits)
}

// LimitSpeed implements spi.PortCloser.
func (b *Board) LimitSpeed(f physic.Frequency) error {
	return b.Expander.LimitSpeed(f)
}

// Close implements spi.PortCloser.
func (b *Board) Close() error {
	return b.Expander.Close()
}

// Press pushes switch n (0-7) down.
func (b *Board) Press(n uint8) {
	n &= 7
	b.mu.Lock()
	b.pressed |= 1 << n
	b.mu.Unlock()
	b.log.WithField("switch", n).Debug("pifacecadtest: press")
	b.Expander.SetInput(switchPort, n, gpio.Low)
}

// Release lets switch n (0-7) go.
func (b *Board) Release(n uint8) {
	n &= 7
	b.mu.Lock()
	b.pressed &^= 1 << n
	b.mu.Unlock()
	b.log.WithField("switch", n).Debug("pifacecadtest: release")
	b.Expander.Float(switchPort, n)
}

// Pressed returns the bitmask of the switches held down.
func (b *Board) Pressed() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// Lines returns the text visible on the LCD.
func (b *Board) Lines() []string {
	return b.LCD.Lines()
}

// Backlight returns true when the backlight is lit.
func (b *Board) Backlight() bool {
	return b.LCD.State().Backlight
}

// onOutput decodes the LCD lines out of port B. The controller latches on
// the falling edge of E.
func (b *Board) onOutput(port int, old, new uint8) {
	if port != lcdPort {
		return
	}
	if (old^new)&bitBacklight != 0 {
		b.LCD.SetBacklight(new&bitBacklight != 0)
	}
	if old&bitEnable != 0 && new&bitEnable == 0 {
		b.LCD.Latch(new&bitRS != 0, new&bitRW != 0, new&dataMask)
	}
}

var _ spi.PortCloser = &Board{}
