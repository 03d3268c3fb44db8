// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/pifacecad/mcp23s17"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// ErrNotImplemented is returned by the operations the board does not
// support. It is display.ErrNotImplemented.
var ErrNotImplemented = display.ErrNotImplemented

var (
	// ErrTimeout is returned by WaitForSwitch when no switch changed in time.
	ErrTimeout = errors.New("pifacecad: timeout waiting for a switch")
	// ErrNoInterrupt is returned by WaitForSwitch when Opts.Interrupt was not
	// set.
	ErrNoInterrupt = errors.New("pifacecad: no interrupt pin")
)

// Opts is the board configuration.
type Opts struct {
	// Bus and ChipSelect select the SPI port used by Open, "SPI<Bus>.<ChipSelect>".
	Bus        int
	ChipSelect int
	// HWAddr is the MCP23S17 hardware address, 0 unless the board was
	// modified.
	HWAddr uint8
	// Speed defaults to mcp23s17.MaxSpeed.
	Speed physic.Frequency
	// Interrupt is the host pin wired to the expander INTA line, GPIO25 on a
	// Raspberry Pi. It is only needed by WaitForSwitch.
	Interrupt gpio.PinIn
	// NoInit skips the expander and LCD setup, for a board already
	// initialized by another program.
	NoInit bool

	_ struct{}
}

// DefaultOpts is the stock board on a Raspberry Pi.
var DefaultOpts = Opts{
	Bus:        0,
	ChipSelect: 1,
}

// Register values written by setup.
const (
	ioconConfig = mcp23s17.HAENOn | mcp23s17.SeqOpOff
	allInputs   = 0xFF
	allOutputs  = 0x00
)

// Dev is a PiFace Control and Display board.
//
// The LCD methods are promoted from the embedded LCD. Dev also implements
// display.TextDisplay and display.DisplayBacklight.
type Dev struct {
	*LCD

	exp  *mcp23s17.Dev
	irq  gpio.PinIn
	port spi.PortCloser
}

// Open initializes periph host drivers, opens the SPI port selected in opts
// and returns the initialized board. A nil opts uses DefaultOpts.
//
// Close releases the SPI port.
func Open(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pifacecad: %w", err)
	}
	name := fmt.Sprintf("SPI%d.%d", opts.Bus, opts.ChipSelect)
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("pifacecad: open %s: %w", name, err)
	}
	d, err := NewSPI(p, opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

// NewSPI connects to the SPI port p and returns the board. Bus and
// ChipSelect of opts are ignored.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	speed := opts.Speed
	if speed == 0 {
		speed = mcp23s17.MaxSpeed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("pifacecad: %w", err)
	}
	return New(c, opts)
}

// New returns the board reached through c.
//
// Unless opts.NoInit is set, the expander is configured (hardware addressing
// on, port A inputs with pull-ups and interrupt on change, port B outputs)
// and the LCD is initialized.
func New(c spi.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	exp, err := mcp23s17.New(c, opts.HWAddr)
	if err != nil {
		return nil, fmt.Errorf("pifacecad: %w", err)
	}
	d := &Dev{LCD: NewLCD(exp), exp: exp, irq: opts.Interrupt}
	if d.irq != nil {
		if err := d.irq.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			_ = exp.Close()
			return nil, fmt.Errorf("pifacecad: interrupt pin: %w", err)
		}
	}
	if !opts.NoInit {
		if opts.HWAddr != 0 {
			if err := mcp23s17.Broadcast(c, mcp23s17.IOCON, ioconConfig); err != nil {
				_ = exp.Close()
				return nil, fmt.Errorf("pifacecad: %w", err)
			}
		}
		if err := d.setup(); err != nil {
			_ = exp.Close()
			return nil, err
		}
	}
	return d, nil
}

func (d *Dev) setup() error {
	for _, w := range []struct {
		reg   mcp23s17.Register
		value uint8
	}{
		{mcp23s17.IOCON, ioconConfig},
		{mcp23s17.IODIRA, allInputs},
		{mcp23s17.GPPUA, allInputs},
		{mcp23s17.IODIRB, allOutputs},
		{mcp23s17.GPINTENA, allInputs},
	} {
		if err := d.exp.WriteRegister(w.reg, w.value); err != nil {
			return fmt.Errorf("pifacecad: setup: %w", err)
		}
	}
	return d.Init()
}

func (d *Dev) String() string {
	return fmt.Sprintf("PiFaceCAD{%s}", d.exp)
}

// MCP23S17 returns the expander, for raw register access.
func (d *Dev) MCP23S17() *mcp23s17.Dev {
	return d.exp
}

// Halt implements conn.Resource.
//
// It clears the display, turns the backlight off and turns the display off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.BacklightOff(); err != nil {
		return err
	}
	return d.DisplayOff()
}

// Close disables the switch interrupts and releases the expander pins. The
// SPI port is closed when the board was created by Open.
//
// The LCD content is left as is.
func (d *Dev) Close() error {
	var err error
	if v, e := d.exp.ReadRegister(mcp23s17.GPINTENA); e != nil {
		err = fmt.Errorf("pifacecad: close: %w", e)
	} else if v != 0 {
		if e := d.exp.WriteRegister(mcp23s17.GPINTENA, 0); e != nil {
			err = fmt.Errorf("pifacecad: close: %w", e)
		}
	}
	if e := d.exp.Close(); e != nil && err == nil {
		err = fmt.Errorf("pifacecad: close: %w", e)
	}
	if d.port != nil {
		if e := d.port.Close(); e != nil && err == nil {
			err = fmt.Errorf("pifacecad: close: %w", e)
		}
		d.port = nil
	}
	return err
}

var _ conn.Resource = &Dev{}
