// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23s17

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pin extends gpio.PinIO interface with features supported by the MCP23S17.
type Pin interface {
	gpio.PinIO
	pin.PinFunc
	// SetPolarityInverted if set to true, GPIO register bit reflects the
	// opposite logic state of the input pin.
	SetPolarityInverted(p bool) error
	// IsPolarityInverted returns true if the value of the input pin reflects
	// inverted logic state.
	IsPolarityInverted() (bool, error)
}

type port struct {
	name  string
	index int // 0 for A, 1 for B

	iodir registerCache // direction, 1 = input
	ipol  registerCache // polarity
	gppu  registerCache // 100kΩ pull-up
	gpio  registerCache // level at the pins
	olat  registerCache // output latch
}

func (p *port) pins(count int) []Pin {
	result := make([]Pin, count)
	for i := range count {
		result[i] = &portpin{
			port:   p,
			pinbit: uint8(i),
		}
	}
	return result
}

type portpin struct {
	port   *port
	pinbit uint8
}

func (p *portpin) String() string {
	return p.Name()
}

// Halt floats the pin: input, pull-up off.
func (p *portpin) Halt() error {
	return p.In(gpio.Float, gpio.NoEdge)
}

// Name is the device name, the port and the bit, e.g. MCP23S17_0_PB_7.
func (p *portpin) Name() string {
	return p.port.name + "_" + strconv.Itoa(int(p.pinbit))
}

// Number is the datasheet pin order, GPA0-GPA7 then GPB0-GPB7.
func (p *portpin) Number() int {
	return p.port.index*8 + int(p.pinbit)
}

// Deprecated: Use PinFunc.Func. Will be removed in v4.
func (p *portpin) Function() string {
	return string(p.Func())
}

func (p *portpin) In(pull gpio.Pull, edge gpio.Edge) error {
	switch pull {
	case gpio.PullDown:
		return errors.New("mcp23s17: PullDown is not supported")
	case gpio.PullUp:
		if err := p.port.gppu.getAndSetBit(p.pinbit, true, true); err != nil {
			return err
		}
	case gpio.Float:
		if err := p.port.gppu.getAndSetBit(p.pinbit, false, true); err != nil {
			return err
		}
	case gpio.PullNoChange:
	}

	// The INT line is a separate host pin, edges can't be waited on per pin.
	if edge != gpio.NoEdge {
		return errors.New("mcp23s17: edge detection not supported")
	}

	return p.port.iodir.getAndSetBit(p.pinbit, true, true)
}

func (p *portpin) Read() gpio.Level {
	v, _ := p.port.gpio.getBit(p.pinbit, false)
	if v {
		return gpio.High
	}
	return gpio.Low
}

func (p *portpin) WaitForEdge(timeout time.Duration) bool {
	return false
}

func (p *portpin) Pull() gpio.Pull {
	v, err := p.port.gppu.getBit(p.pinbit, true)
	if err != nil {
		return gpio.PullNoChange
	}
	if v {
		return gpio.PullUp
	}
	return gpio.Float
}

func (p *portpin) DefaultPull() gpio.Pull {
	return gpio.Float
}

func (p *portpin) Out(l gpio.Level) error {
	err := p.port.iodir.getAndSetBit(p.pinbit, false, true)
	if err != nil {
		return err
	}
	return p.port.olat.getAndSetBit(p.pinbit, l == gpio.High, true)
}

func (p *portpin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("mcp23s17: PWM is not supported")
}

// Func reports the direction cached from IODIR.
func (p *portpin) Func() pin.Func {
	in, err := p.port.iodir.getBit(p.pinbit, true)
	switch {
	case err != nil:
		return pin.FuncNone
	case in:
		return gpio.IN
	default:
		return gpio.OUT
	}
}

func (p *portpin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

// SetFunc switches the direction only. The pull-up and the output latch are
// left as they are.
func (p *portpin) SetFunc(f pin.Func) error {
	for _, s := range supportedFuncs {
		if f == s {
			return p.port.iodir.getAndSetBit(p.pinbit, f == gpio.IN, true)
		}
	}
	return fmt.Errorf("mcp23s17: %s: unsupported function %q", p.Name(), f)
}

// SetPolarityInverted sets IPOL for the pin. Only inputs are affected.
func (p *portpin) SetPolarityInverted(inverted bool) error {
	return p.port.ipol.getAndSetBit(p.pinbit, inverted, true)
}

func (p *portpin) IsPolarityInverted() (bool, error) {
	return p.port.ipol.getBit(p.pinbit, true)
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ Pin = &portpin{}
