// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23s17

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// MaxSpeed is the maximum SPI clock rated by the datasheet.
	MaxSpeed = 10 * physic.MegaHertz

	opcodeWrite byte = 0x40
	opcodeRead  byte = 0x41
)

// ErrInvalidAddress is returned when the hardware address does not fit in
// the three A2..A0 pins.
var ErrInvalidAddress = errors.New("mcp23s17: hardware address must be in range 0-7")

// ErrInvalidRegister is returned for register addresses past OLATB.
var ErrInvalidRegister = errors.New("invalid register")

// Dev is an MCP23S17 reached over SPI.
//
// Pins is structured as [port][pin], port 0 is GPIOA.
type Dev struct {
	Pins [2][]Pin

	c      spi.Conn
	hwAddr uint8
	name   string
	cache  [RegisterCount]cacheEntry
	// names of the pins this device managed to register in gpioreg.
	registered []string
}

// New returns a device object that communicates over the SPI connection c
// with the expander strapped at hardware address hwAddr (0-7).
//
// The device is not touched. Hardware addressing only takes effect once
// IOCON.HAEN is set, until then every expander on the chip select answers.
func New(c spi.Conn, hwAddr uint8) (*Dev, error) {
	if hwAddr > 7 {
		return nil, ErrInvalidAddress
	}
	d := &Dev{
		c:      c,
		hwAddr: hwAddr,
		name:   fmt.Sprintf("MCP23S17_%d", hwAddr),
	}
	for i := range d.Pins {
		p := &port{
			name:  fmt.Sprintf("%s_P%c", d.name, 'A'+i),
			index: i,
			iodir: registerCache{dev: d, address: IODIRA + Register(i)},
			ipol:  registerCache{dev: d, address: IPOLA + Register(i)},
			gppu:  registerCache{dev: d, address: GPPUA + Register(i)},
			gpio:  registerCache{dev: d, address: GPIOA + Register(i)},
			olat:  registerCache{dev: d, address: OLATA + Register(i)},
		}
		d.Pins[i] = p.pins(8)
		for _, pin := range d.Pins[i] {
			// Ignore registration failure, the pins stay usable through Pins.
			if gpioreg.Register(pin) == nil {
				d.registered = append(d.registered, pin.Name())
			}
		}
	}
	return d, nil
}

// NewSPI connects to the SPI port p in mode 0 and returns the device at
// hardware address hwAddr.
func NewSPI(p spi.Port, hwAddr uint8) (*Dev, error) {
	c, err := p.Connect(MaxSpeed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("mcp23s17: %w", err)
	}
	return New(c, hwAddr)
}

func (d *Dev) String() string {
	return d.name
}

// HWAddr returns the hardware address the device was created with.
func (d *Dev) HWAddr() uint8 {
	return d.hwAddr
}

// ReadRegister reads the register reg.
func (d *Dev) ReadRegister(reg Register) (uint8, error) {
	if reg >= RegisterCount {
		return 0, fmt.Errorf("mcp23s17: read %s: %w", reg, ErrInvalidRegister)
	}
	w := []byte{opcodeRead | d.hwAddr<<1, byte(reg), 0}
	r := make([]byte, len(w))
	if err := d.c.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp23s17: read %s: %w", reg, err)
	}
	d.cache[reg] = cacheEntry{got: !volatile(reg), value: r[2]}
	return r[2], nil
}

// WriteRegister writes value to the register reg.
func (d *Dev) WriteRegister(reg Register, value uint8) error {
	if reg >= RegisterCount {
		return fmt.Errorf("mcp23s17: write %s: %w", reg, ErrInvalidRegister)
	}
	if err := d.c.Tx([]byte{opcodeWrite | d.hwAddr<<1, byte(reg), value}, nil); err != nil {
		return fmt.Errorf("mcp23s17: write %s: %w", reg, err)
	}
	d.cache[reg] = cacheEntry{got: !volatile(reg), value: value}
	switch reg {
	case GPIOA, GPIOB:
		// Writing the port writes the output latch.
		d.cache[reg+OLATA-GPIOA] = cacheEntry{got: true, value: value}
	case IOCON, IOCONB:
		d.cache[IOCON] = cacheEntry{got: true, value: value}
		d.cache[IOCONB] = cacheEntry{got: true, value: value}
	}
	return nil
}

// ReadBit returns bit of the register reg.
func (d *Dev) ReadBit(reg Register, bit uint8) (bool, error) {
	v, err := d.ReadRegister(reg)
	return v&(1<<(bit&7)) != 0, err
}

// WriteBit sets or clears one bit of the register reg. The register is read
// back from the device first so the other bits are preserved.
func (d *Dev) WriteBit(reg Register, bit uint8, on bool) error {
	v, err := d.ReadRegister(reg)
	if err != nil {
		return err
	}
	if on {
		v |= 1 << (bit & 7)
	} else {
		v &^= 1 << (bit & 7)
	}
	return d.WriteRegister(reg, v)
}

// Broadcast writes value to reg through address 0 of c. Expanders that have
// IOCON.HAEN cleared all answer it, which is the way to turn hardware
// addressing on for a chip strapped at a non-zero address.
func Broadcast(c spi.Conn, reg Register, value uint8) error {
	if reg >= RegisterCount {
		return fmt.Errorf("mcp23s17: broadcast %s: %w", reg, ErrInvalidRegister)
	}
	if err := c.Tx([]byte{opcodeWrite, byte(reg), value}, nil); err != nil {
		return fmt.Errorf("mcp23s17: broadcast %s: %w", reg, err)
	}
	return nil
}

// Halt implements conn.Resource. It is a noop; the outputs keep their state.
func (d *Dev) Halt() error {
	return nil
}

// Close removes the pin registrations of the device.
func (d *Dev) Close() error {
	var err error
	for _, name := range d.registered {
		if e := gpioreg.Unregister(name); e != nil && err == nil {
			err = e
		}
	}
	d.registered = nil
	return err
}

var _ conn.Resource = &Dev{}
