// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23s17test provides a register level MCP23S17 emulator that can
// be connected to a driver in place of a real SPI port.
package mcp23s17test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/pifacecad/mcp23s17"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Emulator implements spi.PortCloser and spi.Conn and behaves like an
// MCP23S17 in IOCON.BANK=0 mode.
//
// Only the SPI protocol, the GPIO and the interrupt-on-change logic are
// emulated; slew rate, open-drain and interrupt polarity settings are
// stored and ignored.
type Emulator struct {
	// HWAddr is the address strapped on the A2..A0 pins. It is only matched
	// once IOCON.HAEN is set; before that the device answers address 0.
	HWAddr uint8
	// Interrupt, if set, receives a falling edge on EdgesChan whenever an
	// interrupt flag gets raised on either port, as if INTA and INTB were
	// mirrored.
	Interrupt *gpiotest.Pin
	// OnOutput is called with the output latch of a port each time it is
	// written. It runs with the emulator locked and must not call back into
	// it.
	OnOutput func(port int, old, new uint8)
	// Logger traces every transaction when set.
	Logger logrus.FieldLogger

	mu     sync.Mutex
	err    error
	ops    []conntest.IO
	regs   [mcp23s17.RegisterCount]uint8
	driven [2]uint8 // pins driven from outside
	levels [2]uint8 // levels of the driven pins
	last   [2]uint8 // pin levels at the last interrupt evaluation
}

// NewEmulator returns an emulator in its power-on state.
func NewEmulator(hwAddr uint8) *Emulator {
	e := &Emulator{HWAddr: hwAddr}
	e.Reset()
	return e
}

// Reset puts the registers back in their power-on state. External inputs
// are kept.
func (e *Emulator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regs = [mcp23s17.RegisterCount]uint8{}
	e.regs[mcp23s17.IODIRA] = 0xFF
	e.regs[mcp23s17.IODIRB] = 0xFF
	e.last[0] = e.pinLevels(0)
	e.last[1] = e.pinLevels(1)
}

func (e *Emulator) String() string {
	return fmt.Sprintf("mcp23s17test(%d)", e.HWAddr)
}

// Connect implements spi.Port.
func (e *Emulator) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if f > mcp23s17.MaxSpeed {
		return nil, fmt.Errorf("mcp23s17test: %s exceeds the maximum speed", f)
	}
	if mode != spi.Mode0 && mode != spi.Mode3 {
		return nil, fmt.Errorf("mcp23s17test: unsupported mode %s", mode)
	}
	if bits != 8 {
		return nil, fmt.Errorf("mcp23s17test: unsupported word size %d", bits)
	}
	return e, nil
}

// LimitSpeed implements spi.PortCloser.
func (e *Emulator) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Close implements spi.PortCloser.
func (e *Emulator) Close() error {
	return nil
}

// Duplex implements conn.Conn.
func (e *Emulator) Duplex() conn.Duplex {
	return conn.Full
}

// TxPackets implements spi.Conn.
func (e *Emulator) TxPackets(p []spi.Packet) error {
	for _, pkt := range p {
		if err := e.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Tx implements conn.Conn.
//
// w is [opcode, register, data...]. On a read, the register contents are
// returned in r starting at index 2.
func (e *Emulator) Tx(w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if len(w) < 3 {
		return errors.New("mcp23s17test: transaction must be at least 3 bytes")
	}
	if len(r) != 0 && len(r) != len(w) {
		return errors.New("mcp23s17test: read buffer must match the write buffer")
	}
	io := conntest.IO{W: append([]byte(nil), w...)}
	defer func() {
		if len(r) != 0 {
			io.R = append([]byte(nil), r...)
		}
		e.ops = append(e.ops, io)
	}()

	addr := uint8(0)
	if e.regs[mcp23s17.IOCON]&mcp23s17.HAENOn != 0 {
		addr = e.HWAddr
	}
	if w[0]&0xF0 != 0x40 || (w[0]>>1)&7 != addr {
		// Not for us, MISO stays high impedance.
		return nil
	}
	read := w[0]&1 != 0
	reg := mcp23s17.Register(w[1])
	for i := 2; i < len(w); i++ {
		if reg < mcp23s17.RegisterCount {
			if read {
				if len(r) == 0 {
					return errors.New("mcp23s17test: read without a read buffer")
				}
				r[i] = e.read(reg)
			} else {
				e.write(reg, w[i])
			}
		}
		if e.regs[mcp23s17.IOCON]&mcp23s17.SeqOpOff == 0 {
			reg = (reg + 1) % mcp23s17.RegisterCount
		}
	}
	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"register": mcp23s17.Register(w[1]).String(),
			"read":     read,
			"data":     fmt.Sprintf("% x", w[2:]),
		}).Trace("mcp23s17 transaction")
	}
	return nil
}

// Fail makes every following transaction return err. Pass nil to recover.
func (e *Emulator) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Ops returns a copy of the transactions seen so far.
func (e *Emulator) Ops() []conntest.IO {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]conntest.IO(nil), e.ops...)
}

// Register returns the raw content of reg without the read side effects.
func (e *Emulator) Register(reg mcp23s17.Register) uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if reg >= mcp23s17.RegisterCount {
		return 0
	}
	return e.regs[reg]
}

// Output returns the output latch of port, 0 for A and 1 for B.
func (e *Emulator) Output(port int) uint8 {
	return e.Register(mcp23s17.OLATA + mcp23s17.Register(port&1))
}

// SetInputs drives all eight pins of port to value.
func (e *Emulator) SetInputs(port int, value uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	port &= 1
	e.driven[port] = 0xFF
	e.levels[port] = value
	e.evaluate(port)
}

// SetInput drives a single pin of port.
func (e *Emulator) SetInput(port int, bit uint8, l gpio.Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	port &= 1
	mask := uint8(1) << (bit & 7)
	e.driven[port] |= mask
	if l {
		e.levels[port] |= mask
	} else {
		e.levels[port] &^= mask
	}
	e.evaluate(port)
}

// Float stops driving a single pin of port, leaving it to the pull-up.
func (e *Emulator) Float(port int, bit uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	port &= 1
	e.driven[port] &^= 1 << (bit & 7)
	e.evaluate(port)
}

// Release stops driving all the pins of port.
func (e *Emulator) Release(port int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.driven[port&1] = 0
	e.evaluate(port & 1)
}

func (e *Emulator) pinLevels(port int) uint8 {
	pu := e.regs[mcp23s17.GPPUA+mcp23s17.Register(port)]
	return e.levels[port]&e.driven[port] | pu&^e.driven[port]
}

func (e *Emulator) gpioValue(port int) uint8 {
	iodir := e.regs[mcp23s17.IODIRA+mcp23s17.Register(port)]
	ipol := e.regs[mcp23s17.IPOLA+mcp23s17.Register(port)]
	olat := e.regs[mcp23s17.OLATA+mcp23s17.Register(port)]
	return (e.pinLevels(port)^ipol)&iodir | olat&^iodir
}

// evaluate runs the interrupt-on-change logic of port.
func (e *Emulator) evaluate(port int) {
	r := mcp23s17.Register(port)
	levels := e.pinLevels(port)
	enabled := e.regs[mcp23s17.GPINTENA+r] & e.regs[mcp23s17.IODIRA+r]
	intcon := e.regs[mcp23s17.INTCONA+r]
	defval := e.regs[mcp23s17.DEFVALA+r]
	changed := (levels ^ e.last[port]) &^ intcon
	compared := (levels ^ defval) & intcon
	e.last[port] = levels
	flags := (changed | compared) & enabled
	if flags == 0 {
		return
	}
	if e.regs[mcp23s17.INTFA+r] == 0 {
		e.regs[mcp23s17.INTCAPA+r] = e.gpioValue(port)
	}
	e.regs[mcp23s17.INTFA+r] |= flags
	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"port":  string(rune('A' + port)),
			"flags": fmt.Sprintf("%08b", flags),
		}).Debug("mcp23s17 interrupt")
	}
	if e.Interrupt != nil {
		select {
		case e.Interrupt.EdgesChan <- gpio.Low:
		default:
		}
	}
}

func (e *Emulator) read(reg mcp23s17.Register) uint8 {
	port := reg.Port()
	switch reg {
	case mcp23s17.GPIOA, mcp23s17.GPIOB:
		v := e.gpioValue(port)
		e.regs[mcp23s17.INTFA+mcp23s17.Register(port)] = 0
		return v
	case mcp23s17.INTCAPA, mcp23s17.INTCAPB:
		e.regs[mcp23s17.INTFA+mcp23s17.Register(port)] = 0
		return e.regs[reg]
	}
	return e.regs[reg]
}

func (e *Emulator) write(reg mcp23s17.Register, v uint8) {
	port := reg.Port()
	switch reg {
	case mcp23s17.IOCON, mcp23s17.IOCONB:
		// Bit 0 is unimplemented.
		e.regs[mcp23s17.IOCON] = v &^ 1
		e.regs[mcp23s17.IOCONB] = v &^ 1
	case mcp23s17.INTFA, mcp23s17.INTFB, mcp23s17.INTCAPA, mcp23s17.INTCAPB:
		// Read only.
	case mcp23s17.GPIOA, mcp23s17.GPIOB, mcp23s17.OLATA, mcp23s17.OLATB:
		olat := mcp23s17.OLATA + mcp23s17.Register(port)
		old := e.regs[olat]
		e.regs[olat] = v
		if e.OnOutput != nil {
			e.OnOutput(port, old, v)
		}
	default:
		e.regs[reg] = v
		// Direction or pull-up changes move the pin levels.
		e.last[port] = e.pinLevels(port)
	}
}

var _ spi.PortCloser = &Emulator{}
var _ spi.Conn = &Emulator{}
