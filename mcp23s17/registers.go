// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23s17

import "fmt"

// Register is a register address in IOCON.BANK=0 mode, the power-on layout.
// Port A and port B registers are interleaved.
type Register uint8

const (
	IODIRA   Register = 0x00 // I/O direction A, 1 = input
	IODIRB   Register = 0x01 // I/O direction B
	IPOLA    Register = 0x02 // input polarity A
	IPOLB    Register = 0x03 // input polarity B
	GPINTENA Register = 0x04 // interrupt-on-change enable A
	GPINTENB Register = 0x05 // interrupt-on-change enable B
	DEFVALA  Register = 0x06 // default compare value A
	DEFVALB  Register = 0x07 // default compare value B
	INTCONA  Register = 0x08 // interrupt control A
	INTCONB  Register = 0x09 // interrupt control B
	IOCON    Register = 0x0A // configuration, mirrored at 0x0B
	IOCONB   Register = 0x0B
	GPPUA    Register = 0x0C // pull-up A
	GPPUB    Register = 0x0D // pull-up B
	INTFA    Register = 0x0E // interrupt flag A
	INTFB    Register = 0x0F // interrupt flag B
	INTCAPA  Register = 0x10 // interrupt capture A
	INTCAPB  Register = 0x11 // interrupt capture B
	GPIOA    Register = 0x12 // port A
	GPIOB    Register = 0x13 // port B
	OLATA    Register = 0x14 // output latch A
	OLATB    Register = 0x15 // output latch B

	// RegisterCount is the number of addressable registers.
	RegisterCount = 0x16
)

var registerNames = [RegisterCount]string{
	"IODIRA", "IODIRB", "IPOLA", "IPOLB", "GPINTENA", "GPINTENB",
	"DEFVALA", "DEFVALB", "INTCONA", "INTCONB", "IOCON", "IOCON",
	"GPPUA", "GPPUB", "INTFA", "INTFB", "INTCAPA", "INTCAPB",
	"GPIOA", "GPIOB", "OLATA", "OLATB",
}

func (r Register) String() string {
	if r < RegisterCount {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(0x%02x)", uint8(r))
}

// Port returns the port register r belongs to, 0 for A and 1 for B.
func (r Register) Port() int {
	return int(r & 1)
}

// IOCON bits.
const (
	BankOn      uint8 = 0x80 // registers are segregated by port
	IntMirrorOn uint8 = 0x40 // INTA and INTB are internally connected
	SeqOpOff    uint8 = 0x20 // address pointer does not increment
	DisSlwOn    uint8 = 0x10 // SDA slew rate disabled
	HAENOn      uint8 = 0x08 // hardware address pins enabled
	ODROn       uint8 = 0x04 // INT pin is open-drain
	IntPolHigh  uint8 = 0x02 // INT pin is active-high
)

// registerCache mirrors one register of the device. All the caches of a Dev
// share its backing array, so a raw WriteRegister is seen by the pins.
type registerCache struct {
	dev     *Dev
	address Register
}

func (r *registerCache) readValue(cached bool) (uint8, error) {
	e := &r.dev.cache[r.address]
	if cached && e.got {
		return e.value, nil
	}
	return r.dev.ReadRegister(r.address)
}

func (r *registerCache) writeValue(value uint8, cached bool) error {
	e := &r.dev.cache[r.address]
	if cached && e.got && value == e.value {
		return nil
	}
	return r.dev.WriteRegister(r.address, value)
}

func (r *registerCache) getAndSetBit(bit uint8, value bool, cached bool) error {
	v, err := r.readValue(cached)
	if err != nil {
		return err
	}
	if value {
		v |= 1 << bit
	} else {
		v &= ^(1 << bit)
	}
	return r.writeValue(v, cached)
}

func (r *registerCache) getBit(bit uint8, cached bool) (bool, error) {
	v, err := r.readValue(cached)
	return (v & (1 << bit)) != 0, err
}

type cacheEntry struct {
	got   bool
	value uint8
}

// volatile registers change on their own and are never served from cache.
func volatile(r Register) bool {
	switch r {
	case INTFA, INTFB, INTCAPA, INTCAPB, GPIOA, GPIOB:
		return true
	}
	return false
}
