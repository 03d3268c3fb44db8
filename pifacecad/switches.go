// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pifacecad

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/GermanBionicSystems/pifacecad/mcp23s17"
	"periph.io/x/conn/v3/gpio"
)

// SwitchCount is the number of switches on port A. Switches 0 to 4 are the
// buttons under the display, 5 to 7 the navigation switch (press, left,
// right).
const SwitchCount = 8

// SwitchEvent is a switch change reported by WaitForSwitch.
type SwitchEvent struct {
	Switch  uint8
	Pressed bool
}

func (e SwitchEvent) String() string {
	if e.Pressed {
		return fmt.Sprintf("switch %d pressed", e.Switch)
	}
	return fmt.Sprintf("switch %d released", e.Switch)
}

// ReadSwitches returns the raw port A value. A pressed switch reads 0.
func (d *Dev) ReadSwitches() (uint8, error) {
	v, err := d.exp.ReadRegister(SwitchPort)
	if err != nil {
		return 0, fmt.Errorf("pifacecad: read switches: %w", err)
	}
	return v, nil
}

// ReadSwitch returns bit n (masked to 0-7) of port A, 0 when the switch is
// pressed.
func (d *Dev) ReadSwitch(n uint8) (uint8, error) {
	v, err := d.ReadSwitches()
	if err != nil {
		return 0, err
	}
	return (v >> (n & 7)) & 1, nil
}

// Switch returns switch n (masked to 0-7) as a pin. It reads Low when
// pressed.
func (d *Dev) Switch(n uint8) gpio.PinIn {
	return d.exp.Pins[0][n&7]
}

// WaitForSwitch blocks until a switch changes, then reports the lowest one
// that did. A negative timeout waits forever.
//
// Reading the interrupt capture register clears the interrupt, so a switch
// that changes again before the call is only reported once.
func (d *Dev) WaitForSwitch(timeout time.Duration) (SwitchEvent, error) {
	if d.irq == nil {
		return SwitchEvent{}, ErrNoInterrupt
	}
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		wait := timeout
		if timeout >= 0 {
			if wait = time.Until(deadline); wait < 0 {
				wait = 0
			}
		}
		if !d.irq.WaitForEdge(wait) {
			return SwitchEvent{}, ErrTimeout
		}
		flags, err := d.exp.ReadRegister(mcp23s17.INTFA)
		if err != nil {
			return SwitchEvent{}, fmt.Errorf("pifacecad: wait for switch: %w", err)
		}
		capture, err := d.exp.ReadRegister(mcp23s17.INTCAPA)
		if err != nil {
			return SwitchEvent{}, fmt.Errorf("pifacecad: wait for switch: %w", err)
		}
		if flags == 0 {
			// Spurious edge.
			continue
		}
		n := uint8(bits.TrailingZeros8(flags))
		return SwitchEvent{Switch: n, Pressed: capture&(1<<n) == 0}, nil
	}
}
