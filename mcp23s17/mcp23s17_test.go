// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23s17

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func newPlayback(t *testing.T, hwAddr uint8, ops []conntest.IO) (*spitest.Playback, *Dev) {
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
	dev, err := NewSPI(pb, hwAddr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = dev.Close()
		if err := pb.Close(); err != nil {
			t.Error(err)
		}
	})
	return pb, dev
}

func TestNew_invalidAddress(t *testing.T) {
	c, err := (&spitest.Record{}).Connect(MaxSpeed, spi.Mode0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(c, 8); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("New(8) = %v, want ErrInvalidAddress", err)
	}
}

func TestReadWriteRegister(t *testing.T) {
	_, dev := newPlayback(t, 1, []conntest.IO{
		{W: []byte{0x42, 0x0A, 0x28}},
		{W: []byte{0x43, 0x13, 0x00}, R: []byte{0x00, 0x00, 0xA5}},
		{W: []byte{0x42, 0x00, 0xFF}},
	})
	if err := dev.WriteRegister(IOCON, HAENOn|SeqOpOff); err != nil {
		t.Fatal(err)
	}
	v, err := dev.ReadRegister(GPIOB)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xA5 {
		t.Errorf("ReadRegister(GPIOB) = %#x, want 0xa5", v)
	}
	if err := dev.WriteRegister(IODIRA, 0xFF); err != nil {
		t.Fatal(err)
	}
	if s := dev.String(); s != "MCP23S17_1" {
		t.Errorf("String() = %q", s)
	}
}

func TestWriteBit(t *testing.T) {
	_, dev := newPlayback(t, 0, []conntest.IO{
		{W: []byte{0x41, 0x13, 0x00}, R: []byte{0x00, 0x00, 0x80}},
		{W: []byte{0x40, 0x13, 0x88}},
		{W: []byte{0x41, 0x13, 0x00}, R: []byte{0x00, 0x00, 0x88}},
		{W: []byte{0x40, 0x13, 0x08}},
		{W: []byte{0x41, 0x12, 0x00}, R: []byte{0x00, 0x00, 0x04}},
	})
	if err := dev.WriteBit(GPIOB, 3, true); err != nil {
		t.Fatal(err)
	}
	if err := dev.WriteBit(GPIOB, 7, false); err != nil {
		t.Fatal(err)
	}
	on, err := dev.ReadBit(GPIOA, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("ReadBit(GPIOA, 2) = false")
	}
}

func TestTxError(t *testing.T) {
	_, dev := newPlayback(t, 0, nil)
	if _, err := dev.ReadRegister(GPIOA); err == nil {
		t.Fatal("expected error")
	}
	if err := dev.WriteRegister(GPIOA, 1); err == nil {
		t.Fatal("expected error")
	}
	if err := dev.WriteRegister(Register(0x30), 1); !errors.Is(err, ErrInvalidRegister) {
		t.Fatalf("WriteRegister(0x30) = %v", err)
	}
}

func TestPin_out(t *testing.T) {
	_, dev := newPlayback(t, 2, []conntest.IO{
		// iodir is read then pin 2 is set to output
		{W: []byte{0x45, 0x01, 0x00}, R: []byte{0x00, 0x00, 0xFF}},
		{W: []byte{0x44, 0x01, 0xFB}},
		// output latch is read then written
		{W: []byte{0x45, 0x15, 0x00}, R: []byte{0x00, 0x00, 0x00}},
		{W: []byte{0x44, 0x15, 0x04}},
		// iodir unchanged, served from cache
		{W: []byte{0x44, 0x15, 0x00}},
	})
	p := gpioreg.ByName("MCP23S17_2_PB_2")
	if p == nil {
		t.Fatal("pin not registered")
	}
	if err := p.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := p.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if f := dev.Pins[1][2].Func(); f != gpio.OUT {
		t.Errorf("Func() = %s", f)
	}
	if f := dev.Pins[1][2].SupportedFuncs(); len(f) != 2 {
		t.Errorf("SupportedFuncs() = %v", f)
	}
	if err := dev.Pins[1][2].SetFunc(pin.Func("I2C_SDA")); err == nil {
		t.Error("SetFunc(I2C_SDA) should fail")
	}
}

func TestPin_in(t *testing.T) {
	_, dev := newPlayback(t, 3, []conntest.IO{
		{W: []byte{0x47, 0x0C, 0x00}, R: []byte{0x00, 0x00, 0x00}},
		{W: []byte{0x46, 0x0C, 0x01}},
		{W: []byte{0x47, 0x00, 0x00}, R: []byte{0x00, 0x00, 0xFF}},
		{W: []byte{0x47, 0x12, 0x00}, R: []byte{0x00, 0x00, 0xFE}},
	})
	p := dev.Pins[0][0]
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if l := p.Read(); l != gpio.Low {
		t.Errorf("Read() = %s, want Low", l)
	}
	if pull := p.Pull(); pull != gpio.PullUp {
		t.Errorf("Pull() = %s", pull)
	}
	if err := p.In(gpio.PullDown, gpio.NoEdge); err == nil {
		t.Error("PullDown should fail")
	}
	if err := p.In(gpio.PullNoChange, gpio.FallingEdge); err == nil {
		t.Error("edge detection should fail")
	}
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Error("PWM should fail")
	}
}

func TestRegister_String(t *testing.T) {
	for _, tc := range []struct {
		r    Register
		want string
		port int
	}{
		{IODIRA, "IODIRA", 0},
		{GPIOB, "GPIOB", 1},
		{IOCONB, "IOCON", 1},
		{Register(0x40), "Register(0x40)", 0},
	} {
		if s := tc.r.String(); s != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.r, s, tc.want)
		}
		if p := tc.r.Port(); p != tc.port {
			t.Errorf("%s.Port() = %d, want %d", tc.r, p, tc.port)
		}
	}
}

func TestBroadcast(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{
		Ops:       []conntest.IO{{W: []byte{0x40, 0x0A, 0x28}}},
		DontPanic: true,
	}}
	c, err := pb.Connect(MaxSpeed, spi.Mode0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := Broadcast(c, IOCON, HAENOn|SeqOpOff); err != nil {
		t.Fatal(err)
	}
	if err := Broadcast(c, RegisterCount, 0); !errors.Is(err, ErrInvalidRegister) {
		t.Errorf("Broadcast(%#x) = %v, want ErrInvalidRegister", RegisterCount, err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestPin_funcs(t *testing.T) {
	_, dev := newPlayback(t, 4, []conntest.IO{
		// SetFunc(OUT) on GPB7
		{W: []byte{0x49, 0x01, 0x00}, R: []byte{0x00, 0x00, 0xFF}},
		{W: []byte{0x48, 0x01, 0x7F}},
		// SetPolarityInverted on GPA1
		{W: []byte{0x49, 0x02, 0x00}, R: []byte{0x00, 0x00, 0x00}},
		{W: []byte{0x48, 0x02, 0x02}},
		// Halt on GPB7: pull-up off then back to input
		{W: []byte{0x49, 0x0D, 0x00}, R: []byte{0x00, 0x00, 0x80}},
		{W: []byte{0x48, 0x0D, 0x00}},
		{W: []byte{0x48, 0x01, 0xFF}},
	})
	b7 := dev.Pins[1][7]
	a1 := dev.Pins[0][1]
	if n := b7.Number(); n != 15 {
		t.Errorf("Number() = %d, want 15", n)
	}
	if n := a1.Number(); n != 1 {
		t.Errorf("Number() = %d, want 1", n)
	}
	if s := b7.String(); s != "MCP23S17_4_PB_7" {
		t.Errorf("String() = %q", s)
	}
	if err := b7.SetFunc(gpio.OUT); err != nil {
		t.Fatal(err)
	}
	if f := b7.Func(); f != gpio.OUT {
		t.Errorf("Func() = %s, want OUT", f)
	}
	if err := a1.SetPolarityInverted(true); err != nil {
		t.Fatal(err)
	}
	inv, err := a1.IsPolarityInverted()
	if err != nil || !inv {
		t.Errorf("IsPolarityInverted() = %t, %v", inv, err)
	}
	if err := b7.Halt(); err != nil {
		t.Fatal(err)
	}
	if f := b7.Func(); f != gpio.IN {
		t.Errorf("Func() after Halt() = %s, want IN", f)
	}
	if f := b7.Function(); f != string(gpio.IN) {
		t.Errorf("Function() = %q", f)
	}
}
