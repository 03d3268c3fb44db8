// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pifacecad drives the PiFace Control and Display add-on board.
//
// The board carries an MCP23S17 SPI GPIO expander. Port A reads eight
// momentary switches (active low, pulled up) and its interrupt line is wired
// to a host GPIO. Port B drives a 16x2 HD44780 character LCD in 4-bit mode:
//
//	bit 0-3  D4-D7
//	bit 4    E
//	bit 5    R/W
//	bit 6    RS
//	bit 7    backlight
//
// The controller is never read, so the driver tracks the DDRAM address and
// the display flags itself and waits the datasheet delays after every
// transfer.
//
// # More details
//
// http://www.piface.org.uk/products/piface_control_and_display/
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
package pifacecad
