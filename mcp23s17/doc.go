// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23s17 provides a driver for the Microchip MCP23S17 16-bit SPI
// I/O expander.
//
// Up to eight devices can share one chip select when hardware addressing
// (IOCON.HAEN) is enabled. The registers are exposed raw, as a bit, or per pin
// as a gpio.PinIO.
//
// Only the IOCON.BANK=0 register layout is supported.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
package mcp23s17
