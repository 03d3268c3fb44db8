// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pifacecad is a container for the PiFace Control and Display board
// driver and its test doubles.
//
// The driver is in the pifacecad subpackage, on top of the MCP23S17 driver in
// mcp23s17. hd44780sim, mcp23s17/mcp23s17test and pifacecad/pifacecadtest
// let the driver run without the hardware.
package pifacecad
