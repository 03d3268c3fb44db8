// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780sim models an HD44780 character LCD controller at the pin
// level.
//
// The Controller is fed the state of the RS, R/W and D4..D7 lines on each
// falling edge of E, decodes the instruction set and keeps the display data
// RAM, the character generator RAM and the address counter the way the chip
// does. Render draws the current content as an image and Terminal prints it
// with ANSI colors, which permits testing text layouts without a display.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780sim
