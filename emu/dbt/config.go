/*
   mipscore DBT config directives: JIT, FUEL.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package dbt

import (
	"fmt"
	"strconv"

	config "github.com/gxemu-go/mipscore/config/configparser"
)

// MachineConfig accumulates this package's config directives, read back
// by emu/core when it builds a Runtime for a machine.
type MachineConfig struct {
	JIT       bool // on by default; JIT OFF falls back to pure interpretation
	FuelSlice int  // 0 means "use DefaultFuel"
	CacheSize int  // 0 means "use NewCache's default"
}

// Config is the single JIT/FUEL accumulator, following the pattern of
// emu/cpu.Config: one config file describes one machine.
var Config = MachineConfig{JIT: true}

func init() {
	config.RegisterOption("JIT", setJIT)
	config.RegisterOption("FUEL", setFuel)
}

func setJIT(_ uint16, value string, _ []config.Option) error {
	switch value {
	case "", "ON":
		Config.JIT = true
	case "OFF":
		Config.JIT = false
	default:
		return fmt.Errorf("JIT: unknown value %q, want ON or OFF", value)
	}
	return nil
}

func setFuel(_ uint16, value string, _ []config.Option) error {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return err
	}
	Config.FuelSlice = int(n)
	return nil
}

// Fuel returns the configured burst size, falling back to DefaultFuel
// when FUEL was never set.
func (c MachineConfig) Fuel() int {
	if c.FuelSlice > 0 {
		return c.FuelSlice
	}
	return DefaultFuel
}
