/*
   mipscore CPU-related config directives: CPU, MEMSIZE, TLBSIZE.

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
package cpu

import (
	"strconv"
	"strings"

	config "github.com/gxemu-go/mipscore/config/configparser"
)

// MachineConfig accumulates the machine-description directives this
// package registers, read back by emu/core once LoadConfigFile returns
// (spec.md §6 host API: configuration precedes Machine construction).
type MachineConfig struct {
	Variant    *Variant
	BigEndian  bool
	MemSize    uint32
	TLBEntries int // 0 means "use the variant's default"
}

// Config is the single machine-description accumulator; config files
// describe one machine, so one package-level instance (mirroring the
// teacher's config package globals) is sufficient.
var Config MachineConfig

func init() {
	config.RegisterModel("CPU", config.TypeOptions, setCPU)
	config.RegisterOption("MEMSIZE", setMemSize)
	config.RegisterOption("TLBSIZE", setTLBSize)
}

func setCPU(_ uint16, value string, options []config.Option) error {
	fields := strings.Fields(value)
	name := value
	endian := ""
	if len(fields) > 0 {
		name = fields[0]
	}
	if len(fields) > 1 {
		endian = strings.ToUpper(fields[1])
	}
	if len(options) > 0 {
		endian = strings.ToUpper(options[0].Name)
	}
	v, err := variantByName(strings.ToUpper(name))
	if err != nil {
		return err
	}
	Config.Variant = v
	Config.BigEndian = endian != "LE"
	return nil
}

func setMemSize(_ uint16, value string, _ []config.Option) error {
	n, err := parseSizeSuffix(value)
	if err != nil {
		return err
	}
	Config.MemSize = n
	return nil
}

func setTLBSize(_ uint16, value string, _ []config.Option) error {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return err
	}
	Config.TLBEntries = int(n)
	return nil
}

// Resolve returns the variant New() should use, applying a TLBSIZE
// override on top of whatever CPU registered (a copy, since Variant
// constructors are shared by multiple machines in the same process).
func (c MachineConfig) Resolve() *Variant {
	if c.Variant == nil {
		return nil
	}
	v := *c.Variant
	if c.TLBEntries > 0 {
		v.TLBEntries = c.TLBEntries
	}
	return &v
}

// parseSizeSuffix parses a size like "64M", "512K", or a bare byte count.
func parseSizeSuffix(value string) (uint32, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	mult := uint64(1)
	switch {
	case strings.HasSuffix(value, "M"):
		mult = 1 << 20
		value = value[:len(value)-1]
	case strings.HasSuffix(value, "K"):
		mult = 1 << 10
		value = value[:len(value)-1]
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n * mult), nil
}
