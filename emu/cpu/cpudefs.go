/*
   mipscore architectural constants.

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

import "fmt"

// Coprocessor 0 register indices (standard MIPS names).
const (
	CP0Index = iota
	CP0Random
	CP0EntryLo0
	CP0EntryLo1
	CP0Context
	CP0PageMask
	CP0Wired
	cp0_7reserved
	CP0BadVAddr
	CP0Count
	CP0EntryHi
	CP0Compare
	CP0Status
	CP0Cause
	CP0EPC
	CP0PRId
	CP0Config
	CP0LLAddr
	CP0WatchLo
	CP0WatchHi
	CP0XContext
	cp0_21reserved
	cp0_22reserved
	cp0_23reserved
	cp0_24reserved
	cp0_25reserved
	cp0_26reserved
	cp0_27reserved
	CP0TagLo
	CP0TagHi
	CP0ErrorEPC
	cp0_31reserved
)

// cop0Names supplements logging; grounded on gxemu's register name table
// (cpu_mips.c), kept only as a debug convenience, not an architectural
// requirement.
var cop0Names = [32]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "LLAddr", "WatchLo", "WatchHi", "XContext", "", "", "",
	"", "", "", "", "TagLo", "TagHi", "ErrorEPC", "",
}

// Status register bit positions.
const (
	StatusIEBit  = 0
	StatusEXLBit = 1
	StatusERLBit = 2
	StatusKSUBit = 3 // 2-bit field, bits 3:4
	StatusIM0Bit = 8 // 8-bit field, bits 8:15
	StatusBEVBit = 22
	StatusFRBit  = 26
	StatusCUBit  = 28 // 4-bit field, bits 28:31, coprocessor usable
)

const (
	statusIE  uint64 = 1 << StatusIEBit
	statusEXL uint64 = 1 << StatusEXLBit
	statusERL uint64 = 1 << StatusERLBit
	statusKSU uint64 = 0x3 << StatusKSUBit
	statusIM  uint64 = 0xff << StatusIM0Bit
	statusBEV uint64 = 1 << StatusBEVBit
	statusFR  uint64 = 1 << StatusFRBit
	statusCU0 uint64 = 1 << 28
	statusCU1 uint64 = 1 << 29
)

// Cause register layout.
const (
	causeExcCodeShift = 2
	causeExcCodeMask  = 0x1f << causeExcCodeShift
	causeIP0Shift     = 8
	causeIPMask       = 0xff << causeIP0Shift
	causeCEShift      = 28
	causeCEMask       = 0x3 << causeCEShift
	causeBDBit        = 31
)

// Exception codes (Cause.ExcCode values).
const (
	ExcInt  = 0  // Interrupt
	ExcMod  = 1  // TLB modification
	ExcTLBL = 2  // TLB miss, load/instruction-fetch
	ExcTLBS = 3  // TLB miss, store
	ExcAdEL = 4  // Address error, load/fetch
	ExcAdES = 5  // Address error, store
	ExcIBE  = 6  // Bus error, instruction fetch
	ExcDBE  = 7  // Bus error, data
	ExcSys  = 8  // Syscall
	ExcBp   = 9  // Breakpoint
	ExcRI   = 10 // Reserved instruction
	ExcCpU  = 11 // Coprocessor unusable
	ExcOv   = 12 // Arithmetic overflow
	ExcTr   = 13 // Trap
	ExcFPE  = 15 // Floating point
)

// irc is the "did something architectural happen" return value threaded
// through the decoder/interpreter instead of a Go error value (see
// SPEC_FULL.md §1, ambient error-handling section): ircNone means
// "continue normally", anything else is 1+ExcCode of the exception that
// was raised.
type irc = uint16

const ircNone irc = 0xffff

func excToIrc(code int) irc {
	return irc(code + 1)
}

func ircToExc(i irc) int {
	return int(i) - 1
}

// Continues reports whether an irc value returned from Step/ExecDecoded
// means "no exception, keep going" (exported so emu/dbt, which only
// sees the uint16 alias, can test the sentinel without duplicating it).
func Continues(code uint16) bool { return code == ircNone }

// ContinueCode returns the "no exception" sentinel, for callers outside
// this package that need to construct one (emu/dbt's runtime).
func ContinueCode() uint16 { return ircNone }

// PageMask values valid in CP0PageMask's mask field (bits 24:13), one
// per R4K-family page size from 4 KiB to 16 MiB (64 MiB variants carry
// an extra bit some R4K cores do not implement; omitted here).
var validPageMasks = map[uint64]bool{
	0x000: true, // 4 KiB
	0x003: true, // 16 KiB
	0x00f: true, // 64 KiB
	0x03f: true, // 256 KiB
	0x0ff: true, // 1 MiB
	0x3ff: true, // 4 MiB
	0xfff: true, // 16 MiB
}

// Delay-slot state machine (spec.md §3).
type delayState int

const (
	notDelayed delayState = iota
	toBeDelayed
	delayed
	exceptionInDelaySlot
)

// Access intent passed to the MMU.
type Intent int

const (
	IntentInstr Intent = iota
	IntentLoad
	IntentStore
)

// TranslateFlags modifies MMU behaviour for introspection/probing use.
type TranslateFlags uint8

const NoExceptions TranslateFlags = 1

func errUnknownCPUType(name string) error {
	return fmt.Errorf("unknown-cpu-type: %s", name)
}
