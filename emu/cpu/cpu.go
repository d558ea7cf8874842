/*
   mipscore CPU core: architectural state and the interpreter dispatch loop.

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
	"log/slog"

	"github.com/gxemu-go/mipscore/emu/memory"
)

// State is one emulated MIPS CPU: register file, COP0 bank, TLB, and
// FPU. It is an exported struct with a constructor rather than a
// package-level singleton (see DESIGN.md) because both the co-simulation
// invariant (spec.md §8) and SMP round-robin (§5) require more than one
// independent instance to exist at once.
type State struct {
	gpr [32]uint64
	hi, lo uint64
	pc     uint64

	delaySlot    delayState
	delayJmpAddr uint64
	nullifyNext  bool
	branchPC     uint64 // address of the branch whose delay slot is pending/executing
	curInDelaySlot bool
	pcOfLast     uint64 // address of the instruction currently retiring

	cp0        [32]uint64
	cp0Config1 uint64
	tlb        []TLBEntry

	variant   *Variant
	bigEndian bool

	rmwValid bool
	rmwAddr  uint64
	rmwLen   uint32

	pcSet bool // true when the just-executed instruction (ERET) set pc itself

	fpr  [32]uint64
	fcsr uint32

	mem *memory.Memory

	invalidator TranslationInvalidator

	halted bool
}

// New constructs a CPU around variant and memory, in the post-reset
// state spec.md §3 describes: TLB and COP0 zeroed except Status.BEV,
// translation cache (owned by emu/dbt) not yet consulted.
func New(variant *Variant, bigEndian bool, mem *memory.Memory) (*State, error) {
	if variant == nil {
		return nil, errUnknownCPUType("<nil>")
	}
	s := &State{
		variant:   variant,
		bigEndian: bigEndian,
		mem:       mem,
		tlb:       make([]TLBEntry, variant.TLBEntries),
	}
	s.cp0[CP0Status] = statusBEV
	s.cp0[CP0PRId] = variantPRId(variant)
	return s, nil
}

func variantPRId(v *Variant) uint64 {
	switch v.MMU {
	case MMUR3K:
		return 0x0200
	case MMUR10K:
		return 0x0900
	case MMUR4100:
		return 0x0b00
	case MMUGeneric64:
		return 0x0001
	default:
		return 0x0400
	}
}

// SetPC sets the program counter (host API, spec.md §6 cpu_set_pc).
func (s *State) SetPC(pc uint64) { s.pc = pc }

// PC returns the current program counter.
func (s *State) PC() uint64 { return s.pc }

// Halted reports whether the CPU executed HALT-equivalent state (this
// module has no HALT opcode; exposed for front ends that stop on an
// unrecoverable host-resource error, spec.md §7.4).
func (s *State) Halted() bool { return s.halted }

// fetch reads one instruction word via the MMU and physical memory,
// byte-swapping it into host order per the CPU's configured endianness
// (spec.md §4.D steps 2-3).
func (s *State) fetch(vaddr uint64) (uint32, irc) {
	if vaddr&0x3 != 0 {
		return 0, s.raise(ExcAdEL, excContext{vaddr: vaddr})
	}
	paddr, ok := s.Translate(vaddr, IntentInstr, 0)
	if !ok {
		return 0, ircFromLastRaise(s)
	}
	var buf [4]byte
	if !s.mem.ReadBytes(uint32(paddr), buf[:]) {
		return 0, s.raise(ExcIBE, excContext{vaddr: vaddr})
	}
	word := assembleWord(buf, s.bigEndian)
	return word, ircNone
}

// ircFromLastRaise lets fetch/load/store report the exception that
// Translate already raised internally without duplicating raise()'s
// bookkeeping; Translate always calls raise() itself before returning
// ok=false (unless NoExceptions was passed, which these callers never do).
func ircFromLastRaise(s *State) irc {
	return excToIrc(int(s.cp0[CP0Cause]&causeExcCodeMask) >> causeExcCodeShift)
}

func assembleWord(b [4]byte, bigEndian bool) uint32 {
	return AssembleWord(b, bigEndian)
}

// AssembleWord byte-swaps a 4-byte physical-memory span into an
// instruction word per the given endianness, exactly as fetch does.
// Exported so emu/dbt's block builder, which reads raw memory directly
// rather than through fetch, assembles words identically.
func AssembleWord(b [4]byte, bigEndian bool) uint32 {
	if bigEndian {
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}

// BigEndian reports the CPU's configured instruction/data byte order.
func (s *State) BigEndian() bool { return s.bigEndian }

// Step executes exactly one instruction in the interpreter's view
// (spec.md §4.D), implementing the nine-step flow: delay-slot handling,
// fetch, byte-swap/nullify, decode, execute, and PC advance.
func (s *State) Step() irc {
	jumpPending, jumpTarget := s.beginStep()

	if code := s.checkInterrupts(); code != ircNone {
		return code
	}

	word, code := s.fetch(s.pc)
	if code != ircNone {
		return code
	}

	return s.finishStep(word, jumpPending, jumpTarget)
}

// beginStep consumes a pending delayed-jump set up by the previous
// step's branch, the half of the nine-step flow (spec.md §4.D) shared
// between the plain interpreter (Step) and the DBT runtime, which
// pre-decodes instructions and so re-enters mid-flow (ExecDecoded).
func (s *State) beginStep() (jumpPending bool, jumpTarget uint64) {
	s.pcOfLast = s.pc
	s.curInDelaySlot = false
	if s.delaySlot == delayed {
		jumpPending = true
		jumpTarget = s.delayJmpAddr
		s.delaySlot = notDelayed
		s.curInDelaySlot = true
	}
	return jumpPending, jumpTarget
}

// finishStep executes an already-fetched instruction word and performs
// the nullify/dispatch/advance tail of the nine-step flow. Exported via
// ExecDecoded so the DBT runtime can drive pre-decoded blocks without
// re-fetching or re-checking interrupts on every cached instruction.
func (s *State) finishStep(word uint32, jumpPending bool, jumpTarget uint64) irc {
	if s.nullifyNext {
		s.nullifyNext = false
		word = 0 // canonical SLL $0,$0,0 encoding: architectural nop
	}

	f := decodeFields(word)
	code := primaryTable[f.hi6](s, word)

	s.tickCount()

	if code != ircNone {
		return code
	}

	if s.pcSet {
		s.pcSet = false
	} else if jumpPending {
		s.pc = jumpTarget
	} else {
		s.pc += 4
	}
	if s.delaySlot == toBeDelayed {
		s.delaySlot = delayed
	}
	return ircNone
}

// ExecDecoded executes one pre-fetched instruction word as if retired by
// Step, without touching physical memory or the MMU again: the DBT
// translator caches the raw word once per block slot and replays it on
// every chunk re-entry (spec.md §4.F/§11 Open Question 1).
func (s *State) ExecDecoded(word uint32) irc {
	jumpPending, jumpTarget := s.beginStep()
	return s.finishStep(word, jumpPending, jumpTarget)
}

// PCOfLast returns the address of the instruction currently retiring
// (valid only while inside ExecDecoded/Step); exposed so the DBT block
// builder can read back branchPC/PC without needing a cpu-internal field.
func (s *State) PCOfLast() uint64 { return s.pcOfLast }

// Run executes up to n instructions, stopping early on halt. It
// returns the number actually executed, matching the host API's
// cpu_run contract (spec.md §6); reasons beyond "completed" are left to
// the DBT runtime, which wraps Step in its fuel-bounded loop.
func (s *State) Run(n int) int {
	i := 0
	for ; i < n; i++ {
		if s.halted {
			break
		}
		s.Step()
	}
	return i
}

func logDebugf(format string, args ...any) {
	if debugCPU {
		slog.Debug(format, args...)
	}
}
