/*
   mipscore exception unit.

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

import "log/slog"

// excContext carries the extra facts raise() needs beyond the
// exception code itself (spec.md §4.E).
type excContext struct {
	vaddr    uint64
	coprocNr int
	refill   bool
	is64     bool
}

// raise implements the exception unit's five steps: record EPC/BD,
// write Cause, clear LL/rmw, pick the vector, and transition the
// delay-slot state machine. The caller's step() sees this as the irc
// return value, not a Go error (SPEC_FULL.md §1).
func (s *State) raise(code int, ctx excContext) irc {
	exl := s.statusBit(StatusEXLBit)
	inDelaySlot := s.curInDelaySlot

	if !exl {
		epc := s.pcOfLast
		if inDelaySlot {
			epc = s.branchPC
			s.cp0[CP0Cause] |= 1 << causeBDBit
		} else {
			s.cp0[CP0Cause] &^= 1 << causeBDBit
		}
		s.cp0[CP0EPC] = epc
	}

	s.cp0[CP0Cause] = (s.cp0[CP0Cause] &^ causeExcCodeMask) | (uint64(code) << causeExcCodeShift)
	s.cp0[CP0Cause] = (s.cp0[CP0Cause] &^ causeCEMask) | (uint64(ctx.coprocNr&0x3) << causeCEShift)

	s.rmwValid = false

	base := uint64(0x80000000)
	if s.statusBit(StatusBEVBit) {
		base = 0xBFC00200
	}

	var offset uint64
	switch s.variant.MMU {
	case MMUR3K:
		if (code == ExcTLBL || code == ExcTLBS) && !exl {
			offset = 0x000
		} else {
			offset = 0x080
		}
		// R3K rotates the 6-bit mode stack in Status left by 2.
		ksu := s.cp0[CP0Status] & 0x3f
		s.cp0[CP0Status] = (s.cp0[CP0Status] &^ 0x3f) | ((ksu << 2) | (ksu >> 4)) & 0x3f
	default:
		switch {
		case ctx.refill && !exl && !ctx.is64:
			offset = 0x000
		case ctx.refill && !exl && ctx.is64:
			offset = 0x080
		case code == ExcInt && s.cp0[CP0Cause]&(1<<23) != 0: // Cause.IV
			offset = 0x200
		default:
			offset = 0x180
		}
		s.setStatusBit(StatusEXLBit, true)
	}

	if inDelaySlot {
		s.delaySlot = exceptionInDelaySlot
	} else {
		s.delaySlot = notDelayed
	}
	s.nullifyNext = false

	s.pc = base + offset
	if debugCPU {
		slog.Debug("cpu: exception raised", "code", code, "state", s.String())
	}
	return excToIrc(code)
}

// AssertIRQ sets Cause.IP bit n (spec.md §4.E interrupts).
func (s *State) AssertIRQ(n uint) {
	s.cp0[CP0Cause] |= 1 << (causeIP0Shift + n)
}

// DeassertIRQ clears Cause.IP bit n.
func (s *State) DeassertIRQ(n uint) {
	s.cp0[CP0Cause] &^= 1 << (causeIP0Shift + n)
}

// checkInterrupts implements the per-dispatch-tick interrupt check:
// enabled = IE & !EXL & !ERL; pending = Status.IM & Cause.IP.
func (s *State) checkInterrupts() irc {
	enabled := s.statusBit(StatusIEBit) && !s.statusBit(StatusEXLBit) && !s.statusBit(StatusERLBit)
	if !enabled {
		return ircNone
	}
	im := (s.cp0[CP0Status] & statusIM) >> StatusIM0Bit
	ip := (s.cp0[CP0Cause] & causeIPMask) >> causeIP0Shift
	if im&ip == 0 {
		return ircNone
	}
	return s.raise(ExcInt, excContext{})
}
