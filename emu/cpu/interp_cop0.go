/*
   mipscore coprocessor-0 instruction handlers (MFC0/MTC0/TLB ops/ERET).

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

// coFunct values, decoded within the CO (rs bit 4 set) sub-form.
const (
	coFunctTLBR  = 0x01
	coFunctTLBWI = 0x02
	coFunctTLBWR = 0x06
	coFunctTLBP  = 0x08
	coFunctERET  = 0x18
	coFunctWait  = 0x20
)

// dispatchCop0 decodes a COP0 instruction (spec.md §4.D item 4): the rs
// field selects MF/DMF/MT/DMT versus a CO function decoded by funct.
func dispatchCop0(s *State, instr uint32) irc {
	if !s.cop0Usable() {
		return s.raise(ExcCpU, excContext{coprocNr: 0})
	}
	f := decodeFields(instr)
	switch {
	case f.rs == copMF:
		s.WriteGPR(uint(f.rt), sext32(uint32(s.ReadCOP0(int(f.rd), int(f.funct&0x7)))))
		return ircNone
	case f.rs == copDMF:
		s.WriteGPR(uint(f.rt), s.ReadCOP0(int(f.rd), int(f.funct&0x7)))
		return ircNone
	case f.rs == copMT:
		s.WriteCOP0(int(f.rd), int(f.funct&0x7), uint64(uint32(s.ReadGPR(uint(f.rt)))))
		return ircNone
	case f.rs == copDMT:
		s.WriteCOP0(int(f.rd), int(f.funct&0x7), s.ReadGPR(uint(f.rt)))
		return ircNone
	case f.rs&0x10 != 0: // CO
		return s.execCop0Func(f.funct)
	default:
		return s.raise(ExcRI, excContext{})
	}
}

// cop0Usable reports whether COP0 is accessible: always in kernel mode,
// gated by Status.CU0 otherwise.
func (s *State) cop0Usable() bool {
	ksu := (s.cp0[CP0Status] >> StatusKSUBit) & 0x3
	if ksu == 0 || s.statusBit(StatusEXLBit) || s.statusBit(StatusERLBit) {
		return true
	}
	return s.cp0[CP0Status]&statusCU0 != 0
}

func (s *State) execCop0Func(funct uint32) irc {
	switch funct {
	case coFunctTLBR:
		s.tlbRead()
	case coFunctTLBWI:
		s.tlbWrite(int(s.cp0[CP0Index] & 0x3f))
	case coFunctTLBWR:
		s.tlbWriteRandom()
	case coFunctTLBP:
		s.tlbProbe()
	case coFunctERET:
		s.doERET()
	case coFunctWait:
		// low-power wait; interpreted as a no-op since this model has no
		// idle scheduling concept of its own (spec.md Non-goals).
	default:
		return s.raise(ExcRI, excContext{})
	}
	return ircNone
}

// doERET implements ERET (spec.md §4.E): restore PC from ErrorEPC or EPC
// depending on Status.ERL, clear EXL/ERL, and drop any pending LL
// reservation.
func (s *State) doERET() {
	s.rmwValid = false
	if s.statusBit(StatusERLBit) {
		s.pc = s.cp0[CP0ErrorEPC]
		s.setStatusBit(StatusERLBit, false)
	} else {
		s.pc = s.cp0[CP0EPC]
		s.setStatusBit(StatusEXLBit, false)
	}
	s.delaySlot = notDelayed
	s.nullifyNext = false
	s.pcSet = true
}
