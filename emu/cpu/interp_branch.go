/*
   mipscore branch, jump, and trap instruction handlers.

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

// takeBranch arms the delay-slot state machine: the branch's own target
// is recorded, and the instruction immediately following the branch
// (the delay slot) executes unconditionally on the next Step before the
// jump lands (spec.md §4.D).
func (s *State) takeBranch(target uint64) {
	s.delaySlot = toBeDelayed
	s.delayJmpAddr = target
	s.branchPC = s.pcOfLast
}

// nullifyDelaySlot implements the "likely" branch family: when the
// condition is false the delay slot is skipped rather than executed,
// with no side effect at all (spec.md §8 scenario 4).
func (s *State) nullifyDelaySlot() {
	s.nullifyNext = true
}

func branchTarget(pc uint64, imm16 uint32) uint64 {
	return pc + 4 + (signExt16(imm16) << 2)
}

func opJ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	target := (s.pcOfLast+4)&0xfffffffff0000000 | uint64(f.imm26)<<2
	s.takeBranch(target)
	return ircNone
}

func opJAL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(31, s.pcOfLast+8)
	target := (s.pcOfLast+4)&0xfffffffff0000000 | uint64(f.imm26)<<2
	s.takeBranch(target)
	return ircNone
}

func opJR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.takeBranch(s.ReadGPR(uint(f.rs)))
	return ircNone
}

func opJALR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	link := f.rd
	target := s.ReadGPR(uint(f.rs))
	s.WriteGPR(uint(link), s.pcOfLast+8)
	s.takeBranch(target)
	return ircNone
}

func opBEQ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if s.ReadGPR(uint(f.rs)) == s.ReadGPR(uint(f.rt)) {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBNE(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if s.ReadGPR(uint(f.rs)) != s.ReadGPR(uint(f.rt)) {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBLEZ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) <= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBGTZ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) > 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBEQL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if s.ReadGPR(uint(f.rs)) == s.ReadGPR(uint(f.rt)) {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBNEL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if s.ReadGPR(uint(f.rs)) != s.ReadGPR(uint(f.rt)) {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBLEZL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) <= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBGTZL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) > 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBLTZ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) < 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBGEZ(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) >= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBLTZL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) < 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBGEZL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	if int64(s.ReadGPR(uint(f.rs))) >= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBLTZAL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(31, s.pcOfLast+8)
	if int64(s.ReadGPR(uint(f.rs))) < 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBGEZAL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(31, s.pcOfLast+8)
	if int64(s.ReadGPR(uint(f.rs))) >= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	}
	return ircNone
}

func opBLTZALL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(31, s.pcOfLast+8)
	if int64(s.ReadGPR(uint(f.rs))) < 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opBGEZALL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(31, s.pcOfLast+8)
	if int64(s.ReadGPR(uint(f.rs))) >= 0 {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else {
		s.nullifyDelaySlot()
	}
	return ircNone
}

func opSYSCALL(s *State, _ uint32) irc {
	return s.raise(ExcSys, excContext{})
}

func opBREAK(s *State, _ uint32) irc {
	return s.raise(ExcBp, excContext{})
}
