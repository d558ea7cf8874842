/*
   mipscore ALU instruction handlers.

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

// sext32 sign-extends the low 32 bits of v into a 64-bit result, the
// rule spec.md §4.D item 5 requires for every 32-bit ALU op.
func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

func opNOP(_ *State, _ uint32) irc { return ircNone }

func opADD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int32(s.ReadGPR(uint(f.rs)))
	b := int32(s.ReadGPR(uint(f.rt)))
	r := a + b
	if overflowAdd32(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rd), sext32(uint32(r)))
	return ircNone
}

func opADDU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	r := uint32(s.ReadGPR(uint(f.rs))) + uint32(s.ReadGPR(uint(f.rt)))
	s.WriteGPR(uint(f.rd), sext32(r))
	return ircNone
}

func opSUB(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int32(s.ReadGPR(uint(f.rs)))
	b := int32(s.ReadGPR(uint(f.rt)))
	r := a - b
	if overflowSub32(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rd), sext32(uint32(r)))
	return ircNone
}

func opSUBU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	r := uint32(s.ReadGPR(uint(f.rs))) - uint32(s.ReadGPR(uint(f.rt)))
	s.WriteGPR(uint(f.rd), sext32(r))
	return ircNone
}

func opAND(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rs))&s.ReadGPR(uint(f.rt)))
	return ircNone
}

func opOR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rs))|s.ReadGPR(uint(f.rt)))
	return ircNone
}

func opXOR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rs))^s.ReadGPR(uint(f.rt)))
	return ircNone
}

func opNOR(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), ^(s.ReadGPR(uint(f.rs)) | s.ReadGPR(uint(f.rt))))
	return ircNone
}

func opSLT(s *State, instr uint32) irc {
	f := decodeFields(instr)
	v := uint64(0)
	if int64(s.ReadGPR(uint(f.rs))) < int64(s.ReadGPR(uint(f.rt))) {
		v = 1
	}
	s.WriteGPR(uint(f.rd), v)
	return ircNone
}

func opSLTU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	v := uint64(0)
	if s.ReadGPR(uint(f.rs)) < s.ReadGPR(uint(f.rt)) {
		v = 1
	}
	s.WriteGPR(uint(f.rd), v)
	return ircNone
}

func opDADD(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(s.ReadGPR(uint(f.rs)))
	b := int64(s.ReadGPR(uint(f.rt)))
	r := a + b
	if overflowAdd64(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rd), uint64(r))
	return ircNone
}

func opDADDU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rs))+s.ReadGPR(uint(f.rt)))
	return ircNone
}

func opDSUB(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(s.ReadGPR(uint(f.rs)))
	b := int64(s.ReadGPR(uint(f.rt)))
	r := a - b
	if overflowSub64(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rd), uint64(r))
	return ircNone
}

func opDSUBU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rs))-s.ReadGPR(uint(f.rt)))
	return ircNone
}

func overflowAdd32(a, b, r int32) bool {
	return (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0)
}

func overflowSub32(a, b, r int32) bool {
	return (a >= 0) != (b >= 0) && (r >= 0) != (a >= 0)
}

func overflowAdd64(a, b, r int64) bool {
	return (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0)
}

func overflowSub64(a, b, r int64) bool {
	return (a >= 0) != (b >= 0) && (r >= 0) != (a >= 0)
}

// Shifts. SLL $0,$0,0 is the canonical encoding for NOP, but opNOP is
// also wired directly for CACHE; SLL still needs its own handler since
// sa/rd may be non-zero.
func opSLL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), sext32(uint32(s.ReadGPR(uint(f.rt)))<<f.sa))
	return ircNone
}

func opSRL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), sext32(uint32(s.ReadGPR(uint(f.rt)))>>f.sa))
	return ircNone
}

func opSRA(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), sext32(uint32(int32(uint32(s.ReadGPR(uint(f.rt))))>>f.sa)))
	return ircNone
}

func opSLLV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x1f
	s.WriteGPR(uint(f.rd), sext32(uint32(s.ReadGPR(uint(f.rt)))<<sh))
	return ircNone
}

func opSRLV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x1f
	s.WriteGPR(uint(f.rd), sext32(uint32(s.ReadGPR(uint(f.rt)))>>sh))
	return ircNone
}

func opSRAV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x1f
	s.WriteGPR(uint(f.rd), sext32(uint32(int32(uint32(s.ReadGPR(uint(f.rt))))>>sh)))
	return ircNone
}

func opDSLLV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x3f
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))<<sh)
	return ircNone
}

func opDSRLV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x3f
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))>>sh)
	return ircNone
}

func opDSRAV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	sh := s.ReadGPR(uint(f.rs)) & 0x3f
	s.WriteGPR(uint(f.rd), uint64(int64(s.ReadGPR(uint(f.rt)))>>sh))
	return ircNone
}

func opDSLL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))<<f.sa)
	return ircNone
}

func opDSRL(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))>>f.sa)
	return ircNone
}

func opDSRA(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), uint64(int64(s.ReadGPR(uint(f.rt)))>>f.sa))
	return ircNone
}

func opDSLL32(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))<<(f.sa+32))
	return ircNone
}

func opDSRL32(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.ReadGPR(uint(f.rt))>>(f.sa+32))
	return ircNone
}

func opDSRA32(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), uint64(int64(s.ReadGPR(uint(f.rt)))>>(f.sa+32)))
	return ircNone
}

// Multiply/divide. MULT/DIV write HI/LO as sign-extended 32-bit
// quantities (spec.md §4.D item 5); DMULT/DMULTU decompose a 128-bit
// product into HI:LO directly.
func opMULT(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(int32(s.ReadGPR(uint(f.rs))))
	b := int64(int32(s.ReadGPR(uint(f.rt))))
	p := a * b
	s.lo = sext32(uint32(p))
	s.hi = sext32(uint32(p >> 32))
	if s.variant.MultWritesRD && f.rd != 0 {
		s.WriteGPR(uint(f.rd), s.lo)
	}
	return ircNone
}

func opMULTU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := uint64(uint32(s.ReadGPR(uint(f.rs))))
	b := uint64(uint32(s.ReadGPR(uint(f.rt))))
	p := a * b
	s.lo = sext32(uint32(p))
	s.hi = sext32(uint32(p >> 32))
	if s.variant.MultWritesRD && f.rd != 0 {
		s.WriteGPR(uint(f.rd), s.lo)
	}
	return ircNone
}

func opDIV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int32(s.ReadGPR(uint(f.rs)))
	b := int32(s.ReadGPR(uint(f.rt)))
	if b == 0 {
		s.hi, s.lo = 0, 0
		return ircNone
	}
	s.lo = sext32(uint32(a / b))
	s.hi = sext32(uint32(a % b))
	return ircNone
}

func opDIVU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := uint32(s.ReadGPR(uint(f.rs)))
	b := uint32(s.ReadGPR(uint(f.rt)))
	if b == 0 {
		s.hi, s.lo = 0, 0
		return ircNone
	}
	s.lo = sext32(a / b)
	s.hi = sext32(a % b)
	return ircNone
}

func opDMULT(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(s.ReadGPR(uint(f.rs)))
	b := int64(s.ReadGPR(uint(f.rt)))
	hi, lo := mul128Signed(a, b)
	s.hi, s.lo = hi, lo
	return ircNone
}

func opDMULTU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := s.ReadGPR(uint(f.rs))
	b := s.ReadGPR(uint(f.rt))
	hi, lo := mul128Unsigned(a, b)
	s.hi, s.lo = hi, lo
	return ircNone
}

func opDDIV(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(s.ReadGPR(uint(f.rs)))
	b := int64(s.ReadGPR(uint(f.rt)))
	if b == 0 {
		s.hi, s.lo = 0, 0
		return ircNone
	}
	s.lo = uint64(a / b)
	s.hi = uint64(a % b)
	return ircNone
}

func opDDIVU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := s.ReadGPR(uint(f.rs))
	b := s.ReadGPR(uint(f.rt))
	if b == 0 {
		s.hi, s.lo = 0, 0
		return ircNone
	}
	s.lo = a / b
	s.hi = a % b
	return ircNone
}

func mul128Unsigned(a, b uint64) (hi, lo uint64) {
	const mask32 = 0xffffffff
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32
	t := aLo * bLo
	lo = t & mask32
	carry := t >> 32
	t = aHi*bLo + carry
	mid := t & mask32
	carry = t >> 32
	t2 := aLo * bHi
	mid += t2 & mask32
	lo |= (mid & mask32) << 32
	carry += mid >> 32
	carry += t2 >> 32
	hi = aHi*bHi + carry
	return hi, lo
}

func mul128Signed(a, b int64) (hi, lo uint64) {
	neg := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo = mul128Unsigned(ua, ub)
	if neg {
		lo = ^lo
		hi = ^hi
		lo++
		if lo == 0 {
			hi++
		}
	}
	return hi, lo
}

func opMFHI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.hi)
	return ircNone
}

func opMFLO(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rd), s.lo)
	return ircNone
}

func opMTHI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.hi = s.ReadGPR(uint(f.rs))
	return ircNone
}

func opMTLO(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.lo = s.ReadGPR(uint(f.rs))
	return ircNone
}

// Immediate-form ALU ops.
func opADDI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int32(s.ReadGPR(uint(f.rs)))
	b := int32(int16(f.imm16))
	r := a + b
	if overflowAdd32(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rt), sext32(uint32(r)))
	return ircNone
}

func opADDIU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	r := uint32(s.ReadGPR(uint(f.rs))) + uint32(int32(int16(f.imm16)))
	s.WriteGPR(uint(f.rt), sext32(r))
	return ircNone
}

func opSLTI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	v := uint64(0)
	if int64(s.ReadGPR(uint(f.rs))) < int64(int16(f.imm16)) {
		v = 1
	}
	s.WriteGPR(uint(f.rt), v)
	return ircNone
}

func opSLTIU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	v := uint64(0)
	if s.ReadGPR(uint(f.rs)) < signExt16(f.imm16) {
		v = 1
	}
	s.WriteGPR(uint(f.rt), v)
	return ircNone
}

func opANDI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rt), s.ReadGPR(uint(f.rs))&uint64(f.imm16))
	return ircNone
}

func opORI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rt), s.ReadGPR(uint(f.rs))|uint64(f.imm16))
	return ircNone
}

func opXORI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rt), s.ReadGPR(uint(f.rs))^uint64(f.imm16))
	return ircNone
}

func opLUI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rt), sext32(f.imm16<<16))
	return ircNone
}

func opDADDI(s *State, instr uint32) irc {
	f := decodeFields(instr)
	a := int64(s.ReadGPR(uint(f.rs)))
	b := int64(int16(f.imm16))
	r := a + b
	if overflowAdd64(a, b, r) {
		return s.raise(ExcOv, excContext{})
	}
	s.WriteGPR(uint(f.rt), uint64(r))
	return ircNone
}

func opDADDIU(s *State, instr uint32) irc {
	f := decodeFields(instr)
	s.WriteGPR(uint(f.rt), s.ReadGPR(uint(f.rs))+signExt16(f.imm16))
	return ircNone
}
