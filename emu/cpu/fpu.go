/*
   mipscore coprocessor-1 (FPU): IEEE-754 single/double arithmetic, the
   condition-code/control register, and COP1 load/store/branch handlers.

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

import "math"

// fcsr bit layout (subset actually modelled: rounding mode and the
// single legacy condition-code bit, FCC0; later ISA levels add FCC1-7
// but no variant this core models uses them).
const (
	fcsrFCC0Bit = 23
	fcsrRMMask  = 0x3
)

const (
	fpFmtSingle = 16
	fpFmtDouble = 17
	fpFmtWord   = 20
	fpFmtLong   = 21
)

func (s *State) fpUsable() bool {
	ksu := (s.cp0[CP0Status] >> StatusKSUBit) & 0x3
	if ksu == 0 || s.statusBit(StatusEXLBit) || s.statusBit(StatusERLBit) {
		return true
	}
	return s.cp0[CP0Status]&statusCU1 != 0
}

func (s *State) readFCC() bool {
	return s.fcsr&(1<<fcsrFCC0Bit) != 0
}

func (s *State) setFCC(v bool) {
	if v {
		s.fcsr |= 1 << fcsrFCC0Bit
	} else {
		s.fcsr &^= 1 << fcsrFCC0Bit
	}
}

func (s *State) readFPRSingle(i uint32) float32 {
	return math.Float32frombits(uint32(s.fpr[i]))
}

func (s *State) writeFPRSingle(i uint32, v float32) {
	s.fpr[i] = uint64(math.Float32bits(v))
}

func (s *State) readFPRDouble(i uint32) float64 {
	if !s.variant.HasFPU64 && i%2 != 0 {
		return math.Float64frombits(s.fpr[i-1] | s.fpr[i]<<32)
	}
	return math.Float64frombits(s.fpr[i])
}

func (s *State) writeFPRDouble(i uint32, v float64) {
	bits := math.Float64bits(v)
	if !s.variant.HasFPU64 && i%2 != 0 {
		s.fpr[i-1] = bits & 0xffffffff
		s.fpr[i] = bits >> 32
		return
	}
	s.fpr[i] = bits
}

// dispatchCop1 decodes a COP1 instruction: rs selects MF/DMF/CF/MT/DMT/
// CT/BC versus an arithmetic opcode decoded by fmt+funct (spec.md §4.H).
func dispatchCop1(s *State, instr uint32) irc {
	if !s.fpUsable() {
		return s.raise(ExcCpU, excContext{coprocNr: 1})
	}
	f := decodeFields(instr)
	switch f.rs {
	case copMF:
		s.WriteGPR(uint(f.rt), sext32(uint32(s.fpr[f.rd])))
		return ircNone
	case copDMF:
		s.WriteGPR(uint(f.rt), s.fpr[f.rd])
		return ircNone
	case copMT:
		s.fpr[f.rd] = uint64(uint32(s.ReadGPR(uint(f.rt))))
		return ircNone
	case copDMT:
		s.fpr[f.rd] = s.ReadGPR(uint(f.rt))
		return ircNone
	case copCF:
		if f.rd == 31 {
			s.WriteGPR(uint(f.rt), sext32(s.fcsr))
		} else {
			s.WriteGPR(uint(f.rt), 0)
		}
		return ircNone
	case copCT:
		if f.rd == 31 {
			s.fcsr = uint32(s.ReadGPR(uint(f.rt)))
		}
		return ircNone
	case copBC:
		return s.execBC1(f)
	default:
		return s.execCop1Arith(f)
	}
}

func (s *State) execBC1(f instrFields) irc {
	taken := s.readFCC()
	likely := f.rt&0x2 != 0
	if f.rt&0x1 == 0 {
		taken = !taken
	}
	if taken {
		s.takeBranch(branchTarget(s.pcOfLast, f.imm16))
	} else if likely {
		s.nullifyDelaySlot()
	}
	return ircNone
}

const (
	cop1FuncAdd   = 0x00
	cop1FuncSub   = 0x01
	cop1FuncMul   = 0x02
	cop1FuncDiv   = 0x03
	cop1FuncSqrt  = 0x04
	cop1FuncAbs   = 0x05
	cop1FuncMov   = 0x06
	cop1FuncNeg   = 0x07
	cop1FuncCvtS  = 0x20
	cop1FuncCvtD  = 0x21
	cop1FuncCvtW  = 0x24
	cop1FuncCvtL  = 0x25
	cop1FuncCEq   = 0x32
	cop1FuncCLt   = 0x3c
	cop1FuncCLe   = 0x3e
)

// execCop1Arith implements the single/double-format arithmetic and
// compare opcodes; word/long conversions use Go's float-to-integer
// conversion, which truncates toward zero whatever FCSR.RM holds, and
// this core does not model subnormal/NaN signalling beyond what Go's
// math package provides.
func (s *State) execCop1Arith(f instrFields) irc {
	fmt := f.rs
	funct := f.funct
	if fmt == fpFmtSingle {
		a := s.readFPRSingle(f.rd)
		b := s.readFPRSingle(f.rt)
		switch funct {
		case cop1FuncAdd:
			s.writeFPRSingle(sa(f), a+b)
		case cop1FuncSub:
			s.writeFPRSingle(sa(f), a-b)
		case cop1FuncMul:
			s.writeFPRSingle(sa(f), a*b)
		case cop1FuncDiv:
			s.writeFPRSingle(sa(f), a/b)
		case cop1FuncSqrt:
			s.writeFPRSingle(sa(f), float32(math.Sqrt(float64(a))))
		case cop1FuncAbs:
			s.writeFPRSingle(sa(f), float32(math.Abs(float64(a))))
		case cop1FuncMov:
			s.writeFPRSingle(sa(f), a)
		case cop1FuncNeg:
			s.writeFPRSingle(sa(f), -a)
		case cop1FuncCvtD:
			s.writeFPRDouble(sa(f), float64(a))
		case cop1FuncCvtW:
			s.fpr[sa(f)] = uint64(uint32(int32(a)))
		case cop1FuncCvtL:
			s.fpr[sa(f)] = uint64(int64(a))
		case cop1FuncCEq:
			s.setFCC(a == b)
		case cop1FuncCLt:
			s.setFCC(a < b)
		case cop1FuncCLe:
			s.setFCC(a <= b)
		default:
			return s.raise(ExcRI, excContext{})
		}
		return ircNone
	}
	if fmt == fpFmtDouble {
		a := s.readFPRDouble(f.rd)
		b := s.readFPRDouble(f.rt)
		switch funct {
		case cop1FuncAdd:
			s.writeFPRDouble(sa(f), a+b)
		case cop1FuncSub:
			s.writeFPRDouble(sa(f), a-b)
		case cop1FuncMul:
			s.writeFPRDouble(sa(f), a*b)
		case cop1FuncDiv:
			s.writeFPRDouble(sa(f), a/b)
		case cop1FuncSqrt:
			s.writeFPRDouble(sa(f), math.Sqrt(a))
		case cop1FuncAbs:
			s.writeFPRDouble(sa(f), math.Abs(a))
		case cop1FuncMov:
			s.writeFPRDouble(sa(f), a)
		case cop1FuncNeg:
			s.writeFPRDouble(sa(f), -a)
		case cop1FuncCvtS:
			s.writeFPRSingle(sa(f), float32(a))
		case cop1FuncCvtW:
			s.fpr[sa(f)] = uint64(uint32(int32(a)))
		case cop1FuncCvtL:
			s.fpr[sa(f)] = uint64(int64(a))
		case cop1FuncCEq:
			s.setFCC(a == b)
		case cop1FuncCLt:
			s.setFCC(a < b)
		case cop1FuncCLe:
			s.setFCC(a <= b)
		default:
			return s.raise(ExcRI, excContext{})
		}
		return ircNone
	}
	if fmt == fpFmtWord || fmt == fpFmtLong {
		switch funct {
		case cop1FuncCvtS:
			s.writeFPRSingle(sa(f), float32(int32(uint32(s.fpr[f.rd]))))
		case cop1FuncCvtD:
			if fmt == fpFmtWord {
				s.writeFPRDouble(sa(f), float64(int32(uint32(s.fpr[f.rd]))))
			} else {
				s.writeFPRDouble(sa(f), float64(int64(s.fpr[f.rd])))
			}
		default:
			return s.raise(ExcRI, excContext{})
		}
		return ircNone
	}
	return s.raise(ExcRI, excContext{})
}

// sa returns the destination register field (fd) for a COP1 arithmetic
// op, which decode.go's shared instrFields calls "sa" (bits 6:10).
func sa(f instrFields) uint32 { return f.sa }

func opLWC1(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 4, 4)
	if code != ircNone {
		return code
	}
	s.fpr[f.rt] = uint64(s.beWord(buf))
	return ircNone
}

func opLDC1(s *State, instr uint32) irc {
	f := decodeFields(instr)
	buf, code := s.loadBytes(effAddr(s, f), 8, 8)
	if code != ircNone {
		return code
	}
	s.fpr[f.rt] = s.beDword(buf)
	return ircNone
}

func opSWC1(s *State, instr uint32) irc {
	f := decodeFields(instr)
	var buf [4]byte
	s.putWord(buf[:], uint32(s.fpr[f.rt]))
	return s.storeBytes(effAddr(s, f), buf[:], 4)
}

func opSDC1(s *State, instr uint32) irc {
	f := decodeFields(instr)
	var buf [8]byte
	s.putDword(buf[:], s.fpr[f.rt])
	return s.storeBytes(effAddr(s, f), buf[:], 8)
}
