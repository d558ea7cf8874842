/*
   mipscore instruction decode tables.

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

// stepFunc is the dispatch-table leaf: decode one instruction and
// execute it, returning ircNone to continue or an exception code. A
// func table indexed by opcode returning a 16-bit status, generalized
// from a flat 256-entry table to MIPS's hi6/funct/rs nesting
// (spec.md §4.D step 4).
type stepFunc func(s *State, instr uint32) irc

// instrFields are the raw bitfields every handler needs; decoded once
// per instruction rather than re-masked in each handler.
type instrFields struct {
	hi6   uint32
	rs    uint32
	rt    uint32
	rd    uint32
	sa    uint32
	funct uint32
	imm16 uint32
	imm26 uint32
}

func decodeFields(instr uint32) instrFields {
	return instrFields{
		hi6:   instr >> 26,
		rs:    (instr >> 21) & 0x1f,
		rt:    (instr >> 16) & 0x1f,
		rd:    (instr >> 11) & 0x1f,
		sa:    (instr >> 6) & 0x1f,
		funct: instr & 0x3f,
		imm16: instr & 0xffff,
		imm26: instr & 0x3ffffff,
	}
}

func signExt16(v uint32) uint64 {
	return uint64(int64(int16(v)))
}

const (
	hi6Special  = 0
	hi6Regimm   = 1
	hi6J        = 2
	hi6Jal      = 3
	hi6Beq      = 4
	hi6Bne      = 5
	hi6Blez     = 6
	hi6Bgtz     = 7
	hi6Addi     = 8
	hi6Addiu    = 9
	hi6Slti     = 10
	hi6Sltiu    = 11
	hi6Andi     = 12
	hi6Ori      = 13
	hi6Xori     = 14
	hi6Lui      = 15
	hi6Cop0     = 16
	hi6Cop1     = 17
	hi6Cop2     = 18
	hi6Cop1x    = 19
	hi6Beql     = 20
	hi6Bnel     = 21
	hi6Blezl    = 22
	hi6Bgtzl    = 23
	hi6Daddi    = 24
	hi6Daddiu   = 25
	hi6Ldl      = 26
	hi6Ldr      = 27
	hi6Special2 = 28
	hi6Jalx     = 29
	hi6Lb       = 32
	hi6Lh       = 33
	hi6Lwl      = 34
	hi6Lw       = 35
	hi6Lbu      = 36
	hi6Lhu      = 37
	hi6Lwr      = 38
	hi6Lwu      = 39
	hi6Sb       = 40
	hi6Sh       = 41
	hi6Swl      = 42
	hi6Sw       = 43
	hi6Sdl      = 44
	hi6Sdr      = 45
	hi6Swr      = 46
	hi6Cache    = 47
	hi6Ll       = 48
	hi6Lwc1     = 49
	hi6Lld      = 52
	hi6Ldc1     = 53
	hi6Ld       = 55
	hi6Sc       = 56
	hi6Swc1     = 57
	hi6Scd      = 60
	hi6Sdc1     = 61
	hi6Sd       = 63
)

const (
	functSLL     = 0x00
	functSRL     = 0x02
	functSRA     = 0x03
	functSLLV    = 0x04
	functSRLV    = 0x06
	functSRAV    = 0x07
	functJR      = 0x08
	functJALR    = 0x09
	functSyscall = 0x0c
	functBreak   = 0x0d
	functMFHI    = 0x10
	functMTHI    = 0x11
	functMFLO    = 0x12
	functMTLO    = 0x13
	functDSLLV   = 0x14
	functDSRLV   = 0x16
	functDSRAV   = 0x17
	functMULT    = 0x18
	functMULTU   = 0x19
	functDIV     = 0x1a
	functDIVU    = 0x1b
	functDMULT   = 0x1c
	functDMULTU  = 0x1d
	functDDIV    = 0x1e
	functDDIVU   = 0x1f
	functADD     = 0x20
	functADDU    = 0x21
	functSUB     = 0x22
	functSUBU    = 0x23
	functAND     = 0x24
	functOR      = 0x25
	functXOR     = 0x26
	functNOR     = 0x27
	functSLT     = 0x2a
	functSLTU    = 0x2b
	functDADD    = 0x2c
	functDADDU   = 0x2d
	functDSUB    = 0x2e
	functDSUBU   = 0x2f
	functDSLL    = 0x38
	functDSRL    = 0x3a
	functDSRA    = 0x3b
	functDSLL32  = 0x3c
	functDSRL32  = 0x3e
	functDSRA32  = 0x3f
)

const (
	regimmBLTZ   = 0x00
	regimmBGEZ   = 0x01
	regimmBLTZL  = 0x02
	regimmBGEZL  = 0x03
	regimmBLTZAL = 0x10
	regimmBGEZAL = 0x11
	regimmBGEZALL = 0x13
	regimmBLTZALL = 0x12
)

// copRS values select the sub-form of a COPz instruction.
const (
	copMF  = 0x00
	copDMF = 0x01
	copCF  = 0x02
	copMT  = 0x04
	copDMT = 0x05
	copCT  = 0x06
	copBC  = 0x08
	copCO  = 0x10 // rs bit 4 set => a CO function, decoded by funct
)

var primaryTable [64]stepFunc
var specialTable [64]stepFunc
var special2Table [64]stepFunc
var regimmTable [32]stepFunc

func init() {
	buildDecodeTables()
}

func buildDecodeTables() {
	for i := range primaryTable {
		primaryTable[i] = opReserved
	}
	for i := range specialTable {
		specialTable[i] = opReserved
	}
	for i := range special2Table {
		special2Table[i] = opReserved
	}
	for i := range regimmTable {
		regimmTable[i] = opReserved
	}

	primaryTable[hi6Special] = dispatchSpecial
	primaryTable[hi6Special2] = dispatchSpecial2
	primaryTable[hi6Regimm] = dispatchRegimm
	primaryTable[hi6J] = opJ
	primaryTable[hi6Jal] = opJAL
	primaryTable[hi6Beq] = opBEQ
	primaryTable[hi6Bne] = opBNE
	primaryTable[hi6Blez] = opBLEZ
	primaryTable[hi6Bgtz] = opBGTZ
	primaryTable[hi6Addi] = opADDI
	primaryTable[hi6Addiu] = opADDIU
	primaryTable[hi6Slti] = opSLTI
	primaryTable[hi6Sltiu] = opSLTIU
	primaryTable[hi6Andi] = opANDI
	primaryTable[hi6Ori] = opORI
	primaryTable[hi6Xori] = opXORI
	primaryTable[hi6Lui] = opLUI
	primaryTable[hi6Cop0] = dispatchCop0
	primaryTable[hi6Cop1] = dispatchCop1
	primaryTable[hi6Beql] = opBEQL
	primaryTable[hi6Bnel] = opBNEL
	primaryTable[hi6Blezl] = opBLEZL
	primaryTable[hi6Bgtzl] = opBGTZL
	primaryTable[hi6Daddi] = opDADDI
	primaryTable[hi6Daddiu] = opDADDIU
	primaryTable[hi6Ldl] = opLDL
	primaryTable[hi6Ldr] = opLDR
	primaryTable[hi6Lb] = opLB
	primaryTable[hi6Lh] = opLH
	primaryTable[hi6Lwl] = opLWL
	primaryTable[hi6Lw] = opLW
	primaryTable[hi6Lbu] = opLBU
	primaryTable[hi6Lhu] = opLHU
	primaryTable[hi6Lwr] = opLWR
	primaryTable[hi6Lwu] = opLWU
	primaryTable[hi6Sb] = opSB
	primaryTable[hi6Sh] = opSH
	primaryTable[hi6Swl] = opSWL
	primaryTable[hi6Sw] = opSW
	primaryTable[hi6Sdl] = opSDL
	primaryTable[hi6Sdr] = opSDR
	primaryTable[hi6Swr] = opSWR
	primaryTable[hi6Cache] = opNOP // CACHE translated/interpreted as nop
	primaryTable[hi6Ll] = opLL
	primaryTable[hi6Lld] = opLLD
	primaryTable[hi6Ld] = opLD
	primaryTable[hi6Sc] = opSC
	primaryTable[hi6Scd] = opSCD
	primaryTable[hi6Sd] = opSD
	primaryTable[hi6Lwc1] = opLWC1
	primaryTable[hi6Ldc1] = opLDC1
	primaryTable[hi6Swc1] = opSWC1
	primaryTable[hi6Sdc1] = opSDC1

	specialTable[functSLL] = opSLL
	specialTable[functSRL] = opSRL
	specialTable[functSRA] = opSRA
	specialTable[functSLLV] = opSLLV
	specialTable[functSRLV] = opSRLV
	specialTable[functSRAV] = opSRAV
	specialTable[functJR] = opJR
	specialTable[functJALR] = opJALR
	specialTable[functSyscall] = opSYSCALL
	specialTable[functBreak] = opBREAK
	specialTable[functMFHI] = opMFHI
	specialTable[functMTHI] = opMTHI
	specialTable[functMFLO] = opMFLO
	specialTable[functMTLO] = opMTLO
	specialTable[functDSLLV] = opDSLLV
	specialTable[functDSRLV] = opDSRLV
	specialTable[functDSRAV] = opDSRAV
	specialTable[functMULT] = opMULT
	specialTable[functMULTU] = opMULTU
	specialTable[functDIV] = opDIV
	specialTable[functDIVU] = opDIVU
	specialTable[functDMULT] = opDMULT
	specialTable[functDMULTU] = opDMULTU
	specialTable[functDDIV] = opDDIV
	specialTable[functDDIVU] = opDDIVU
	specialTable[functADD] = opADD
	specialTable[functADDU] = opADDU
	specialTable[functSUB] = opSUB
	specialTable[functSUBU] = opSUBU
	specialTable[functAND] = opAND
	specialTable[functOR] = opOR
	specialTable[functXOR] = opXOR
	specialTable[functNOR] = opNOR
	specialTable[functSLT] = opSLT
	specialTable[functSLTU] = opSLTU
	specialTable[functDADD] = opDADD
	specialTable[functDADDU] = opDADDU
	specialTable[functDSUB] = opDSUB
	specialTable[functDSUBU] = opDSUBU
	specialTable[functDSLL] = opDSLL
	specialTable[functDSRL] = opDSRL
	specialTable[functDSRA] = opDSRA
	specialTable[functDSLL32] = opDSLL32
	specialTable[functDSRL32] = opDSRL32
	specialTable[functDSRA32] = opDSRA32

	regimmTable[regimmBLTZ] = opBLTZ
	regimmTable[regimmBGEZ] = opBGEZ
	regimmTable[regimmBLTZL] = opBLTZL
	regimmTable[regimmBGEZL] = opBGEZL
	regimmTable[regimmBLTZAL] = opBLTZAL
	regimmTable[regimmBGEZAL] = opBGEZAL
	regimmTable[regimmBLTZALL] = opBLTZALL
	regimmTable[regimmBGEZALL] = opBGEZALL
}

func dispatchSpecial(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return specialTable[f.funct](s, instr)
}

func dispatchSpecial2(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return special2Table[f.funct](s, instr)
}

func dispatchRegimm(s *State, instr uint32) irc {
	f := decodeFields(instr)
	return regimmTable[f.rt](s, instr)
}

func opReserved(s *State, _ uint32) irc {
	return s.raise(ExcRI, excContext{})
}
