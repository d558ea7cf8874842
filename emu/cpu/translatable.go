/*
   mipscore: classification of which decoded opcodes emu/dbt may fold
   into a translated block (spec.md §4.F's "conservative subset").

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

// IsTranslatable reports whether word is in the DBT's conservative
// translatable subset (spec.md §4.F): overflow-trapping arithmetic,
// floating point, and anything unrecognised are excluded and must fall
// back to interpretation. CACHE is included and translated as a nop.
func IsTranslatable(word uint32) bool {
	f := decodeFields(word)
	switch f.hi6 {
	case hi6Special:
		switch f.funct {
		case functADD, functSUB, functDADD, functDSUB:
			return false // overflow-trapping; interpreter handles the trap path
		case functSLL, functSRL, functSRA, functSLLV, functSRLV, functSRAV,
			functJR, functJALR, functSyscall, functBreak,
			functMFHI, functMTHI, functMFLO, functMTLO,
			functDSLLV, functDSRLV, functDSRAV,
			functMULT, functMULTU, functDIV, functDIVU,
			functDMULT, functDMULTU, functDDIV, functDDIVU,
			functADDU, functSUBU, functAND, functOR, functXOR, functNOR,
			functSLT, functSLTU, functDADDU, functDSUBU,
			functDSLL, functDSRL, functDSRA, functDSLL32, functDSRL32, functDSRA32:
			return true
		}
		return false
	case hi6Regimm:
		switch f.rt {
		case regimmBLTZ, regimmBGEZ, regimmBLTZL, regimmBGEZL, regimmBLTZAL, regimmBGEZAL:
			return true
		}
		return false
	case hi6J, hi6Jal, hi6Beq, hi6Bne, hi6Blez, hi6Bgtz,
		hi6Beql, hi6Bnel, hi6Blezl, hi6Bgtzl,
		hi6Addiu, hi6Daddiu, hi6Slti, hi6Sltiu, hi6Andi, hi6Ori, hi6Xori, hi6Lui:
		return true
	case hi6Addi, hi6Daddi:
		return false // overflow-trapping
	case hi6Lb, hi6Lh, hi6Lwl, hi6Lw, hi6Lbu, hi6Lhu, hi6Lwr, hi6Lwu, hi6Ld, hi6Ldl, hi6Ldr,
		hi6Sb, hi6Sh, hi6Swl, hi6Sw, hi6Sdl, hi6Sdr, hi6Swr, hi6Sd,
		hi6Ll, hi6Lld, hi6Sc, hi6Scd:
		return true
	case hi6Cache:
		return true // translated as nop
	case hi6Cop0:
		return isTranslatableCop0(f)
	default:
		return false
	}
}

func isTranslatableCop0(f instrFields) bool {
	switch {
	case f.rs == copMF, f.rs == copDMF, f.rs == copMT, f.rs == copDMT:
		return true
	case f.rs&0x10 != 0: // CO sub-form, decoded by funct
		switch f.funct {
		case coFunctTLBR, coFunctTLBWI, coFunctTLBWR, coFunctTLBP, coFunctERET:
			return true
		}
		return false
	default:
		return false
	}
}
