/*
   mipscore register file and COP0 bank.

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

// String implements fmt.Stringer for trace logging: PC plus the COP0
// registers most useful when diagnosing an exception, named via
// cop0Names (gxemu's register-dump convenience, cpu_mips.c) rather than
// bare register numbers.
func (s *State) String() string {
	return fmt.Sprintf("pc=%#x %s=%#x %s=%#x %s=%#x",
		s.pc,
		cop0Names[CP0Status], s.cp0[CP0Status],
		cop0Names[CP0Cause], s.cp0[CP0Cause],
		cop0Names[CP0EPC], s.cp0[CP0EPC])
}

// ReadGPR returns register i; R0 always reads as zero.
func (s *State) ReadGPR(i uint) uint64 {
	if i == 0 {
		return 0
	}
	return s.gpr[i]
}

// WriteGPR stores v into register i; writes to R0 are discarded.
func (s *State) WriteGPR(i uint, v uint64) {
	if i == 0 {
		return
	}
	s.gpr[i] = v
}

// cop0WriteMask returns the mask of bits a write to (reg, sel) may
// actually change; bits outside the mask keep their prior value
// (read-only bits) or read as zero (undefined bits), per spec.md §4.A.
func (s *State) cop0WriteMask(reg int) uint64 {
	switch reg {
	case CP0Random:
		return 0 // read-only, decremented by hardware
	case CP0BadVAddr, CP0PRId:
		return 0
	case CP0Status:
		return statusWriteMask
	case CP0EntryHi:
		vpn2Mask := (uint64(1)<<s.variant.VPN2Bits - 1) << 13
		asidMask := uint64(1)<<s.variant.ASIDBits - 1
		return vpn2Mask | (1 << 12) | asidMask // VPN2 | R | ASID
	case CP0PageMask:
		return 0x1ffe000
	case CP0Wired:
		if s.variant.MMU == MMUR3K {
			return 0
		}
		return 0x3f
	case CP0Count, CP0Compare, CP0EPC, CP0ErrorEPC, CP0Context, CP0XContext,
		CP0EntryLo0, CP0EntryLo1, CP0Cause, CP0Config, CP0LLAddr, CP0WatchLo,
		CP0WatchHi, CP0TagLo, CP0TagHi, CP0Index:
		return ^uint64(0)
	default:
		return ^uint64(0)
	}
}

// statusWriteMask: every bit is writable except bit 21 (reserved,
// read-only-as-zero on the architectures this module models).
const statusWriteMask = ^uint64(1 << 21)

// ReadCOP0 returns the current value of coprocessor-0 register (reg,
// sel). Only sel 0 is backed for most registers; Config1 (reg 16, sel
// 1) returns the stored cp0Config1 value for every variant, and any
// other non-zero select reads as zero.
func (s *State) ReadCOP0(reg int, sel int) uint64 {
	if sel != 0 {
		if reg == CP0Config && sel == 1 {
			return s.cp0Config1
		}
		return 0
	}
	return s.cp0[reg]
}

// WriteCOP0 stores v into (reg, sel) applying the architectural write
// mask. Writes to EntryHi compare old vs new ASID and trigger a TLB/DBT
// invalidation if they differ (spec.md §4.A); a Status write that
// changes KSU/EXL/ERL triggers a bulk invalidation of all cached
// translations, since those bits change which mappings the CPU is
// allowed to see (spec.md §4.F); writes to Count/Compare clear the
// pending timer interrupt bit (IP7).
func (s *State) WriteCOP0(reg int, sel int, v uint64) {
	if sel != 0 {
		return
	}
	switch reg {
	case CP0Status:
		modeMask := statusKSU | statusEXL | statusERL
		old := s.cp0[reg] & modeMask
		s.cp0[reg] = v & statusWriteMask
		if old != s.cp0[reg]&modeMask {
			s.invalidateAll()
		}
		return
	case CP0PageMask:
		field := (v >> 13) & 0xfff
		if !validPageMasks[field] {
			field = 0
		}
		s.cp0[reg] = field << 13
		return
	case CP0EntryHi:
		oldASID := s.cp0[reg] & (uint64(1)<<s.variant.ASIDBits - 1)
		mask := s.cop0WriteMask(reg)
		s.cp0[reg] = v & mask
		newASID := s.cp0[reg] & (uint64(1)<<s.variant.ASIDBits - 1)
		if oldASID != newASID {
			s.invalidateASID(oldASID)
		}
		return
	case CP0Random:
		return
	case CP0Count, CP0Compare:
		s.cp0[reg] = v
		s.cp0[CP0Cause] &^= uint64(1) << (causeIP0Shift + 7)
		return
	default:
		mask := s.cop0WriteMask(reg)
		s.cp0[reg] = (s.cp0[reg] &^ mask) | (v & mask)
	}
}

func (s *State) statusBit(bit uint) bool {
	return s.cp0[CP0Status]&(1<<bit) != 0
}

func (s *State) setStatusBit(bit uint, v bool) {
	if v {
		s.cp0[CP0Status] |= 1 << bit
	} else {
		s.cp0[CP0Status] &^= 1 << bit
	}
}
