/*
   mipscore MMU / virtual address translator.

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

// TranslationInvalidator decouples the CPU/MMU from the DBT engine
// (emu/dbt would otherwise have to import emu/cpu and emu/cpu import
// emu/dbt). The CPU calls back into it whenever an architecturally
// visible event (TLB write, ASID change, mode change) could make a
// cached vaddr->host translation stale.
type TranslationInvalidator interface {
	InvalidateTLBEntry(vpn2 uint64, asid uint64, global bool)
	InvalidateASID(asid uint64)
	InvalidateAll()
}

func (s *State) SetTranslationInvalidator(inv TranslationInvalidator) {
	s.invalidator = inv
}

func (s *State) invalidateTLBEntry(idx int) {
	e := s.tlb[idx]
	if s.invalidator != nil {
		asid := e.Hi & (uint64(1)<<s.variant.ASIDBits - 1)
		s.invalidator.InvalidateTLBEntry(e.Hi, asid, e.global())
	}
}

func (s *State) invalidateASID(asid uint64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateASID(asid)
	}
}

func (s *State) invalidateAll() {
	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}
}

func (s *State) logTLBCollision(i, matchIdx int) {
	slog.Warn("TLB collision, multiple entries match", "index", i, "using", matchIdx)
}

// segment classifies a virtual address into the architecturally-defined
// kseg/kuseg windows for the CPU's variant; unmapped windows bypass the
// TLB entirely and compute paddr directly.
type segment int

const (
	segMapped segment = iota
	segUnmappedCached
	segUnmappedUncached
)

// classifySegment returns how vaddr should be handled and, for unmapped
// windows, the direct physical address.
func (s *State) classifySegment(vaddr uint64) (segment, uint64) {
	if !s.variant32Unless64() {
		// 32-bit address map: kuseg/kseg0/kseg1/kseg2
		v := uint32(vaddr)
		switch {
		case v < 0x80000000:
			return segMapped, 0 // kuseg, always mapped
		case v < 0xa0000000:
			return segUnmappedCached, uint64(v - 0x80000000)
		case v < 0xc0000000:
			return segUnmappedUncached, uint64(v - 0xa0000000)
		default:
			return segMapped, 0 // kseg2/kseg3, mapped
		}
	}
	// Generic 64-bit: XKPHYS direct-mapped windows, identified by the
	// top 2 address bits being 0b10.
	if vaddr>>62 == 2 {
		return segUnmappedCached, vaddr & 0x0000_00ff_ffff_ffff
	}
	return segMapped, 0
}

func (s *State) variant32Unless64() bool {
	return s.variant.MMU == MMUGeneric64
}

// Translate converts a virtual address into a physical address,
// performing a TLB walk for mapped segments (spec.md §4.C). On miss or
// protection failure it raises the matching exception through the
// exception unit unless flags carries NoExceptions, in which case it
// only reports failure.
func (s *State) Translate(vaddr uint64, intent Intent, flags TranslateFlags) (uint64, bool) {
	kind, direct := s.classifySegment(vaddr)
	if kind != segMapped {
		return direct, true
	}

	asid := s.cp0[CP0EntryHi] & (uint64(1)<<s.variant.ASIDBits - 1)
	// lookupTLB compares its first argument against TLBEntry.Hi in
	// register format (VPN2 starting at bit 13, as EntryHi itself
	// stores it) — the same format tlbProbe passes. vaddr is already in
	// that format, so it must not be shifted down here.
	e, _ := s.lookupTLB(vaddr, asid)
	if e == nil {
		s.recordMissContext(vaddr)
		if flags&NoExceptions == 0 {
			code := ExcTLBL
			if intent == IntentStore {
				code = ExcTLBS
			}
			s.raiseTLBRefill(code, vaddr)
		}
		return 0, false
	}

	pageMask := e.Mask | 0x1fff
	oddPage := vaddr&((pageMask>>1)+1) != 0
	lo := e.Lo0
	if oddPage {
		lo = e.Lo1
	}
	if lo&loValid == 0 {
		if flags&NoExceptions == 0 {
			s.recordMissContext(vaddr)
			code := ExcTLBL
			if intent == IntentStore {
				code = ExcTLBS
			}
			s.raise(code, excContext{vaddr: vaddr})
		}
		return 0, false
	}
	if intent == IntentStore && lo&loDirty == 0 {
		if flags&NoExceptions == 0 {
			s.recordMissContext(vaddr)
			s.raise(ExcMod, excContext{vaddr: vaddr})
		}
		return 0, false
	}

	pfn := (lo >> loPFNShift) << 12
	paddr := pfn | (vaddr & (pageMask >> 1))
	return paddr, true
}

func (s *State) recordMissContext(vaddr uint64) {
	s.cp0[CP0BadVAddr] = vaddr
	s.cp0[CP0Context] = (s.cp0[CP0Context] &^ 0x7ffff) | ((vaddr >> 13) << 4 & 0x7ffff)
	s.cp0[CP0XContext] = (s.cp0[CP0XContext] &^ 0xffffffff) | ((vaddr >> 13) << 4)
	s.cp0[CP0EntryHi] = (s.cp0[CP0EntryHi] &^ (^(uint64(1)<<s.variant.ASIDBits - 1))) | (vaddr &^ 0x1fff)
}

// raiseTLBRefill picks the refill vs. general exception vector offset
// per spec.md §4.E step 5 and then defers to the shared raise() path.
func (s *State) raiseTLBRefill(code int, vaddr uint64) {
	s.raise(code, excContext{vaddr: vaddr, refill: true, is64: vaddr >= 1<<40})
}
