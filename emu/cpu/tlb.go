/*
   mipscore TLB array.

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

// TLBEntry mirrors one hardware TLB row (spec.md §3). hi carries VPN2,
// ASID, and (pre-R4K) the global bit; lo0/lo1 carry the even/odd half's
// physical frame, cache attribute, valid and dirty bits, and (R4K+) the
// global bit.
type TLBEntry struct {
	Hi   uint64
	Lo0  uint64
	Lo1  uint64
	Mask uint64
}

const (
	loValid  = 1 << 1
	loDirty  = 1 << 2
	loGlobal = 1 << 0
	loPFNShift = 6
)

func (e *TLBEntry) global() bool {
	if e.Lo0&loGlobal != 0 && e.Lo1&loGlobal != 0 {
		return true
	}
	return e.Hi&(1<<12) != 0 // pre-R4K global bit lives in hi
}

// lookup scans the TLB for an entry matching vpn2/asid, honouring the
// global bit. vpn2 must be in register format, i.e. the same bit layout
// as TLBEntry.Hi/EntryHi (VPN2 from bit 13 up) rather than shifted down
// to bit 0 — both callers (Translate via a raw vaddr, tlbProbe via
// EntryHi) rely on this. On a software error (more than one entry
// matches) it logs the collision and returns the lowest-indexed match,
// per spec.md §4.C.
func (s *State) lookupTLB(vpn2 uint64, asid uint64) (*TLBEntry, int) {
	var match *TLBEntry
	matchIdx := -1
	for i := range s.tlb {
		e := &s.tlb[i]
		pageMask := e.Mask | 0x1fff
		entryVPN2 := e.Hi &^ pageMask
		wantVPN2 := vpn2 &^ pageMask
		if entryVPN2 != wantVPN2 {
			continue
		}
		if !e.global() && (e.Hi&(uint64(1)<<s.variant.ASIDBits-1)) != asid {
			continue
		}
		if match != nil {
			s.logTLBCollision(i, matchIdx)
			continue
		}
		match = e
		matchIdx = i
	}
	return match, matchIdx
}

// tlbRead implements TLBR: copy TLB[Index] into EntryHi/Lo0/Lo1/PageMask.
func (s *State) tlbRead() {
	idx := int(s.cp0[CP0Index] & 0x3f)
	if idx >= len(s.tlb) {
		return
	}
	e := s.tlb[idx]
	s.cp0[CP0EntryHi] = e.Hi
	s.cp0[CP0EntryLo0] = e.Lo0
	s.cp0[CP0EntryLo1] = e.Lo1
	s.cp0[CP0PageMask] = e.Mask
}

// tlbWrite implements TLBWI/TLBWR: program TLB[index] from EntryHi/Lo0/
// Lo1/PageMask and invalidate any cached translation it could shadow.
func (s *State) tlbWrite(idx int) {
	if idx < 0 || idx >= len(s.tlb) {
		return
	}
	s.tlb[idx] = TLBEntry{
		Hi:   s.cp0[CP0EntryHi],
		Lo0:  s.cp0[CP0EntryLo0],
		Lo1:  s.cp0[CP0EntryLo1],
		Mask: s.cp0[CP0PageMask],
	}
	s.invalidateTLBEntry(idx)
}

// tlbWriteRandom implements TLBWR, writing at CP0Random and decrementing it.
func (s *State) tlbWriteRandom() {
	idx := int(s.cp0[CP0Random])
	s.tlbWrite(idx)
	s.decrementRandom()
}

func (s *State) decrementRandom() {
	wired := int(s.cp0[CP0Wired])
	n := len(s.tlb)
	r := int(s.cp0[CP0Random])
	r--
	if r < wired || r >= n {
		r = n - 1
	}
	s.cp0[CP0Random] = uint64(r)
}

// tlbProbe implements TLBP: search for EntryHi's VPN2/ASID and set
// Index (with the probe-failed high bit) or Index to the match.
func (s *State) tlbProbe() {
	asid := s.cp0[CP0EntryHi] & (uint64(1)<<s.variant.ASIDBits - 1)
	vpn2 := s.cp0[CP0EntryHi] &^ (uint64(1)<<s.variant.ASIDBits - 1)
	_, idx := s.lookupTLB(vpn2, asid)
	if idx < 0 {
		s.cp0[CP0Index] = 1 << 63
	} else {
		s.cp0[CP0Index] = uint64(idx)
	}
}
