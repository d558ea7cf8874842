/*
   mipscore MMU variant descriptors.

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

// MMUKind names the family of address-translation logic a Variant uses.
// Replaces the source's if-ladders on cpu_type.rev with a small tagged enum
// chosen once at construction (see DESIGN.md, Open Question resolutions).
type MMUKind int

const (
	MMUR3K MMUKind = iota
	MMUR4K
	MMUR10K
	MMUR4100
	MMUGeneric64
)

// Variant is the capability descriptor for one modelled CPU type: MMU
// shape, TLB geometry, and the handful of per-type behavioural switches
// the architecture manual documents as implementation-defined.
type Variant struct {
	Name string
	MMU  MMUKind

	TLBEntries int
	PageShift  uint   // log2 of the smallest page size
	ASIDBits   uint
	VPN2Bits   uint   // width of the VPN2 field in EntryHi/TLB hi
	Is64       bool   // 64-bit GPRs/addressing architecturally present
	HasFPU64   bool   // FR=1 capable, double regs independent of even/odd pairing

	// MultWritesRD models the undocumented R5900 behaviour where
	// SPECIAL_MULT also writes GPR[rd] in addition to HI/LO. Off by
	// default; only ever true when Name == "R5900".
	MultWritesRD bool
}

// R3000 is the classic 32-bit 3-bit MMU: 4 KiB fixed pages, 64 entries,
// 6-bit ASID.
func R3000() *Variant {
	return &Variant{
		Name:       "R3000",
		MMU:        MMUR3K,
		TLBEntries: 64,
		PageShift:  12,
		ASIDBits:   6,
		VPN2Bits:   19,
		Is64:       false,
		HasFPU64:   false,
	}
}

// R4000 is the baseline R4K-style variant: variable page size via
// PageMask, 8-bit ASID, 48 TLB entries.
func R4000() *Variant {
	return &Variant{
		Name:       "R4000",
		MMU:        MMUR4K,
		TLBEntries: 48,
		PageShift:  12,
		ASIDBits:   8,
		VPN2Bits:   27,
		Is64:       true,
		HasFPU64:   true,
	}
}

// R10000 widens VPN2 to 44 bits of virtual address.
func R10000() *Variant {
	v := R4000()
	v.Name = "R10000"
	v.MMU = MMUR10K
	v.TLBEntries = 64
	v.VPN2Bits = 31
	return v
}

// R4100 records a 10-bit page shift (PageShift, which no code reads);
// its PageMask handling is the same as the R4000's.
func R4100() *Variant {
	v := R4000()
	v.Name = "R4100"
	v.MMU = MMUR4100
	v.TLBEntries = 32
	v.PageShift = 10
	return v
}

// R5900 is an R4K derivative with the undocumented MULT-writes-rd quirk
// enabled (see §11 Open Question resolutions in SPEC_FULL.md).
func R5900() *Variant {
	v := R4000()
	v.Name = "R5900"
	v.MultWritesRD = true
	return v
}

// Generic64 models a full XKPHYS-capable 64-bit implementation with no
// further per-vendor quirks.
func Generic64() *Variant {
	v := R4000()
	v.Name = "Generic64"
	v.MMU = MMUGeneric64
	v.TLBEntries = 64
	return v
}

// variantByName resolves the "CPU <variant> <endian>" config directive.
func variantByName(name string) (*Variant, error) {
	switch name {
	case "R3000", "R3K":
		return R3000(), nil
	case "R4000", "R4K":
		return R4000(), nil
	case "R10000", "R10K":
		return R10000(), nil
	case "R4100":
		return R4100(), nil
	case "R5900":
		return R5900(), nil
	case "Generic64", "GENERIC64":
		return Generic64(), nil
	default:
		return nil, errUnknownCPUType(name)
	}
}
