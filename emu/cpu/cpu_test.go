package cpu

/*
 * mipscore  - CPU interpreter tests
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

import (
	"testing"

	"github.com/gxemu-go/mipscore/emu/memory"
	"github.com/stretchr/testify/require"
)

// newTestCPU builds an R3000 CPU over freshly allocated memory, identity-
// mapped through a single TLB entry covering the first 8 KiB (two 4 KiB
// pages) so tests can
// use virtual address 0 directly without bringing up a full refill path.
func newTestCPU(t *testing.T) (*State, *memory.Memory) {
	t.Helper()
	mem := memory.New(0)
	s, err := New(R3000(), true, mem)
	require.NoError(t, err)
	s.tlb[0] = TLBEntry{
		Hi:   0,                     // VPN2=0, ASID=0
		Lo0:  (0 << 6) | loValid | loDirty | loGlobal,
		Lo1:  (1 << 6) | loValid | loDirty | loGlobal, // second 4 KiB page, PFN=1
		Mask: 0,
	}
	return s, mem
}

func storeWord(t *testing.T, mem *memory.Memory, addr uint32, word uint32) {
	t.Helper()
	buf := [4]byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}
	require.True(t, mem.WriteBytes(addr, buf[:]))
}

func encodeI(op, rs, rt, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | (imm & 0xffff)
}

func encodeR(rs, rt, rd, sa, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func TestGPR0AlwaysZero(t *testing.T) {
	s, _ := newTestCPU(t)
	s.WriteGPR(0, 0xdeadbeef)
	require.Equal(t, uint64(0), s.ReadGPR(0))
}

func TestADDIUUpdatesRegister(t *testing.T) {
	s, mem := newTestCPU(t)
	// ADDIU $2, $0, 5
	storeWord(t, mem, 0, encodeI(hi6Addiu, 0, 2, 5))
	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(5), s.ReadGPR(2))
	require.Equal(t, uint64(4), s.PC())
}

func TestADDOverflowTraps(t *testing.T) {
	s, mem := newTestCPU(t)
	s.WriteGPR(1, 0x7fffffff)
	s.WriteGPR(2, 1)
	// ADD $3, $1, $2 (32-bit signed overflow)
	storeWord(t, mem, 0, encodeR(1, 2, 3, 0, functADD))
	code := s.Step()
	require.NotEqual(t, ircNone, code)
	require.Equal(t, ExcOv, ircToExc(code))
	// the trapping instruction must not have written its destination
	require.Equal(t, uint64(0), s.ReadGPR(3))
}

func TestBranchDelaySlotExecutes(t *testing.T) {
	s, mem := newTestCPU(t)
	// BEQ $0, $0, 2 (always taken, target = pc+4+2*4 = 12)
	storeWord(t, mem, 0, encodeI(hi6Beq, 0, 0, 2))
	// delay slot: ADDIU $4, $0, 1
	storeWord(t, mem, 4, encodeI(hi6Addiu, 0, 4, 1))
	// fall-through target if the branch were (wrongly) not taken
	storeWord(t, mem, 8, encodeI(hi6Addiu, 0, 5, 1))
	// branch target: ADDIU $6, $0, 1
	storeWord(t, mem, 12, encodeI(hi6Addiu, 0, 6, 1))

	require.Equal(t, ircNone, s.Step()) // executes the branch, schedules the delay slot
	require.Equal(t, ircNone, s.Step()) // executes the delay slot, jumps to the target
	require.Equal(t, uint64(1), s.ReadGPR(4), "delay slot instruction must retire")
	require.Equal(t, uint64(12), s.PC())
	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(1), s.ReadGPR(6))
	require.Equal(t, uint64(0), s.ReadGPR(5), "fall-through-only instruction must never run")
}

func TestBranchNotTakenNullifiesLikelyDelaySlot(t *testing.T) {
	s, mem := newTestCPU(t)
	// BEQL $0, $1, 2 ($1 is nonzero so not taken; likely form nullifies
	// the delay slot instead of executing it).
	s.WriteGPR(1, 1)
	storeWord(t, mem, 0, encodeI(hi6Beql, 0, 1, 2))
	storeWord(t, mem, 4, encodeI(hi6Addiu, 0, 4, 1)) // would-be delay slot
	storeWord(t, mem, 8, encodeI(hi6Addiu, 0, 5, 1))

	require.Equal(t, ircNone, s.Step()) // executes the branch (not taken), nullifies the delay slot
	require.Equal(t, ircNone, s.Step()) // the nullified delay slot retires as a no-op
	require.Equal(t, uint64(0), s.ReadGPR(4), "nullified delay slot must not retire")
	require.Equal(t, ircNone, s.Step()) // straight-line fall-through
	require.Equal(t, uint64(1), s.ReadGPR(5))
}

func TestWriteCOP0StatusMasksReservedBit(t *testing.T) {
	s, _ := newTestCPU(t)
	s.WriteCOP0(CP0Status, 0, ^uint64(0))
	require.Equal(t, uint64(0), s.ReadCOP0(CP0Status, 0)&(1<<21))
}

func TestEntryHiASIDChangeInvalidatesTranslations(t *testing.T) {
	s, _ := newTestCPU(t)
	var calls int
	s.SetTranslationInvalidator(fakeInvalidator{onASID: func(asid uint64) { calls++ }})
	s.WriteCOP0(CP0EntryHi, 0, 1) // ASID 0 -> 1
	require.Equal(t, 1, calls)
	s.WriteCOP0(CP0EntryHi, 0, 1) // unchanged ASID: no further invalidation
	require.Equal(t, 1, calls)
}

func TestStatusModeChangeInvalidatesAllTranslations(t *testing.T) {
	s, _ := newTestCPU(t)
	var calls int
	s.SetTranslationInvalidator(fakeInvalidator{onAll: func() { calls++ }})
	s.WriteCOP0(CP0Status, 0, 1<<StatusEXLBit) // EXL 0 -> 1
	require.Equal(t, 1, calls)
	s.WriteCOP0(CP0Status, 0, 1<<StatusEXLBit) // unchanged: no further invalidation
	require.Equal(t, 1, calls)
	s.WriteCOP0(CP0Status, 0, 1<<StatusEXLBit|1<<StatusERLBit) // ERL 0 -> 1
	require.Equal(t, 2, calls)
}

type fakeInvalidator struct {
	onASID func(asid uint64)
	onAll  func()
}

func (f fakeInvalidator) InvalidateTLBEntry(uint64, uint64, bool) {}
func (f fakeInvalidator) InvalidateASID(asid uint64) {
	if f.onASID != nil {
		f.onASID(asid)
	}
}
func (f fakeInvalidator) InvalidateAll() {
	if f.onAll != nil {
		f.onAll()
	}
}

func TestStringNamesCOP0Registers(t *testing.T) {
	s, _ := newTestCPU(t)
	s.WriteCOP0(CP0Cause, 0, 0x10)
	str := s.String()
	require.Contains(t, str, "Cause=0x10")
	require.Contains(t, str, "Status=")
	require.Contains(t, str, "EPC=")
}

func TestLWLLWRReconstructWord(t *testing.T) {
	s, mem := newTestCPU(t)
	// Little-endian memory image; the instructions run through
	// ExecDecoded, so their words are not fetched from memory.
	s.bigEndian = false
	s.WriteGPR(2, 8) // base register
	require.True(t, mem.WriteBytes(8, []byte{0x12, 0x34, 0x56, 0x78}))
	// LWL $1, 3($2); LWR $1, 0($2)
	require.Equal(t, ircNone, s.ExecDecoded(encodeI(hi6Lwl, 2, 1, 3)))
	require.Equal(t, ircNone, s.ExecDecoded(encodeI(hi6Lwr, 2, 1, 0)))
	require.Equal(t, uint64(0x78563412), s.ReadGPR(1))
}

func TestSWLSWRReconstructWord(t *testing.T) {
	s, mem := newTestCPU(t)
	// Little-endian memory image; the instructions run through
	// ExecDecoded, so their words are not fetched from memory.
	s.bigEndian = false
	s.WriteGPR(1, 0x78563412)
	s.WriteGPR(2, 8) // base register
	// SWL $1, 3($2); SWR $1, 0($2)
	require.Equal(t, ircNone, s.ExecDecoded(encodeI(hi6Swl, 2, 1, 3)))
	require.Equal(t, ircNone, s.ExecDecoded(encodeI(hi6Swr, 2, 1, 0)))
	buf := make([]byte, 4)
	require.True(t, mem.ReadBytes(8, buf))
	require.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, buf)
}

func TestBGEZALLLinksAndBranches(t *testing.T) {
	s, mem := newTestCPU(t)
	// BGEZALL $0, 2 (R0 >= 0, always taken; link = pc+8)
	storeWord(t, mem, 0, encodeI(hi6Regimm, 0, regimmBGEZALL, 2))
	storeWord(t, mem, 4, encodeI(hi6Addiu, 0, 4, 1)) // delay slot, must execute (taken)
	storeWord(t, mem, 12, encodeI(hi6Addiu, 0, 5, 1)) // branch target

	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(8), s.ReadGPR(31))
	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(1), s.ReadGPR(4))
	require.Equal(t, uint64(12), s.PC())
}

func TestBLTZALLNullifiesWhenNotTaken(t *testing.T) {
	s, mem := newTestCPU(t)
	s.WriteGPR(1, 1) // not < 0, so BLTZALL is not taken
	// BLTZALL $1, 2
	storeWord(t, mem, 0, encodeI(hi6Regimm, 1, regimmBLTZALL, 2))
	storeWord(t, mem, 4, encodeI(hi6Addiu, 0, 4, 1)) // would-be delay slot

	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(8), s.ReadGPR(31), "link register is written even when not taken")
	require.Equal(t, ircNone, s.Step())
	require.Equal(t, uint64(0), s.ReadGPR(4), "nullified delay slot must not retire")
}

func TestExecDecodedMatchesStep(t *testing.T) {
	s1, mem1 := newTestCPU(t)
	s2, mem2 := newTestCPU(t)
	word := encodeI(hi6Addiu, 0, 8, 42)
	storeWord(t, mem1, 0, word)
	storeWord(t, mem2, 0, word)

	require.Equal(t, ircNone, s1.Step())
	require.Equal(t, ircNone, s2.ExecDecoded(word))
	require.Equal(t, s1.ReadGPR(8), s2.ReadGPR(8))
	require.Equal(t, s1.PC(), s2.PC())
}
