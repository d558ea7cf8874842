package dbt

/*
 * mipscore DBT tests
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

	"github.com/gxemu-go/mipscore/emu/cpu"
	"github.com/gxemu-go/mipscore/emu/memory"
	"github.com/stretchr/testify/require"
)

// kseg0Base is the R3000's direct-mapped, cached virtual window: vaddr
// kseg0Base+p always translates to physical address p with no TLB
// involved, so tests can address physical memory without installing TLB
// entries (see emu/cpu's classifySegment).
const kseg0Base = 0x80000000

// ADDI's opcode; excluded from the translatable subset (overflow-trapping),
// so it is useful here purely as a deliberate block-boundary instruction.
const opAddi = 8
const opAddiu = 9
const functAdd = 0x20

func encodeI(op, rs, rt, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | (imm & 0xffff)
}

func encodeR(rs, rt, rd, sa, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func newTestMachine(t *testing.T) (*cpu.State, *memory.Memory) {
	t.Helper()
	mem := memory.New(0)
	s, err := cpu.New(cpu.R3000(), true, mem)
	require.NoError(t, err)
	s.SetPC(kseg0Base)
	return s, mem
}

func storeWord(t *testing.T, mem *memory.Memory, paddr uint32, word uint32) {
	t.Helper()
	buf := [4]byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}
	require.True(t, mem.WriteBytes(paddr, buf[:]))
}

func TestChainValidDetectsStaleness(t *testing.T) {
	c := NewCache(16)
	a := &block{startPaddr: 0}
	b := &block{startPaddr: 4}
	c.insert(a)
	c.insert(b)
	a.chain = b

	require.True(t, c.chainValid(a))

	c.InvalidatePhys(4, 4)
	require.False(t, c.chainValid(a), "chain target was evicted; must no longer read as valid")
}

func TestInvalidatePhysRemovesOnlyOverlappingPage(t *testing.T) {
	c := NewCache(poolMargin + 16) // room for both blocks without a flush
	a := &block{startPaddr: 0x1000}
	b := &block{startPaddr: 0x2000}
	c.insert(a)
	c.insert(b)

	c.InvalidatePhys(0x1000, 4)

	require.Nil(t, c.lookup(0x1000))
	require.NotNil(t, c.lookup(0x2000))
}

func TestCacheFlushesWhenNearCapacity(t *testing.T) {
	size := poolMargin + 3
	c := NewCache(size)
	threshold := size - poolMargin // 3

	for i := 0; i < threshold; i++ {
		c.insert(&block{startPaddr: uint32(i * 4)})
	}
	require.Equal(t, threshold, len(c.blocks))
	require.Equal(t, 0, c.stats.CacheFlushes)

	c.insert(&block{startPaddr: uint32(threshold * 4)})

	require.Equal(t, 1, c.stats.CacheFlushes)
	require.Equal(t, 1, len(c.blocks), "flush must clear every prior block before the new one lands")
}

func TestTranslateStopsAtUntranslatableWord(t *testing.T) {
	_, mem := newTestMachine(t)
	storeWord(t, mem, 0, encodeI(opAddiu, 0, 1, 10))
	storeWord(t, mem, 4, encodeI(opAddiu, 0, 2, 20))
	storeWord(t, mem, 8, encodeI(opAddi, 0, 3, 1)) // overflow-trapping: not translatable

	b := translate(mem, 0, true)
	require.NotNil(t, b)
	require.Equal(t, uint32(0), b.startPaddr)
	require.Len(t, b.ops, 2)
}

func TestTranslateDropsShortBlocks(t *testing.T) {
	_, mem := newTestMachine(t)
	storeWord(t, mem, 0, encodeI(opAddiu, 0, 1, 10))
	storeWord(t, mem, 4, encodeI(opAddi, 0, 3, 1))

	require.Nil(t, translate(mem, 0, true), "a single translatable instruction is below minBlockLen")
}

func TestEnterExecutesWholeBlockWithinFuel(t *testing.T) {
	s, mem := newTestMachine(t)
	storeWord(t, mem, 0, encodeI(opAddiu, 0, 1, 10))
	storeWord(t, mem, 4, encodeI(opAddiu, 0, 2, 20))
	storeWord(t, mem, 8, encodeI(opAddiu, 0, 3, 30))
	storeWord(t, mem, 12, encodeI(opAddiu, 0, 4, 40))

	rt := NewRuntime(64)
	n, reason := rt.Enter(s, mem, 4)

	require.Equal(t, 4, n)
	require.Equal(t, ExitTimeslice, reason)
	require.Equal(t, uint64(10), s.ReadGPR(1))
	require.Equal(t, uint64(20), s.ReadGPR(2))
	require.Equal(t, uint64(30), s.ReadGPR(3))
	require.Equal(t, uint64(40), s.ReadGPR(4))
	stats := rt.Cache.StatsSnapshot()
	require.Equal(t, 1, stats.BlocksTranslated)
}

func TestEnterFallsBackToInterpreterAcrossUntranslatableInstruction(t *testing.T) {
	s, mem := newTestMachine(t)
	storeWord(t, mem, 0, encodeI(opAddiu, 0, 1, 10))
	storeWord(t, mem, 4, encodeI(opAddiu, 0, 2, 20))
	storeWord(t, mem, 8, encodeI(opAddi, 0, 3, 1)) // forces a block split
	storeWord(t, mem, 12, encodeI(opAddiu, 0, 4, 40))
	storeWord(t, mem, 16, encodeI(opAddiu, 0, 5, 50))

	rt := NewRuntime(64)
	n, reason := rt.Enter(s, mem, 10)

	require.Equal(t, 10, n)
	require.Equal(t, ExitTimeslice, reason)
	require.Equal(t, uint64(10), s.ReadGPR(1))
	require.Equal(t, uint64(20), s.ReadGPR(2))
	require.Equal(t, uint64(1), s.ReadGPR(3), "the untranslatable ADDI must still execute via the interpreter fallback")
	require.Equal(t, uint64(40), s.ReadGPR(4))
	require.Equal(t, uint64(50), s.ReadGPR(5))

	stats := rt.Cache.StatsSnapshot()
	require.Equal(t, 2, stats.BlocksTranslated, "two translated blocks: before and after the ADDI split")
	require.Equal(t, int64(10), stats.InstrsExecuted)
}

func TestEnterReusesCachedBlockAcrossCalls(t *testing.T) {
	s, mem := newTestMachine(t)
	storeWord(t, mem, 0, encodeI(opAddiu, 0, 1, 1))
	storeWord(t, mem, 4, encodeI(opAddiu, 0, 2, 2))

	rt := NewRuntime(64)
	_, reason := rt.Enter(s, mem, 2)
	require.Equal(t, ExitTimeslice, reason)
	require.Equal(t, 1, rt.Cache.StatsSnapshot().BlocksTranslated)

	s.SetPC(kseg0Base)
	_, reason = rt.Enter(s, mem, 2)
	require.Equal(t, ExitTimeslice, reason)
	require.Equal(t, 1, rt.Cache.StatsSnapshot().BlocksTranslated, "same physical block must be reused, not retranslated")
}

func TestEnterReportsFaultOnTrappingInstruction(t *testing.T) {
	s, mem := newTestMachine(t)
	s.WriteGPR(1, 0x7fffffff)
	s.WriteGPR(2, 1)
	// ADD $3, $1, $2 overflows; ADD is excluded from the translatable
	// subset, so this always falls back to the interpreter.
	storeWord(t, mem, 0, encodeR(1, 2, 3, 0, functAdd))

	rt := NewRuntime(64)
	n, reason := rt.Enter(s, mem, 10)

	require.Equal(t, 1, n)
	require.Equal(t, ExitFault, reason)
	require.Equal(t, uint64(0), s.ReadGPR(3), "the trapping instruction must not have written its destination")
}
