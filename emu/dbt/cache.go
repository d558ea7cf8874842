/*
   mipscore DBT: physical-page-keyed translation cache.

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
package dbt


// pageOf rounds a physical address down to its containing 4 KiB
// translation page, the unit invalidation and page-boundary stops
// operate on (spec.md §4.F).
func pageOf(paddr uint32) uint32 { return paddr &^ 0xfff }

// poolMargin implements spec.md §4.F's cache-flush rule: flush the whole
// cache, never partial-LRU-evict, once the pool gets within this many
// slots of its configured size.
const poolMargin = 64

// Cache is the translation cache (spec.md §4.F/§11 Open Question 2): a
// flat `map[paddr]*block` keyed by start address, replacing the
// source's two-level VPN-indexed chunk-pointer table (collapsed to one
// shape since Go has no pointer-width-dependent codegen, per SPEC_FULL's
// Open Question resolution). It doubles as both `memory.CacheInvalidator`
// and `cpu.TranslationInvalidator`, the two decoupling seams the CPU and
// memory packages expose so neither has to import emu/dbt.
type Cache struct {
	blocks map[uint32]*block
	pages  map[uint32]map[uint32]bool // physical page -> set of block start addrs on it

	size  int
	stats Stats
}

// Stats mirrors gxemu's dyntrans hit-rate counters (original_source/
// bintrans.c's ninstrs and friends), read through StatsSnapshot as a
// debugging aid only (nothing logs them) — not a timing feature (spec.md Non-goals keep
// cycle-accurate timing out of scope).
type Stats struct {
	BlocksTranslated int
	CacheFlushes     int
	ChainHits        int
	ChainMisses      int
	InstrsExecuted   int64
}

// NewCache creates a translation cache of the given size (4096 when size
// is zero or less). insert flushes the whole cache once it already holds
// size-poolMargin blocks, so a size at or below poolMargin flushes on
// every insert.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = 4096
	}
	return &Cache{
		blocks: make(map[uint32]*block),
		pages:  make(map[uint32]map[uint32]bool),
		size:   size,
	}
}

// StatsSnapshot returns a snapshot of the cache's running counters.
func (c *Cache) StatsSnapshot() Stats { return c.stats }

func (c *Cache) lookup(paddr uint32) *block {
	return c.blocks[paddr]
}

// chainValid reports whether b.chain still names a block that is
// actually present in the cache. InvalidatePhys/flush drop entries from
// c.blocks directly rather than walking every other block's chain
// pointer to null it out, so a chain pointer can go stale the moment
// self-modifying code invalidates its target; callers must check this
// before following one.
func (c *Cache) chainValid(b *block) bool {
	return b.chain != nil && c.blocks[b.chain.startPaddr] == b.chain
}

func (c *Cache) insert(b *block) {
	if len(c.blocks) >= c.size-poolMargin {
		c.flush()
	}
	c.blocks[b.startPaddr] = b
	page := pageOf(b.startPaddr)
	set := c.pages[page]
	if set == nil {
		set = make(map[uint32]bool)
		c.pages[page] = set
	}
	set[b.startPaddr] = true
	c.stats.BlocksTranslated++
}

// flush drops every cached block unconditionally (spec.md §4.F: "never
// attempt partial LRU eviction").
func (c *Cache) flush() {
	dropped := len(c.blocks)
	c.blocks = make(map[uint32]*block)
	c.pages = make(map[uint32]map[uint32]bool)
	c.stats.CacheFlushes++
	logDebugf("dbt: translation cache flushed", "blocksBeforeFlush", dropped)
}

// InvalidatePhys implements memory.CacheInvalidator: drop every cached
// block whose start address lies on a physical page that overlaps
// [paddr, paddr+length) (spec.md §4.F: "writes to code pages therefore
// self-invalidate").
func (c *Cache) InvalidatePhys(paddr uint32, length uint32) {
	first := pageOf(paddr)
	last := pageOf(paddr + length - 1)
	for page := first; ; page += 0x1000 {
		if set, ok := c.pages[page]; ok {
			for start := range set {
				delete(c.blocks, start)
			}
			delete(c.pages, page)
		}
		if page == last {
			break
		}
	}
}

// InvalidateTLBEntry implements cpu.TranslationInvalidator. Because this
// cache is keyed purely by physical address (§11 Open Question 2), a
// single TLB entry rewrite cannot invalidate any block by itself — a
// stale vaddr->block mapping would live in a vaddr-keyed chaining table,
// which this design doesn't have. Nothing to do here; kept to satisfy
// the interface and document the reasoning.
func (c *Cache) InvalidateTLBEntry(_ uint64, _ uint64, _ bool) {}

// InvalidateASID implements cpu.TranslationInvalidator: an ASID change
// makes every user-mode cached mapping suspect (spec.md §4.F), so flush
// the whole cache rather than track per-ASID ownership.
func (c *Cache) InvalidateASID(_ uint64) {
	c.flush()
}

// InvalidateAll implements cpu.TranslationInvalidator, called on mode
// changes (Status.KSU/EXL/ERL) per spec.md §4.F.
func (c *Cache) InvalidateAll() {
	c.flush()
}
