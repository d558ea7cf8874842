/*
   mipscore DBT runtime: the fuel-bounded execution loop (spec.md §4.G).

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

import (
	"github.com/gxemu-go/mipscore/emu/cpu"
	"github.com/gxemu-go/mipscore/emu/memory"
)

// DefaultFuel is the "~8000 instructions" safety limit from spec.md
// §4.G, bounding both a translated burst and an SMP round-robin slice.
const DefaultFuel = 8000

// ExitReason reports why Enter returned control to the caller, matching
// the suspension points enumerated in spec.md §5.
type ExitReason int

const (
	ExitTimeslice ExitReason = iota
	ExitFault
	ExitHalted
)

// Runtime drives one machine's dispatch loop across the interpreter and
// the translation cache, chaining cached blocks back-to-back until fuel
// runs out or a suspension point is hit (spec.md §4.G, §5). It owns no
// CPU state itself so the same Runtime can round-robin several CPUs.
type Runtime struct {
	Cache *Cache
}

// NewRuntime creates a runtime with a translation cache sized for
// cacheSize blocks.
func NewRuntime(cacheSize int) *Runtime {
	return &Runtime{Cache: NewCache(cacheSize)}
}

// Enter runs s for up to fuel instructions, consulting and growing the
// translation cache as it goes, and returns the number of guest
// instructions retired plus why it stopped (spec.md §4.G fuel
// accounting, §5 suspension points).
func (rt *Runtime) Enter(s *cpu.State, mem *memory.Memory, fuel int) (int, ExitReason) {
	executed := 0
	var prev *block

	for executed < fuel {
		if s.Halted() {
			return executed, ExitHalted
		}

		var b *block
		if prev != nil && rt.Cache.chainValid(prev) {
			// Direct chain pointer from the last iteration: skip the
			// Translate/MMU-walk round-trip entirely (spec.md §4.F:
			// "if non-null, jumps directly to it"). Still a map lookup
			// under chainValid, since self-modifying code can have
			// evicted the target without clearing this pointer.
			b = prev.chain
			rt.Cache.stats.ChainHits++
		} else {
			if prev != nil && prev.chain != nil {
				prev.chain = nil // stale; force a fresh resolution below
			}
			if paddr, ok := s.Translate(s.PC(), cpu.IntentInstr, cpu.NoExceptions); ok {
				b = rt.Cache.lookup(uint32(paddr))
				if b == nil {
					b = translate(mem, uint32(paddr), s.BigEndian())
					if b != nil {
						rt.Cache.insert(b)
					}
				}
			}
			if prev != nil {
				rt.Cache.stats.ChainMisses++
			}
		}

		if b == nil {
			// Unmapped/TLB-miss/untranslatable/too-short: fall back to
			// the full interpreter for one instruction, which performs
			// its own fetch and can raise the correct exception.
			code := s.Step()
			executed++
			rt.Cache.stats.InstrsExecuted++
			prev = nil
			if !cpu.Continues(code) {
				return executed, ExitFault
			}
			continue
		}

		remaining := fuel - executed
		n, code, complete := rt.runBlock(s, b, remaining)
		executed += n
		rt.Cache.stats.InstrsExecuted += int64(n)
		if !cpu.Continues(code) {
			return executed, ExitFault
		}
		if !complete {
			return executed, ExitTimeslice
		}

		// Resolve what runs next and cache it on b.chain so a repeat
		// visit to this same block takes the fast path above instead of
		// translating/looking up again.
		if b.chain == nil {
			if nextPaddr, ok := s.Translate(s.PC(), cpu.IntentInstr, cpu.NoExceptions); ok {
				next := rt.Cache.lookup(uint32(nextPaddr))
				if next == nil {
					next = translate(mem, uint32(nextPaddr), s.BigEndian())
					if next != nil {
						rt.Cache.insert(next)
					}
				}
				b.chain = next
			}
		}
		prev = b
	}
	return executed, ExitTimeslice
}

// runBlock replays a block's pre-decoded words against s, stopping
// early if fuel runs out mid-block or an op raises an exception.
// complete reports whether every op in the block ran.
func (rt *Runtime) runBlock(s *cpu.State, b *block, fuel int) (n int, code uint16, complete bool) {
	code = cpu.ContinueCode()
	for _, op := range b.ops {
		if n >= fuel {
			return n, code, false
		}
		code = op(s)
		n++
		if !cpu.Continues(code) {
			return n, code, false
		}
	}
	return n, code, true
}
