/*
   mipscore Machine orchestrator: dispatch loop and SMP round-robin.

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

// Package core wires a CPU, its memory, and its translation runtime into
// one Machine and drives the dispatch loop described in spec.md §2/§5:
// single-threaded, cooperative, with SMP handled by round-robin
// interleaving at fuel-bounded-burst granularity rather than real
// concurrency.
package core

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/gxemu-go/mipscore/emu/cpu"
	"github.com/gxemu-go/mipscore/emu/dbt"
	"github.com/gxemu-go/mipscore/emu/event"
	"github.com/gxemu-go/mipscore/emu/memory"
)

// processor bundles one emulated CPU with the translation runtime it
// shares with nothing else: spec.md §5 keeps the cache per-CPU-visible
// state untouched while other CPUs run, so no locking is required.
type processor struct {
	cpu     *cpu.State
	runtime *dbt.Runtime
	halted  bool
}

// Machine owns every emulated CPU in one system plus the physical memory
// and event queue they share (spec.md §5: "shared across emulated CPUs;
// mutation happens only from the currently running CPU").
type Machine struct {
	Mem   *memory.Memory
	procs []*processor
	clock event.List
	fuel  int
	stop  atomic.Bool
}

// RequestStop asks Run to return at the next main-loop iteration
// (spec.md §5: "execution proceeds until a host-level stop signal...
// which is polled at each main-loop return"). Safe to call from a
// different goroutine than the one inside Run, e.g. a signal handler.
func (m *Machine) RequestStop() {
	m.stop.Store(true)
}

// New builds a Machine with n identical CPUs of the given variant sharing
// mem, each with its own translation cache (spec.md §4.F: the cache is
// per-CPU since two cores may legitimately hold different translations of
// the same physical page under different pipeline assumptions — this
// module makes no such assumption, but keeping the cache per-CPU avoids a
// cross-CPU invalidation race entirely, matching the no-locking model in
// §5).
func New(variant *cpu.Variant, bigEndian bool, mem *memory.Memory, n int, cacheSize int) (*Machine, error) {
	if n <= 0 {
		return nil, errors.New("core: machine needs at least one CPU")
	}
	m := &Machine{Mem: mem, fuel: dbt.Config.Fuel()}
	for i := 0; i < n; i++ {
		s, err := cpu.New(variant, bigEndian, mem)
		if err != nil {
			return nil, err
		}
		rt := dbt.NewRuntime(cacheSize)
		s.SetTranslationInvalidator(rt.Cache)
		m.procs = append(m.procs, &processor{cpu: s, runtime: rt})
	}
	mem.SetInvalidator(m)
	return m, nil
}

// InvalidatePhys implements memory.CacheInvalidator by fanning out to
// every CPU's own translation cache: physical memory is shared, so a
// store from any one CPU can stale a translation cached by any other.
func (m *Machine) InvalidatePhys(paddr uint32, length uint32) {
	for _, p := range m.procs {
		p.runtime.Cache.InvalidatePhys(paddr, length)
	}
}

// CPU returns the i'th emulated CPU, for host-API register/PC/TLB access
// (spec.md §6's cpu_set_pc/cpu_reg_read/cpu_tlb_set_entry surface).
func (m *Machine) CPU(i int) *cpu.State {
	return m.procs[i].cpu
}

// NumCPU returns how many CPUs this machine was built with.
func (m *Machine) NumCPU() int {
	return len(m.procs)
}

// RunResult reports why Run returned, mirroring spec.md §6's cpu_run
// reason set {completed, halted, breakpoint}; this module has no
// breakpoint support (front-end concern, out of scope), so only the
// first two apply, plus a fault passthrough for the host to inspect COP0
// and RunStopped after RequestStop.
type RunResult int

const (
	RunCompleted RunResult = iota
	RunHalted
	RunFault
	RunStopped
)

// Run executes up to n instructions total, round-robining every CPU in
// bursts of dbt.Config.Fuel() instructions per spec.md §5's scheduling
// model (through the DBT runtime, or cpu.State.Run when JIT is off), and
// advances the shared event queue by the instructions each burst retired
// (Count bookkeeping happens per instruction inside the CPU, so Advance
// here only drives Count-independent per-burst housekeeping).
func (m *Machine) Run(n int) (int, RunResult) {
	executed := 0
	for executed < n {
		if m.stop.Load() {
			m.stop.Store(false)
			return executed, RunStopped
		}
		anyRunning := false
		for _, p := range m.procs {
			if p.halted {
				continue
			}
			anyRunning = true

			burst := m.fuel
			if remaining := n - executed; remaining < burst {
				burst = remaining
			}

			var ran int
			var reason dbt.ExitReason
			if dbt.Config.JIT {
				ran, reason = p.runtime.Enter(p.cpu, m.Mem, burst)
			} else {
				ran = p.cpu.Run(burst)
				reason = dbt.ExitTimeslice
				if p.cpu.Halted() {
					reason = dbt.ExitHalted
				}
			}
			executed += ran

			switch reason {
			case dbt.ExitHalted:
				p.halted = true
				slog.Debug("core: CPU halted")
			case dbt.ExitFault:
				return executed, RunFault
			}

			if m.clock.Pending() {
				m.clock.Advance(ran)
			}

			if executed >= n {
				break
			}
		}
		if !anyRunning {
			return executed, RunHalted
		}
	}
	return executed, RunCompleted
}
