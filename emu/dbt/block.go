/*
   mipscore DBT: a translated block of pre-decoded guest instructions.

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

import "github.com/gxemu-go/mipscore/emu/cpu"

// dbtOp is the "host code" unit (SPEC_FULL.md §11 Open Question 1): a
// closure over one pre-decoded guest instruction word, invoked directly
// against the architectural state rather than emitted as real machine
// code. A block is just a slice of these, run back-to-back by the
// runtime until one signals an exit.
type dbtOp func(s *cpu.State) uint16

// block is one translated run of guest instructions, keyed by the
// physical address of its first instruction (spec.md §4.F: "operates on
// physical-address blocks, which keeps translations valid across
// process switches and TLB refills").
type block struct {
	startPaddr uint32
	ops        []dbtOp
	// chain is a direct pointer to whatever block ran after this one last
	// time, set lazily by the runtime the first time it falls off the
	// end of this block (spec.md §4.F chaining). It can go stale if
	// invalidation later evicts the target; Cache.chainValid guards
	// every read of this field.
	chain *block
}

func makeOp(word uint32) dbtOp {
	return func(s *cpu.State) uint16 {
		return s.ExecDecoded(word)
	}
}

// minBlockLen is the drop threshold from spec.md §4.F ("drop blocks
// shorter than 2 instructions"): anything shorter isn't worth caching,
// the interpreter handles it instruction-by-instruction instead.
const minBlockLen = 2
