/*
   mipscore DBT block builder.

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

// maxBlockInstrs bounds how many guest instructions one block may hold
// (spec.md §4.F: "never translate more than a budgeted count of
// instructions per block").
const maxBlockInstrs = 256

// translate builds a block starting at the physical address paddr by
// reading raw instruction words directly out of physical memory (valid
// because guest code pages don't move once paged in) and folding in
// every translatable instruction until it hits one of the three stop
// conditions from spec.md §4.F: an untranslatable opcode, a 4 KiB page
// boundary, or the per-block instruction budget.
//
// translate does not decode branch targets or follow control flow: the
// closures it builds call straight into cpu.ExecDecoded, which already
// implements delay-slot bookkeeping, so block building only needs to
// know "is this word translatable", not what it does.
func translate(mem *memory.Memory, paddr uint32, bigEndian bool) *block {
	b := &block{startPaddr: paddr}
	addr := paddr
	page := pageOf(paddr)

	for len(b.ops) < maxBlockInstrs {
		if pageOf(addr) != page {
			break
		}
		var buf [4]byte
		if !mem.ReadBytes(addr, buf[:]) {
			break
		}
		word := cpu.AssembleWord(buf, bigEndian)
		if !cpu.IsTranslatable(word) {
			break
		}
		b.ops = append(b.ops, makeOp(word))
		addr += 4
	}

	if len(b.ops) < minBlockLen {
		return nil
	}
	return b
}
