/*
   mipscore Count/Compare timer.

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

// tickCount advances CP0.Count by one per retired instruction (a
// simplification of the usual "every other cycle" rule; this core has
// no separate cycle clock, spec.md §4.D) and edge-triggers Cause.IP7
// when Count reaches Compare.
func (s *State) tickCount() {
	prev := uint32(s.cp0[CP0Count])
	next := prev + 1
	s.cp0[CP0Count] = uint64(next)
	if next == uint32(s.cp0[CP0Compare]) {
		s.cp0[CP0Cause] |= 1 << (causeIP0Shift + 7)
	}
}
