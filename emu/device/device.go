/*
mipscore MMIO device interface

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
package device

// Direction of an access dispatched to a device callback.
type Direction int

const (
	Read Direction = iota
	Write
)

// Callback is invoked when an access lands inside a registered range and
// cannot be served by a direct host buffer. It returns false on failure,
// which the caller turns into a bus-error exception.
type Callback func(offset uint32, buf []byte, direction Direction, extra any) bool

// DirectBuffer is an optional host-memory fast path for a device range
// (e.g. a framebuffer). Accesses that fit entirely inside the buffer are
// served without invoking Callback; Low/High track the dirty window for
// the device to query on its next service cycle.
type DirectBuffer struct {
	Buf      []byte
	Writable bool

	low, high uint32
	dirty     bool
}

// MarkDirty records a write to [off, off+n) in the dirty window.
func (d *DirectBuffer) MarkDirty(off, n uint32) {
	high := off + n
	if !d.dirty || off < d.low {
		d.low = off
	}
	if !d.dirty || high > d.high {
		d.high = high
	}
	d.dirty = true
}

// Watermark returns and clears the current dirty window.
func (d *DirectBuffer) Watermark() (low, high uint32, dirty bool) {
	low, high, dirty = d.low, d.high, d.dirty
	d.low, d.high, d.dirty = 0, 0, false
	return low, high, dirty
}

// Range describes a memory-mapped device window registered with the
// physical memory store (component B). Device ranges shadow RAM: any
// access inside [Base, Base+Length) never touches the sparse backing.
type Range struct {
	Name     string
	Base     uint32
	Length   uint32
	Readable bool
	Writable bool
	CB       Callback
	Extra    any
	Direct   *DirectBuffer
}

// Contains reports whether paddr lies inside the range.
func (r *Range) Contains(paddr uint32) bool {
	return paddr >= r.Base && paddr < r.Base+r.Length
}

// NoDevice is the sentinel config-line address meaning "none selected".
const NoDevice uint16 = 0xffff

// DirectAlign is the alignment required of device ranges and direct
// buffers so the DBT fast path (emu/dbt) can reach them without a range
// straddling a host page.
const DirectAlign = 0x1000
