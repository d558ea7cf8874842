package memory

/*
 * mipscore  - Sparse physical memory and MMIO device routing
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
	"fmt"

	"github.com/gxemu-go/mipscore/emu/device"
)

const (
	leafShift = 12         // 4 KiB leaves, same granularity as a TLB page and a DBT translation page
	leafSize  = 1 << leafShift
	leafMask  = leafSize - 1

	dirBits = 10 // 1024 leaves per directory => 4 MiB per directory
	dirSize = 1 << dirBits
	dirMask = dirSize - 1
)

type leaf = [leafSize]byte

type dir struct {
	leaves [dirSize]*leaf
}

// CacheInvalidator decouples memory from the DBT translation cache to
// avoid an import cycle: memory only needs to announce "these physical
// bytes changed", not know how the cache is organised.
type CacheInvalidator interface {
	InvalidatePhys(paddr uint32, length uint32)
}

// Memory is the physical address space of one machine: a sparse,
// demand-allocated RAM backing overlaid with registered MMIO device
// ranges. It is per-machine, not a package singleton, so co-simulation
// tests and SMP machines can each own an independent instance.
type Memory struct {
	size uint32 // Bytes of addressable physical RAM (0 = unbounded within uint32)
	dirs map[uint32]*dir

	ranges []*device.Range
	invalidator CacheInvalidator
}

// New creates a physical memory of the given size in bytes. size == 0
// means RAM is addressable up to the full 32-bit physical range (the
// sparse backing only allocates leaves that are actually touched, so
// this costs nothing until exercised).
func New(size uint32) *Memory {
	return &Memory{
		size: size,
		dirs: make(map[uint32]*dir),
	}
}

// SetInvalidator registers the DBT cache (or any observer) to be told
// about RAM writes so it can drop stale translations.
func (m *Memory) SetInvalidator(inv CacheInvalidator) {
	m.invalidator = inv
}

// RegisterDevice installs a memory-mapped device range. Overlapping
// registrations are integrator misuse (spec.md §7.5) and are rejected.
func (m *Memory) RegisterDevice(r *device.Range) error {
	if r.Base&(device.DirectAlign-1) != 0 || r.Length&(device.DirectAlign-1) != 0 {
		return fmt.Errorf("device %s: range not aligned to %#x", r.Name, device.DirectAlign)
	}
	for _, existing := range m.ranges {
		if rangesOverlap(existing, r) {
			return fmt.Errorf("device %s: overlaps existing range %s", r.Name, existing.Name)
		}
	}
	m.ranges = append(m.ranges, r)
	return nil
}

func rangesOverlap(a, b *device.Range) bool {
	return a.Base < b.Base+b.Length && b.Base < a.Base+a.Length
}

func (m *Memory) deviceFor(paddr uint32) *device.Range {
	for _, r := range m.ranges {
		if r.Contains(paddr) {
			return r
		}
	}
	return nil
}

func (m *Memory) inRange(paddr uint32) bool {
	return m.size == 0 || paddr < m.size
}

func (m *Memory) leafFor(paddr uint32, alloc bool) *leaf {
	top := paddr >> (leafShift + dirBits)
	d := m.dirs[top]
	if d == nil {
		if !alloc {
			return nil
		}
		d = &dir{}
		m.dirs[top] = d
	}
	idx := (paddr >> leafShift) & dirMask
	l := d.leaves[idx]
	if l == nil {
		if !alloc {
			return nil
		}
		l = &leaf{}
		d.leaves[idx] = l
	}
	return l
}

// ReadBytes fills buf from physical address paddr, routing through any
// registered device range. Unallocated RAM reads as zero.
func (m *Memory) ReadBytes(paddr uint32, buf []byte) bool {
	if r := m.deviceFor(paddr); r != nil {
		return m.readDevice(r, paddr, buf)
	}
	if !m.inRange(paddr) {
		return false
	}
	for len(buf) > 0 {
		l := m.leafFor(paddr, false)
		off := paddr & leafMask
		n := leafSize - off
		if n > uint32(len(buf)) {
			n = uint32(len(buf))
		}
		if l != nil {
			copy(buf[:n], l[off:off+n])
		} else {
			clear(buf[:n])
		}
		buf = buf[n:]
		paddr += n
	}
	return true
}

// WriteBytes stores buf at physical address paddr, routing through any
// registered device range, allocating RAM leaves on demand, and
// notifying the cache invalidator of the affected RAM range.
func (m *Memory) WriteBytes(paddr uint32, buf []byte) bool {
	if r := m.deviceFor(paddr); r != nil {
		return m.writeDevice(r, paddr, buf)
	}
	if !m.inRange(paddr) {
		return false
	}
	start := paddr
	remaining := buf
	for len(remaining) > 0 {
		l := m.leafFor(paddr, true)
		off := paddr & leafMask
		n := leafSize - off
		if n > uint32(len(remaining)) {
			n = uint32(len(remaining))
		}
		copy(l[off:off+n], remaining[:n])
		remaining = remaining[n:]
		paddr += n
	}
	if m.invalidator != nil {
		m.invalidator.InvalidatePhys(start, uint32(len(buf)))
	}
	return true
}

func (m *Memory) readDevice(r *device.Range, paddr uint32, buf []byte) bool {
	if !r.Readable {
		return false
	}
	off := paddr - r.Base
	if r.Direct != nil && off+uint32(len(buf)) <= uint32(len(r.Direct.Buf)) {
		copy(buf, r.Direct.Buf[off:off+uint32(len(buf))])
		return true
	}
	if r.CB == nil {
		return false
	}
	return r.CB(off, buf, device.Read, r.Extra)
}

func (m *Memory) writeDevice(r *device.Range, paddr uint32, buf []byte) bool {
	if !r.Writable {
		return false
	}
	off := paddr - r.Base
	if r.Direct != nil && r.Direct.Writable && off+uint32(len(buf)) <= uint32(len(r.Direct.Buf)) {
		copy(r.Direct.Buf[off:off+uint32(len(buf))], buf)
		r.Direct.MarkDirty(off, uint32(len(buf)))
		return true
	}
	if r.CB == nil {
		return false
	}
	return r.CB(off, buf, device.Write, r.Extra)
}
