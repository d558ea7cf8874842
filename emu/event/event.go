package event

/*
 * mipscore  - Event scheduler
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

// Package event is a cycle-based event queue. emu/core keeps one per
// machine and advances it after each burst; the COP0 Count/Compare timer
// does not use it (emu/cpu ticks Count directly), and no code in this
// module schedules events on it. It has no notion of devices: the owner
// of an event is an opaque key supplied by the caller, used only to find
// the event again for cancellation.
type Callback = func(iarg int)

type Event struct {
	time  int // Number of cycles to event
	owner any // Opaque key identifying who scheduled this
	cb    Callback
	iarg  int
	prev  *Event
	next  *Event
}

// List is a per-machine queue of pending events, ordered by relative
// time (each node's time field is relative to the one before it).
type List struct {
	head *Event
	tail *Event
}

// AddEvent schedules cb(iarg) to run after time cycles of Advance. A
// time of 0 runs the callback immediately and schedules nothing.
func (el *List) AddEvent(owner any, cb Callback, time int, iarg int) {
	if time == 0 {
		cb(iarg)
		return
	}

	ev := &Event{owner: owner, cb: cb, time: time, iarg: iarg}

	evptr := el.head
	if evptr == nil {
		el.head = ev
		el.tail = ev
		return
	}

	for evptr != nil {
		if ev.time <= evptr.time {
			evptr.time -= ev.time
			ev.prev = evptr.prev
			ev.next = evptr
			evptr.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				el.head = ev
			}
			return
		}
		ev.time -= evptr.time
		evptr = evptr.next
	}

	ev.prev = el.tail
	el.tail.next = ev
	el.tail = ev
}

// CancelEvent removes the first pending event matching (owner, iarg).
func (el *List) CancelEvent(owner any, iarg int) {
	evptr := el.head
	for evptr != nil {
		if evptr.owner == owner && evptr.iarg == iarg {
			nxt := evptr.next
			if nxt != nil {
				nxt.time += evptr.time
				nxt.prev = evptr.prev
			} else {
				el.tail = evptr.prev
			}
			if evptr.prev != nil {
				evptr.prev.next = evptr.next
			} else {
				el.head = evptr.next
			}
			return
		}
		evptr = evptr.next
	}
}

// Advance moves time forward by t cycles, firing every event whose
// remaining time reaches zero or below.
func (el *List) Advance(t int) {
	evptr := el.head
	if evptr == nil {
		return
	}
	evptr.time -= t
	for evptr != nil && evptr.time <= 0 {
		evptr.cb(evptr.iarg)
		el.head = evptr.next
		evptr = el.head
		if evptr != nil {
			evptr.prev = nil
		} else {
			el.tail = nil
		}
	}
}

// Pending reports whether any event is queued.
func (el *List) Pending() bool {
	return el.head != nil
}
