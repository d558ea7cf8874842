/*
 * mipscore - Event system test cases.
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

package event

import "testing"

var stepCount uint64

type watcher struct {
	iarg int
	time uint64
}

var (
	watchA watcher
	watchB watcher
	watchC watcher
	watchD watcher
)

func (d *watcher) aCallback(iarg int) {
	d.iarg = iarg
	d.time = stepCount
}

func (d *watcher) bCallback(iarg int) {
	d.iarg = iarg
	d.time = stepCount
}

func (d *watcher) cCallback(iarg int, el *List) {
	d.iarg = iarg
	d.time = stepCount
	el.AddEvent(&watchA, watchA.aCallback, iarg, iarg)
}

func (d *watcher) dCallback(iarg int) {
	d.iarg = iarg
	d.time = stepCount
}

func initTest() *List {
	stepCount = 0
	watchA = watcher{}
	watchB = watcher{}
	watchC = watcher{}
	watchD = watcher{}
	return &List{}
}

func TestAddEvent1(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 1)
	for range 20 {
		stepCount++
		el.Advance(1)
	}
	if watchA.time != 10 {
		t.Errorf("Event did not fire at correct time %d got %d", 10, watchA.time)
	}
	if watchA.iarg != 1 {
		t.Errorf("Event did not set data correct %d got %d", 1, watchA.iarg)
	}
}

func TestAddEvent2(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 1)
	el.AddEvent(&watchB, watchB.bCallback, 5, 2)
	for range 20 {
		stepCount++
		el.Advance(1)
	}
	if watchA.time != 10 || watchA.iarg != 1 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 5 || watchB.iarg != 2 {
		t.Errorf("Event B wrong: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
}

func TestAddEvent3(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 1)
	el.AddEvent(&watchB, watchB.bCallback, 10, 2)
	for range 20 {
		stepCount++
		el.Advance(1)
	}
	if watchA.time != 10 || watchA.iarg != 1 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 10 || watchB.iarg != 2 {
		t.Errorf("Event B wrong: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
}

func TestAddEvent4(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 20, 5)
	el.AddEvent(&watchC, func(iarg int) { watchC.cCallback(iarg, el) }, 10, 2)
	for range 30 {
		stepCount++
		el.Advance(1)
	}
	if watchA.time != 20 || watchA.iarg != 5 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchC.time != 10 || watchC.iarg != 2 {
		t.Errorf("Event C wrong: time=%d iarg=%d", watchC.time, watchC.iarg)
	}
}

func TestAddEvent5(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 20, 1)
	el.AddEvent(&watchB, watchB.bCallback, 20, 2)
	el.AddEvent(&watchD, watchD.dCallback, 25, 3)
	for range 30 {
		stepCount++
		el.Advance(1)
	}
	if watchA.time != 20 || watchA.iarg != 1 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 20 || watchB.iarg != 2 {
		t.Errorf("Event B wrong: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
	if watchD.time != 25 || watchD.iarg != 3 {
		t.Errorf("Event D wrong: time=%d iarg=%d", watchD.time, watchD.iarg)
	}
}

func TestAddEvent6(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 5)
	el.AddEvent(&watchB, watchB.bCallback, 20, 2)
	for range 30 {
		stepCount++
		el.Advance(1)
		if watchA.iarg == 5 {
			el.CancelEvent(&watchB, 2)
		}
	}
	if watchA.time != 10 || watchA.iarg != 5 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 0 || watchB.iarg != 0 {
		t.Errorf("Event B should not have fired: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
}

func TestAddEvent7(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 5)
	el.AddEvent(&watchB, watchB.bCallback, 20, 2)
	el.AddEvent(&watchD, watchD.dCallback, 30, 3)
	for range 30 {
		stepCount++
		el.Advance(1)
		if watchA.iarg == 5 {
			el.CancelEvent(&watchB, 2)
		}
	}
	if watchA.time != 10 || watchA.iarg != 5 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 0 || watchB.iarg != 0 {
		t.Errorf("Event B should not have fired: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
	if watchD.time != 30 || watchD.iarg != 3 {
		t.Errorf("Event D wrong: time=%d iarg=%d", watchD.time, watchD.iarg)
	}
}

func TestAddEvent8(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 10, 5)
	el.AddEvent(&watchB, watchB.bCallback, 40, 2)
	el.AddEvent(&watchD, watchD.dCallback, 30, 3)
	el.AddEvent(&watchD, watchD.dCallback, 50, 4)
	for range 60 {
		stepCount++
		el.Advance(1)
		if watchA.iarg == 5 {
			el.CancelEvent(&watchB, 2)
			el.CancelEvent(&watchD, 4)
		}
	}
	if watchA.time != 10 || watchA.iarg != 5 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
	if watchB.time != 0 || watchB.iarg != 0 {
		t.Errorf("Event B should not have fired: time=%d iarg=%d", watchB.time, watchB.iarg)
	}
	if watchD.time != 30 || watchD.iarg != 3 {
		t.Errorf("Event D wrong: time=%d iarg=%d", watchD.time, watchD.iarg)
	}
}

func TestAddEvent9(t *testing.T) {
	el := initTest()
	el.AddEvent(&watchA, watchA.aCallback, 0, 5)
	if watchA.time != 0 || watchA.iarg != 5 {
		t.Errorf("Event A wrong: time=%d iarg=%d", watchA.time, watchA.iarg)
	}
}
