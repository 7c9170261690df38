/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package monitor

import "time"

// Guard is a scoped acquisition of a Monitor: constructing it locks (or
// adopts an already-locked monitor), and Unlock releases it
// unconditionally if it still owns the lock. There is no Go destructor
// to do this automatically, so callers are expected to `defer
// g.Unlock()` -- the Go idiom for the source's RAII scoped_lock.
type Guard struct {
	m     *Monitor
	owned bool
}

// Acquire locks m and returns a Guard over it.
func Acquire(m *Monitor) *Guard {
	m.Lock()
	return &Guard{m: m, owned: true}
}

// Adopt wraps a Monitor the caller already holds, without locking it
// again. Used where a goroutine enters a function already holding the
// monitor (the source's boost::adopt_lock idiom).
func Adopt(m *Monitor) *Guard {
	return &Guard{m: m, owned: true}
}

// Unlock releases the underlying monitor if this Guard still owns it.
// Safe to call more than once.
func (g *Guard) Unlock() {
	if g.owned {
		g.m.Unlock()
		g.owned = false
	}
}

// Wait forwards to the underlying Monitor's Wait.
func (g *Guard) Wait() {
	g.m.Wait()
}

// WaitFor forwards to the underlying Monitor's WaitFor.
func (g *Guard) WaitFor(d time.Duration) bool {
	return g.m.WaitFor(d)
}

// Notify forwards to the underlying Monitor's Notify.
func (g *Guard) Notify() {
	g.m.Notify()
}

// NotifyAll forwards to the underlying Monitor's NotifyAll.
func (g *Guard) NotifyAll() {
	g.m.NotifyAll()
}
