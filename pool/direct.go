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

package pool

import (
	"runtime"

	"github.com/wpcore/taskpool/monitor"
)

// DirectPool is a fixed roster of worker goroutines. Execute blocks the
// caller until some worker accepts the task; there is no backlog.
//
// The scheduling algorithm scans slots in fixed construction order,
// which biases assignment toward low-index slots -- fairness across
// slots is not guaranteed, and neither is any order between concurrent
// submissions.
type DirectPool struct {
	mon       *monitor.Monitor
	slots     []*taskSlot
	stackSize int
	logger    Logger
}

var _ idleNotifier = (*DirectPool)(nil)

// NewDirectPool creates a DirectPool and starts all of its worker
// goroutines. A zero Size is legal and produces a pool whose Execute
// never returns -- useful only as the base of a QueuedPool.
func NewDirectPool(cfg DirectPoolConfig) (*DirectPool, error) {
	return newDirectPool(cfg, nil)
}

// newDirectPool is the shared constructor used directly by
// NewDirectPool and, with a non-nil notifier, by QueuedPool so that its
// base pool's slots report idle notifications to the QueuedPool instead
// of to this DirectPool (see queued.go's idleNotification override).
func newDirectPool(cfg DirectPoolConfig, notifier idleNotifier) (*DirectPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nullLogger()
	}

	stackSize := cfg.StackSize
	if stackSize == 0 {
		stackSize = DefaultStackSize
	}

	p := &DirectPool{
		mon:       monitor.New(),
		stackSize: stackSize,
		logger:    logger,
	}

	if notifier == nil {
		notifier = p
	}

	p.slots = make([]*taskSlot, cfg.Size)
	for i := range p.slots {
		p.slots[i] = newTaskSlot(notifier, logger)
	}

	return p, nil
}

// idleNotification implements idleNotifier: a slot pings the pool after
// finishing a task so that goroutines blocked in Execute can rescan.
func (p *DirectPool) idleNotification() {
	p.mon.Lock()
	p.mon.Notify()
	p.mon.Unlock()
}

// Execute submits t, blocking until some worker accepts it.
//
// The pool monitor is released before each tryAssign call: tryAssign
// takes the slot's own monitor, and pool-then-slot is the only
// admissible acquisition order. Holding both at once would risk
// deadlock against a worker, whose idle notification acquires the pool
// monitor from inside its own slot's run loop.
func (p *DirectPool) Execute(t Task) {
	p.mon.Lock()
	for {
		for _, s := range p.slots {
			if s.isIdle() {
				p.mon.Unlock()
				runtime.Gosched()

				if s.tryAssign(t) {
					return
				}
				p.mon.Lock()
			}
		}
		p.mon.Wait()
	}
}

// tryAssignAny is DirectPool's non-blocking assignment primitive: a
// single scan over the slots, handing t to the first idle one that
// accepts it. It never touches the pool monitor -- only the slots' own
// monitors -- so QueuedPool's dispatcher can call it while holding only
// its own monitor (see queued.go).
func (p *DirectPool) tryAssignAny(t Task) bool {
	for _, s := range p.slots {
		if s.isIdle() && s.tryAssign(t) {
			return true
		}
	}
	return false
}

// IsIdle reports whether every slot in the pool is idle.
func (p *DirectPool) IsIdle() bool {
	p.mon.Lock()
	defer p.mon.Unlock()

	for _, s := range p.slots {
		if !s.isIdle() {
			return false
		}
	}
	return true
}

// IsBusy reports whether every slot in the pool currently has a task.
func (p *DirectPool) IsBusy() bool {
	p.mon.Lock()
	defer p.mon.Unlock()

	for _, s := range p.slots {
		if s.isIdle() {
			return false
		}
	}
	return true
}

// Size returns the fixed number of worker goroutines in the pool.
func (p *DirectPool) Size() int {
	return len(p.slots)
}

// StackSize returns the pool's advisory worker stack size.
func (p *DirectPool) StackSize() int {
	p.mon.Lock()
	defer p.mon.Unlock()
	return p.stackSize
}

// SetStackSize updates the advisory stack size. It does not restart
// any running worker: Go goroutines cannot be resized, and this value
// has no effect on already-started workers in this pool. It exists for
// API parity with the source design.
func (p *DirectPool) SetStackSize(n int) {
	p.mon.Lock()
	p.stackSize = n
	p.mon.Unlock()
}

// Terminate signals every slot to stop and wakes every goroutine
// blocked in Execute so that it rescans the slots, then joins all
// worker goroutines. Execute keeps no terminated state: a rescan (or a
// later Execute) can hand its task to a stopped slot, where it is never
// run.
//
// The stop request and the join are deliberately split: joining while
// still holding the pool monitor would deadlock against a worker
// finishing its in-flight task, since its idle notification needs to
// acquire that same monitor.
func (p *DirectPool) Terminate() {
	p.mon.Lock()
	for _, s := range p.slots {
		s.requestStop()
	}
	p.mon.NotifyAll()
	p.mon.Unlock()

	for _, s := range p.slots {
		s.join()
	}
}
