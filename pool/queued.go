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
	"container/list"
	"math/rand"
	"time"

	"github.com/wpcore/taskpool/monitor"
)

// maxDispatchBackoff bounds the random delay a QueuedPool's dispatcher
// sleeps after a failed assignment attempt, before rescanning the base
// pool's slots.
const maxDispatchBackoff = 113 * time.Millisecond

// QueuedPool pairs a DirectPool with an unbounded FIFO backlog. Execute
// never blocks the caller: a submission that finds every worker busy
// simply waits in the backlog for the dispatcher goroutine to place it.
//
// QueuedPool is composed from a DirectPool, not derived from one: it
// owns its own monitor guarding the backlog and dispatcher state, kept
// separate from the base pool's monitor. The only acquisition order
// used anywhere in this package is pool-monitor then slot-monitor, and
// QueuedPool's monitor and its base's monitor are never held together.
type QueuedPool struct {
	base *DirectPool

	mon     *monitor.Monitor
	backlog *list.List
	started bool
	stopped bool
	done    chan struct{}

	logger Logger
}

var _ idleNotifier = (*QueuedPool)(nil)

// NewQueuedPool creates a QueuedPool. Its base DirectPool's slots are
// wired to report idle notifications here instead of to an internal
// DirectPool instance, via newDirectPool's notifier override.
func NewQueuedPool(cfg QueuedPoolConfig) (*QueuedPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nullLogger()
	}

	q := &QueuedPool{
		mon:     monitor.New(),
		backlog: list.New(),
		done:    make(chan struct{}),
		logger:  logger,
	}

	base, err := newDirectPool(DirectPoolConfig{
		Size:      cfg.Size,
		StackSize: cfg.StackSize,
		Logger:    logger,
	}, q)
	if err != nil {
		return nil, err
	}
	q.base = base

	if cfg.AutoStart {
		q.Start()
	}

	return q, nil
}

// idleNotification implements idleNotifier. A slot in the base pool
// going idle means the dispatcher may now be able to place a queued
// task, so it is woken first; the notification is then propagated to
// the base pool's own monitor so that any goroutine blocked directly
// on base.Execute also gets a chance to rescan.
func (q *QueuedPool) idleNotification() {
	q.mon.Lock()
	q.mon.Notify()
	q.mon.Unlock()

	q.base.idleNotification()
}

// Execute appends t to the backlog and returns immediately.
func (q *QueuedPool) Execute(t Task) {
	q.mon.Lock()
	q.backlog.PushBack(t)
	q.mon.Notify()
	q.mon.Unlock()
}

// Start launches the dispatcher goroutine. Calling Start more than
// once has no additional effect.
func (q *QueuedPool) Start() {
	q.mon.Lock()
	if q.started {
		q.mon.Unlock()
		return
	}
	q.started = true
	q.mon.Unlock()

	go q.dispatch()
}

// dispatch is the QueuedPool's background scheduler: pop the oldest
// backlog entry and hand it to the base pool, retrying with a
// randomized backoff when every slot is busy.
//
// The monitor is released for both the assignment attempt and the
// backoff sleep. Holding it across either would block Execute and
// idleNotification, the two callers that need to reach this monitor
// from elsewhere, for the duration of a potentially-unbounded task
// placement or a deliberate wait.
func (q *QueuedPool) dispatch() {
	q.mon.Lock()
	for {
		for !q.stopped && q.backlog.Len() == 0 {
			q.mon.Wait()
		}
		if q.stopped {
			break
		}

		front := q.backlog.Front()
		task := front.Value.(Task)
		q.mon.Unlock()

		assigned := q.base.tryAssignAny(task)

		q.mon.Lock()
		if assigned {
			q.backlog.Remove(front)
			continue
		}

		q.mon.Unlock()
		q.logger.Debug("queuedpool: backoff, no idle worker")
		time.Sleep(time.Duration(rand.Intn(int(maxDispatchBackoff))))
		q.mon.Lock()
	}
	q.mon.Unlock()

	close(q.done)
}

// Stop asks the dispatcher to exit once it next checks its stop flag,
// without draining the backlog into the base pool first, and waits for
// it to exit. Queued tasks that never reached a worker remain in the
// backlog and are not run.
func (q *QueuedPool) Stop() {
	q.mon.Lock()
	started := q.started
	q.stopped = true
	q.mon.NotifyAll()
	q.mon.Unlock()

	if started {
		<-q.done
	}
}

// Terminate stops the dispatcher and then terminates the base pool,
// joining every worker goroutine. Safe to call whether or not Start
// was ever called.
func (q *QueuedPool) Terminate() {
	q.Stop()
	q.base.Terminate()
}

// IsIdle reports whether the dispatcher is alive, the backlog is
// empty, and every base pool slot is idle -- matching
// QueuedThreadPool::is_idle() in the source design
// (is_alive() && queue.empty() && ThreadPool::is_idle()). A dispatcher
// that was never started, or has already been stopped, can never
// place a newly queued task, so such a pool is not considered idle
// merely because its backlog happens to be empty.
func (q *QueuedPool) IsIdle() bool {
	q.mon.Lock()
	alive := q.started && !q.stopped
	empty := q.backlog.Len() == 0
	q.mon.Unlock()

	return alive && empty && q.base.IsIdle()
}

// IsBusy reports whether the backlog holds undispatched work or every
// base pool slot currently has a task -- matching
// QueuedThreadPool::is_busy() in the source design
// (!queue.empty() || ThreadPool::is_busy()).
func (q *QueuedPool) IsBusy() bool {
	q.mon.Lock()
	nonEmpty := q.backlog.Len() > 0
	q.mon.Unlock()

	return nonEmpty || q.base.IsBusy()
}

// QueueLength returns the number of tasks currently waiting in the
// backlog, not yet handed to a worker.
func (q *QueuedPool) QueueLength() int {
	q.mon.Lock()
	defer q.mon.Unlock()
	return q.backlog.Len()
}

// Size returns the fixed number of worker goroutines in the base pool.
func (q *QueuedPool) Size() int {
	return q.base.Size()
}
