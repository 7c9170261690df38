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

import "github.com/wpcore/taskpool/monitor"

// idleNotifier receives a ping from a taskSlot each time it finishes a
// task and goes idle. DirectPool implements this directly; QueuedPool
// overrides it to also wake its dispatcher (see queued.go).
type idleNotifier interface {
	idleNotification()
}

// taskSlot binds one goroutine to one optional pending Task. At most
// one task may be pending at a time: tryAssign refuses a second one
// until the first has been picked up and cleared by the worker.
type taskSlot struct {
	mon     *monitor.Monitor
	pending Task
	stopped bool

	owner  idleNotifier
	logger Logger
	done   chan struct{}
}

func newTaskSlot(owner idleNotifier, logger Logger) *taskSlot {
	s := &taskSlot{
		mon:    monitor.New(),
		owner:  owner,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// tryAssign installs t as the pending task if the slot is free.
// Ownership of t transfers to the slot only on success.
func (s *taskSlot) tryAssign(t Task) bool {
	s.mon.Lock()
	defer s.mon.Unlock()

	if s.pending != nil {
		return false
	}
	s.pending = t
	s.mon.Notify()
	return true
}

// isIdle reports whether no task is currently pending.
func (s *taskSlot) isIdle() bool {
	s.mon.Lock()
	defer s.mon.Unlock()
	return s.pending == nil
}

// requestStop asks the worker to exit after any in-flight task
// completes. It does not block; call join to wait for the exit.
func (s *taskSlot) requestStop() {
	s.mon.Lock()
	s.stopped = true
	s.mon.Notify()
	s.mon.Unlock()
}

// join blocks until the worker goroutine has exited.
func (s *taskSlot) join() {
	<-s.done
}

// run is the worker loop: acquire the slot monitor; while not stopped,
// run any pending task with the monitor released, then report idle
// while holding it again; otherwise wait.
func (s *taskSlot) run() {
	s.mon.Lock()
	for !s.stopped {
		if s.pending != nil {
			task := s.pending

			s.mon.Unlock()
			s.logger.Debug("taskslot: running task")
			task.Run()
			s.mon.Lock()

			s.pending = nil
			s.owner.idleNotification()
		} else {
			s.mon.Wait()
		}
	}
	s.mon.Unlock()

	close(s.done)
}
