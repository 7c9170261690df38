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

// Package monitor provides Monitor, the sole locking and signalling
// primitive used by package pool. A Monitor couples a mutex, a
// condition variable and the identity of its current owner.
//
// It is deliberately not a plain sync.Mutex: it stamps ownership so a
// second Lock from the same goroutine is rejected rather than
// deadlocking or silently behaving as a reentrant lock would. Recursive
// locking is a frequent source of latent bugs in pool/dispatcher code,
// so this core makes it an explicit, observable failure instead.
package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wpcore/taskpool/internal/goroutineid"
)

// lockPollInterval is the spin granularity used by TryLockFor, matching
// the 10ms polling the source implementation used for its timed lock.
const lockPollInterval = 10 * time.Millisecond

// TryLockResult is the outcome of a non-blocking TryLock attempt.
type TryLockResult int

const (
	// BUSY indicates the monitor is held by another goroutine.
	BUSY TryLockResult = iota
	// LOCKED indicates the monitor was free and is now held by the caller.
	LOCKED
	// OWNED indicates the calling goroutine already held the monitor.
	OWNED
)

func (r TryLockResult) String() string {
	switch r {
	case OWNED:
		return "OWNED"
	case LOCKED:
		return "LOCKED"
	default:
		return "BUSY"
	}
}

// Monitor is a mutex + condition variable + owner composite. All of its
// methods are safe to call from multiple goroutines, but Lock is
// non-reentrant by contract: see the package doc.
//
// owner/heldFlag are updated with atomics so that the re-entrance check
// in Lock can be made without first acquiring mu -- a goroutine that
// already holds mu cannot safely try to lock it again to inspect its
// own ownership. This mirrors the check-then-lock structure of the
// source implementation (which has the same narrow TOCTOU window
// between comparing the owning thread id and acquiring the mutex).
type Monitor struct {
	mu   sync.Mutex
	cond *sync.Cond

	owner    uint64
	heldFlag uint32 // 0 or 1, guarded by atomics
	signal   bool   // guarded by mu
}

// New creates an unlocked Monitor.
func New() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Monitor) isOwnedBy(gid uint64) bool {
	return atomic.LoadUint32(&m.heldFlag) == 1 && atomic.LoadUint64(&m.owner) == gid
}

func (m *Monitor) stampOwner(gid uint64) {
	atomic.StoreUint64(&m.owner, gid)
	atomic.StoreUint32(&m.heldFlag, 1)
}

func (m *Monitor) clearOwner() {
	atomic.StoreUint32(&m.heldFlag, 0)
	atomic.StoreUint64(&m.owner, 0)
}

// Lock acquires the monitor, blocking until it is available. It returns
// false without blocking if the calling goroutine already holds it --
// that is a usage error, not a recursive acquisition.
func (m *Monitor) Lock() bool {
	gid := goroutineid.Current()
	if m.isOwnedBy(gid) {
		return false
	}

	m.mu.Lock()
	m.stampOwner(gid)
	return true
}

// TryLockFor spins with lockPollInterval sleeps until the monitor is
// acquired or d elapses. Returns false on timeout.
func (m *Monitor) TryLockFor(d time.Duration) bool {
	gid := goroutineid.Current()
	if m.isOwnedBy(gid) {
		return false
	}

	deadline := time.Now().Add(d)
	for {
		if m.mu.TryLock() {
			m.stampOwner(gid)
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(lockPollInterval)
	}
}

// TryLock attempts to acquire the monitor without blocking, returning
// which of OWNED, LOCKED or BUSY occurred.
func (m *Monitor) TryLock() TryLockResult {
	gid := goroutineid.Current()
	if m.isOwnedBy(gid) {
		return OWNED
	}
	if m.mu.TryLock() {
		m.stampOwner(gid)
		return LOCKED
	}
	return BUSY
}

// Unlock releases the monitor. Returns false if the caller does not
// currently hold it.
func (m *Monitor) Unlock() bool {
	gid := goroutineid.Current()
	if !m.isOwnedBy(gid) {
		return false
	}
	m.clearOwner()
	m.mu.Unlock()
	return true
}

// Wait releases the monitor, blocks until Notify/NotifyAll wakes it,
// reacquires it, and loops while the signal flag remains false. The
// caller must hold the monitor; if it does not, Wait returns at once
// without waiting.
func (m *Monitor) Wait() {
	if !m.isOwnedBy(goroutineid.Current()) {
		return
	}
	m.signal = false
	for !m.signal {
		m.clearOwner()
		m.cond.Wait()
		m.stampOwner(goroutineid.Current())
	}
}

// WaitFor is Wait with a deadline. Returns false on timeout; the
// monitor is reacquired either way. Implemented by releasing the
// monitor and polling for the deadline the same way the condition
// variable is driven elsewhere in this package: Go's sync.Cond has no
// native wait-with-deadline, so a helper goroutine wakes the waiter at
// the deadline if nothing else has.
func (m *Monitor) WaitFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	m.signal = false

	timer := time.AfterFunc(d, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer timer.Stop()

	for !m.signal {
		if time.Now().After(deadline) {
			return false
		}
		m.clearOwner()
		m.cond.Wait()
		m.stampOwner(goroutineid.Current())
	}
	return true
}

// Notify sets the signal flag and wakes a single waiter. Caller must
// hold the monitor.
func (m *Monitor) Notify() {
	m.signal = true
	m.cond.Signal()
}

// NotifyAll sets the signal flag and wakes every waiter. Caller must
// hold the monitor.
func (m *Monitor) NotifyAll() {
	m.signal = true
	m.cond.Broadcast()
}

// Close is the destructor-equivalent contract from the source design:
// if a goroutine is blocked on this monitor's condition variable at
// teardown, Close notifies it and yields briefly rather than leaving
// it stuck forever. Safe to call whether or not the caller already
// holds the monitor.
func (m *Monitor) Close() {
	gid := goroutineid.Current()
	if m.isOwnedBy(gid) {
		m.NotifyAll()
		m.Unlock()
		time.Sleep(lockPollInterval)
		return
	}

	if m.TryLockFor(5 * lockPollInterval) {
		m.NotifyAll()
		m.Unlock()
		time.Sleep(lockPollInterval)
	}
}
