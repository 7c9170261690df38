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

// Package pool implements the worker-pool execution core: DirectPool, a
// fixed roster of workers, and QueuedPool, a DirectPool fronted by a
// dispatcher with an unbounded FIFO backlog. Both are built on top of
// package monitor.
package pool

// Task is an opaque, owned unit of work: run to completion, nothing
// returned. The pool takes ownership of a Task at submission and drops
// its reference after the worker's Run returns (or at shutdown if the
// task was never dispatched). A Task must be safe to hand across
// goroutines -- it is constructed by one goroutine and run by another.
//
// There is deliberately no result, no context and no cancellation here:
// those are explicit non-goals of this core. A Task that needs any of
// that should wrap its own channel or context internally.
type Task interface {
	// Run performs the work. A panic from Run propagates out of the
	// worker goroutine uncaught -- this core treats a failing task as a
	// programming error, not a recoverable condition.
	Run()
}

// TaskFunc adapts an ordinary function to Task.
type TaskFunc func()

var _ Task = TaskFunc(nil)

// Run implements Task.
func (f TaskFunc) Run() { f() }
