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

// DefaultStackSize is the advisory worker stack size used when a
// config leaves StackSize unset. Go goroutines grow their stacks
// on demand, so this has no effect on the runtime; it exists only for
// API parity with the source design's get_stack_size/set_stack_size
// and is surfaced verbatim through DirectPool.StackSize.
const DefaultStackSize = 64 * 1024

// DirectPoolConfig configures a DirectPool.
type DirectPoolConfig struct {
	// Size is the fixed number of worker goroutines. Zero is legal: the
	// pool then never completes a submission made directly against it
	// (see QueuedPool, which is useful even with Size == 0 because its
	// backlog still accepts submissions).
	Size int

	// StackSize is advisory only; see DefaultStackSize.
	StackSize int

	// Logger receives Debug-level diagnostics. Defaults to a discarding
	// logger.
	Logger Logger
}

// Validate checks the config for obvious misuse.
func (c *DirectPoolConfig) Validate() error {
	if c.Size < 0 {
		return ErrInvalidSize
	}
	return nil
}

// QueuedPoolConfig configures a QueuedPool.
type QueuedPoolConfig struct {
	// Size is the fixed number of worker goroutines in the base
	// DirectPool. Zero is legal: tasks then accumulate in the backlog
	// forever, as in scenario S3.
	Size int

	// StackSize is advisory only; see DefaultStackSize.
	StackSize int

	// AutoStart starts the dispatcher goroutine immediately at
	// construction when true. When false, callers must call Start
	// explicitly before submissions are dispatched (they may still be
	// queued; they simply accumulate until Start is called).
	AutoStart bool

	// Logger receives Debug-level diagnostics.
	Logger Logger
}

// Validate checks the config for obvious misuse.
func (c *QueuedPoolConfig) Validate() error {
	if c.Size < 0 {
		return ErrInvalidSize
	}
	return nil
}
