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

// Package goroutineid extracts the id of the calling goroutine.
//
// Go deliberately exposes no public goroutine identity. monitor.Monitor
// needs one anyway, to detect a thread re-entering a lock it already
// holds, so this package parses it out of the runtime-provided stack
// trace the same way most debuggers and profilers do. Monitor calls it
// on every Lock/TryLock/Unlock and on every wake-up inside Wait/WaitFor,
// the latter two with the monitor's mutex held.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the id of the calling goroutine.
//
// It parses the header line of runtime.Stack's output, which always
// begins "goroutine <id> [<state>]:". This relies on undocumented
// runtime output formatting that has nonetheless been stable across Go
// releases for over a decade.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseID(buf[:n])
}

func parseID(stack []byte) uint64 {
	const prefix = "goroutine "
	stack = bytes.TrimPrefix(stack, []byte(prefix))
	i := bytes.IndexByte(stack, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(stack[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
