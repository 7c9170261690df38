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

package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpcore/taskpool/pool"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pool Suite")
}

// countingTask increments a shared run counter and then, if set, calls
// after (which a test can use to block the worker).
type countingTask struct {
	ran   *int32
	after func()
}

func (t *countingTask) Run() {
	atomic.AddInt32(t.ran, 1)
	if t.after != nil {
		t.after()
	}
}

var _ = Describe("DirectPool", func() {
	// S1: a DirectPool(4) given 5 tasks from 5 goroutines runs all 5 exactly
	// once, every slot is idle once they've all returned, and after
	// Terminate the run counter stays put.
	It("runs every submitted task exactly once and goes idle after", func() {
		p, err := pool.NewDirectPool(pool.DirectPoolConfig{Size: 4})
		Expect(err).NotTo(HaveOccurred())

		var ran int32
		var wg sync.WaitGroup
		wg.Add(5)

		for i := 0; i < 5; i++ {
			go func() {
				defer wg.Done()
				p.Execute(&countingTask{ran: &ran})
			}()
		}

		Eventually(func() int32 { return atomic.LoadInt32(&ran) }, 2*time.Second).Should(Equal(int32(5)))
		wg.Wait()

		Eventually(p.IsIdle, time.Second).Should(BeTrue())

		p.Terminate()
		Expect(atomic.LoadInt32(&ran)).Should(Equal(int32(5)))
	})

	It("reports busy once every slot has a pending task", func() {
		p, err := pool.NewDirectPool(pool.DirectPoolConfig{Size: 2})
		Expect(err).NotTo(HaveOccurred())
		defer p.Terminate()

		release := make(chan struct{})
		var ran int32

		block := &countingTask{ran: &ran, after: func() { <-release }}
		p.Execute(block)
		p.Execute(block)

		Eventually(p.IsBusy, time.Second).Should(BeTrue())
		close(release)

		Eventually(p.IsIdle, time.Second).Should(BeTrue())
	})
})

var _ = Describe("QueuedPool", func() {
	// S2: a QueuedPool(1), given one eagerly-assigned task and several
	// queued behind it, runs every task exactly once in FIFO order.
	It("dispatches queued tasks in FIFO order", func() {
		p, err := pool.NewQueuedPool(pool.QueuedPoolConfig{Size: 1, AutoStart: true})
		Expect(err).NotTo(HaveOccurred())
		defer p.Terminate()

		var mu sync.Mutex
		var order []int

		release := make(chan struct{})
		record := func(i int, block bool) pool.TaskFunc {
			return func() {
				if block {
					<-release
				}
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			}
		}

		p.Execute(record(0, true)) // occupies the single worker immediately
		for i := 1; i <= 4; i++ {
			p.Execute(record(i, false))
		}

		Eventually(p.QueueLength, time.Second).Should(Equal(4))
		close(release)

		Eventually(func() []int {
			mu.Lock()
			defer mu.Unlock()
			return append([]int(nil), order...)
		}, 2*time.Second).Should(Equal([]int{0, 1, 2, 3, 4}))
	})

	// S3: a QueuedPool(0) never completes any task: every submission
	// piles up in the backlog, which alone keeps the pool busy, and
	// Terminate leaves the run counter at zero.
	It("never runs a task when the base pool has zero workers", func() {
		p, err := pool.NewQueuedPool(pool.QueuedPoolConfig{Size: 0, AutoStart: true})
		Expect(err).NotTo(HaveOccurred())

		var ran int32
		for i := 0; i < 3; i++ {
			p.Execute(&countingTask{ran: &ran})
		}

		Eventually(p.QueueLength, time.Second).Should(Equal(3))
		Consistently(func() int32 { return atomic.LoadInt32(&ran) }, 200*time.Millisecond).Should(Equal(int32(0)))
		// S3: a non-empty backlog alone makes the pool busy, even with a
		// zero-worker base pool that is trivially idle on its own.
		Expect(p.IsBusy()).Should(BeTrue())

		p.Terminate()
		Expect(atomic.LoadInt32(&ran)).Should(Equal(int32(0)))
	})
})

func TestDirectPoolRejectsNegativeSize(t *testing.T) {
	_, err := pool.NewDirectPool(pool.DirectPoolConfig{Size: -1})
	require.ErrorIs(t, err, pool.ErrInvalidSize)
}

func TestQueuedPoolRejectsNegativeSize(t *testing.T) {
	_, err := pool.NewQueuedPool(pool.QueuedPoolConfig{Size: -1})
	require.ErrorIs(t, err, pool.ErrInvalidSize)
}

// TestDirectPoolAtMostOneTaskPerSlot submits far more blocking tasks
// than slots and asserts the number running concurrently never
// exceeds the pool size.
func TestDirectPoolAtMostOneTaskPerSlot(t *testing.T) {
	const size = 3
	p, err := pool.NewDirectPool(pool.DirectPoolConfig{Size: size})
	require.NoError(t, err)
	defer p.Terminate()

	var running, maxRunning int32
	var mu sync.Mutex
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < size*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Execute(pool.TaskFunc(func() {
				n := atomic.AddInt32(&running, 1)
				mu.Lock()
				if n > maxRunning {
					maxRunning = n
				}
				mu.Unlock()
				<-release
				atomic.AddInt32(&running, -1)
			}))
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, int(maxRunning), size)
}

// TestQueuedPoolTerminateIsIdempotent exercises repeated Stop/Terminate
// calls after the dispatcher was never started, matching the spec's
// requirement that pool teardown tolerates being invoked more than
// once without panicking or hanging.
func TestQueuedPoolTerminateIsIdempotent(t *testing.T) {
	p, err := pool.NewQueuedPool(pool.QueuedPoolConfig{Size: 1})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		p.Terminate()
		p.Terminate()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Terminate did not return")
	}
}
