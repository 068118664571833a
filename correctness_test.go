// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/disruptor"
)

// =============================================================================
// Multi-Producer Linearizability
// =============================================================================

// orderingTest runs numP producers publishing perP events each through one
// processor and verifies that every event arrives once, in claim order,
// and in per-producer order.
type orderingTest struct {
	t       *testing.T
	numP    int
	perP    int
	batch   int
	size    int
	newWS   func() disruptor.WaitStrategy
	timeout time.Duration
}

func (ot orderingTest) run() {
	t := ot.t
	t.Helper()
	pt := disruptor.ProducerMulti
	if ot.numP == 1 {
		pt = disruptor.ProducerSingle
	}
	rb := mustRing(t, ot.size, pt, ot.newWS())

	total := int64(ot.numP * ot.perP)
	lastPerProducer := make([]int64, ot.numP)
	for i := range lastPerProducer {
		lastPerProducer[i] = -1
	}
	var errs []string
	var processed atomix.Int64
	expectSeq := int64(0)

	p := disruptor.NewEventProcessor(rb, rb.NewBarrier(), disruptor.EventHandlerFunc[testEvent](
		func(ev *testEvent, seq int64, _ bool) error {
			if seq != expectSeq && len(errs) < 10 {
				errs = append(errs, fmt.Sprintf("sequence gap: got %d, want %d", seq, expectSeq))
			}
			expectSeq = seq + 1
			pid, n := ev.Value>>32, ev.Value&0xffffffff
			if n <= lastPerProducer[pid] && len(errs) < 10 {
				errs = append(errs, fmt.Sprintf("producer %d: %d after %d", pid, n, lastPerProducer[pid]))
			}
			lastPerProducer[pid] = n
			processed.Add(1)
			return nil
		}))
	rb.AddGatingSequences(p.Sequence())

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(context.Background()) }()

	var wg sync.WaitGroup
	for pid := range ot.numP {
		wg.Go(func() {
			for i := 0; i < ot.perP; i += ot.batch {
				n := min(ot.batch, ot.perP-i)
				base := i
				rb.PublishEvents(n, func(ev *testEvent, seq int64) {
					ev.Value = int64(pid)<<32 | int64(base)
					base++
				})
			}
		})
	}
	wg.Wait()

	waitForCount(t, ot.timeout, &processed, total, "processor did not receive every event")
	p.Halt()
	if err := <-runDone; err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, e := range errs {
		t.Error(e)
	}
	for pid, last := range lastPerProducer {
		if last != int64(ot.perP-1) {
			t.Errorf("producer %d: last event %d, want %d", pid, last, ot.perP-1)
		}
	}
}

func TestOrderingSingleProducer(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	orderingTest{t: t, numP: 1, perP: 100000, batch: 1, size: 1024,
		newWS: func() disruptor.WaitStrategy { return disruptor.NewYieldingWaitStrategy() }, timeout: 20 * time.Second}.run()
}

func TestOrderingSingleProducerBatched(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	orderingTest{t: t, numP: 1, perP: 100000, batch: 7, size: 64,
		newWS: func() disruptor.WaitStrategy { return disruptor.NewBlockingWaitStrategy() }, timeout: 20 * time.Second}.run()
}

func TestOrderingMultiProducer(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	orderingTest{t: t, numP: 4, perP: 50000, batch: 1, size: 1024,
		newWS: func() disruptor.WaitStrategy { return disruptor.NewYieldingWaitStrategy() }, timeout: 30 * time.Second}.run()
}

func TestOrderingMultiProducerBatched(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	orderingTest{t: t, numP: 4, perP: 50000, batch: 5, size: 16,
		newWS: func() disruptor.WaitStrategy { return disruptor.NewBlockingWaitStrategy() }, timeout: 30 * time.Second}.run()
}

func TestOrderingMultiProducerTinyRing(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	orderingTest{t: t, numP: 8, perP: 5000, batch: 1, size: 2,
		newWS: func() disruptor.WaitStrategy { return disruptor.NewSleepingWaitStrategy() }, timeout: 60 * time.Second}.run()
}

// =============================================================================
// Capacity Invariant
// =============================================================================

// TestCapacityInvariant samples the cursor and the slowest gating consumer
// while producers and consumers run, and checks producers never lap a
// consumer.
func TestCapacityInvariant(t *testing.T) {
	if disruptor.RaceEnabled {
		t.Skip("skip: slot data crosses goroutines through sequence orderings")
	}

	for _, pt := range producerTypes {
		t.Run(pt.String(), func(t *testing.T) {
			const size, total = 8, 200000
			numP := 3
			if pt == disruptor.ProducerSingle {
				numP = 1
			}
			rb := mustRing(t, size, pt, disruptor.NewYieldingWaitStrategy())

			slow := disruptor.NewEventProcessor(rb, rb.NewBarrier(), disruptor.EventHandlerFunc[testEvent](
				func(_ *testEvent, seq int64, _ bool) error {
					if seq%64 == 0 {
						time.Sleep(time.Microsecond)
					}
					return nil
				}))
			fast := disruptor.NewEventProcessor(rb, rb.NewBarrier(), disruptor.EventHandlerFunc[testEvent](
				func(*testEvent, int64, bool) error { return nil }))
			rb.AddGatingSequences(slow.Sequence(), fast.Sequence())

			var wg sync.WaitGroup
			for _, p := range []*disruptor.EventProcessor[testEvent]{slow, fast} {
				wg.Go(func() { _ = p.Run(context.Background()) })
			}

			var stop atomix.Bool
			var violations, samples atomix.Int64
			monitorDone := make(chan struct{})
			go func() {
				defer close(monitorDone)
				for !stop.Load() {
					cursor := rb.Cursor()
					gating := rb.MinimumGatingSequence()
					if cursor-gating > size {
						violations.Add(1)
					}
					samples.Add(1)
				}
			}()

			var prod sync.WaitGroup
			for range numP {
				prod.Go(func() {
					for range total / numP {
						rb.Publish(rb.Next())
					}
				})
			}
			prod.Wait()

			want := int64(total/numP*numP) - 1
			retryWithTimeout(t, 30*time.Second, func() bool {
				return rb.MinimumGatingSequence() == want
			}, "consumers did not drain")
			stop.Store(true)
			<-monitorDone
			slow.Halt()
			fast.Halt()
			wg.Wait()

			if v := violations.Load(); v != 0 {
				t.Fatalf("cursor ran more than %d ahead of gating in %d of %d samples", size, v, samples.Load())
			}
		})
	}
}

// TestMultiProducerAdjacentPublishAdvancesCursor has two producers publish
// the two halves of a claimed pair at the same time, higher sequence
// included, with no later traffic. Whichever publish finishes last must
// carry the cursor to the top of the pair.
func TestMultiProducerAdjacentPublishAdvancesCursor(t *testing.T) {
	const rounds = 20000
	s, err := disruptor.NewMultiProducerSequencer(1024, disruptor.NewBusySpinWaitStrategy())
	if err != nil {
		t.Fatalf("NewMultiProducerSequencer: %v", err)
	}

	var round, done atomix.Int64
	var wg sync.WaitGroup
	for offset := range int64(2) {
		wg.Go(func() {
			for r := int64(1); r <= rounds; r++ {
				for round.LoadAcquire() < r {
					runtime.Gosched()
				}
				// offset 0 publishes the higher sequence of the pair.
				s.Publish(2*r - 1 - offset)
				done.AddAcqRel(1)
			}
		})
	}

	defer func() {
		round.StoreRelease(rounds)
		wg.Wait()
	}()

	deadline := time.Now().Add(30 * time.Second)
	for r := int64(1); r <= rounds; r++ {
		hi := s.NextN(2)
		if hi != 2*r-1 {
			t.Fatalf("round %d NextN(2): got %d, want %d", r, hi, 2*r-1)
		}
		round.StoreRelease(r)
		for done.LoadAcquire() < 2*r {
			if time.Now().After(deadline) {
				t.Fatalf("round %d: publishers did not finish", r)
			}
			runtime.Gosched()
		}
		if got := s.Cursor(); got != hi {
			t.Fatalf("round %d cursor: got %d, want %d", r, got, hi)
		}
	}
}
