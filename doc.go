// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package disruptor provides a bounded, pre-allocated ring buffer for
// passing events between goroutines with sequence-based coordination.
//
// Producers claim sequence numbers, write the claimed slots in place and
// publish them. Consumers track their progress in their own [Sequence] and
// never take locks on the fast path. Producers never overwrite a slot
// before every gating consumer has processed it.
//
// # Quick Start
//
// Direct constructors:
//
//	rb, err := disruptor.NewSingleProducer(newEvent, 1024, disruptor.NewYieldingWaitStrategy())
//	rb, err := disruptor.NewMultiProducer(newEvent, 4096, disruptor.NewBlockingWaitStrategy())
//
// Builder API:
//
//	rb, err := disruptor.BuildRingBuffer(disruptor.New(1024).SingleProducer(), newEvent)
//	d, err := disruptor.BuildDisruptor(disruptor.New(1024), newEvent)
//
// # Publishing
//
// Claim, write, publish:
//
//	seq := rb.Next()
//	rb.Get(seq).Value = 42
//	rb.Publish(seq)
//
// A claimed sequence must always be published, or consumers stall at it.
// The closure and scope helpers publish on every exit path, panics
// included:
//
//	rb.PublishEvent(func(ev *Event, seq int64) { ev.Value = 42 })
//
//	s := rb.Scope()
//	defer s.Close()
//	s.Event().Value = 42
//
// Batches claim n sequences at once and publish them together:
//
//	hi := rb.NextN(16)
//	for seq := hi - 15; seq <= hi; seq++ {
//	    fill(rb.Get(seq))
//	}
//	rb.PublishRange(hi-15, hi)
//
// Non-blocking claims return [ErrWouldBlock] when the ring is full:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := rb.TryPublishEvent(fill)
//	    if err == nil {
//	        break
//	    }
//	    backoff.Wait()
//	}
//
// # Consuming
//
// An [EventProcessor] runs a handler on its own goroutine, in batches:
//
//	p := disruptor.NewEventProcessor(rb, rb.NewBarrier(), handler)
//	rb.AddGatingSequences(p.Sequence())
//	go p.Run(ctx)
//
// An [EventPoller] lets the caller pull events on its own schedule:
//
//	poller := rb.NewPoller()
//	rb.AddGatingSequences(poller.Sequence())
//	state, err := poller.Poll(handle)
//
// The [Disruptor] type wires handlers into dependency graphs:
//
//	d.HandleEventsWith(journal, replicate).Then(business)
//	d.Start()
//
// # Wait Strategies
//
//	BusySpinWaitStrategy   - tight loop, lowest latency, burns a core
//	YieldingWaitStrategy   - spins, then yields the processor
//	SleepingWaitStrategy   - spins, yields, then sleeps with growing pauses
//	BackoffWaitStrategy    - iox.Backoff between checks
//	BlockingWaitStrategy   - parks until a publish signals it
//
// Every strategy honors context cancellation.
//
// # Producer Types
//
// [ProducerSingle] assumes one claiming goroutine and keeps its claim
// counter in plain memory. [ProducerMulti] uses compare-and-set claims and
// per-slot availability markers so producers can publish out of claim
// order without exposing unpublished slots.
//
// # Error Handling
//
// [ErrWouldBlock] is sourced from [code.hybscloud.com/iox] for ecosystem
// consistency:
//
//	disruptor.IsWouldBlock(err)  // true if the ring is full
//	disruptor.IsSemantic(err)    // true if control flow signal
//	disruptor.IsNonFailure(err)  // true if nil or ErrWouldBlock
//	disruptor.IsCanceled(err)    // true if a context ended the wait
//
// Programming errors (claiming more than the ring holds, publishing an
// inverted range) panic.
//
// # Race Detection
//
// Slot contents are protected by acquire-release orderings on separate
// sequence variables, which the race detector cannot observe. Concurrent
// tests that touch slot data are skipped when [RaceEnabled] is true.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions
// and [go.uber.org/zap] for processor logging.
package disruptor
