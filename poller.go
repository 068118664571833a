// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

// PollState is the outcome of one [EventPoller.Poll].
type PollState uint8

const (
	// PollProcessing means at least one event was handed to the handler.
	PollProcessing PollState = iota
	// PollGating means events are published but a gating sequence has not
	// reached them yet.
	PollGating
	// PollIdle means nothing new is published.
	PollIdle
)

// String returns the state name.
func (s PollState) String() string {
	switch s {
	case PollProcessing:
		return "Processing"
	case PollGating:
		return "Gating"
	case PollIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// EventPoller is a pull-style consumer: the caller decides when to
// consume, on its own goroutine, without a wait strategy.
//
// One goroutine at a time may call Poll.
//
// Example:
//
//	poller := rb.NewPoller()
//	rb.AddGatingSequences(poller.Sequence())
//
//	for {
//	    state, err := poller.Poll(func(ev *Event, seq int64, end bool) (bool, error) {
//	        process(ev)
//	        return true, nil
//	    })
//	    if err != nil {
//	        return err
//	    }
//	    if state != disruptor.PollProcessing {
//	        sw.Once()
//	    }
//	}
type EventPoller[T any] struct {
	ring     *RingBuffer[T]
	sequence *Sequence
	gating   *DependentSequenceGroup
}

// Sequence returns the poller's progress sequence.
func (p *EventPoller[T]) Sequence() *Sequence {
	return p.sequence
}

// Poll hands every event that is published and allowed by the gating
// sequences to handler, in order, until handler returns false or the run
// ends.
//
// The poller's sequence is advanced to the last event for which handler
// returned without error, even when handler fails or panics. A handler
// error is returned with PollProcessing.
func (p *EventPoller[T]) Poll(handler PollHandler[T]) (PollState, error) {
	current := p.sequence.Get()
	next := current + 1
	available := p.ring.sequencer.highestPublished(next, p.gating.Value())

	if next <= available {
		processed := current
		defer func() { p.sequence.Set(processed) }()

		for {
			more, err := handler(p.ring.Get(next), next, next == available)
			if err != nil {
				return PollProcessing, err
			}
			processed = next
			next++
			if next > available || !more {
				return PollProcessing, nil
			}
		}
	}

	if p.ring.Cursor() >= next {
		return PollGating, nil
	}
	return PollIdle, nil
}
