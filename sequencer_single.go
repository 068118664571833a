// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"

	"code.hybscloud.com/iox"
)

// SingleProducerSequencer is the sequencer for exactly one producer
// goroutine.
//
// The claim position and the cached minimum gating sequence are plain
// fields: only the producer touches them. Consumers see progress through
// the cursor, which Publish stores with release semantics.
//
// Calling Next, TryNext, Publish, HasAvailableCapacity, RemainingCapacity
// or Claim from more than one goroutine causes undefined behavior.
type SingleProducerSequencer struct {
	sequencerBase
	_           pad
	nextValue   int64 // Last claimed sequence
	cachedValue int64 // Cached minimum gating sequence
	_           pad
}

// NewSingleProducerSequencer creates a single-producer sequencer.
// bufferSize must be a positive power of 2.
func NewSingleProducerSequencer(bufferSize int, waitStrategy WaitStrategy) (*SingleProducerSequencer, error) {
	s := &SingleProducerSequencer{
		nextValue:   InitialSequenceValue,
		cachedValue: InitialSequenceValue,
	}
	if err := s.init(bufferSize, waitStrategy); err != nil {
		return nil, err
	}
	return s, nil
}

// Cursor returns the last published sequence.
func (s *SingleProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

// BufferSize returns the ring capacity.
func (s *SingleProducerSequencer) BufferSize() int {
	return int(s.bufferSize)
}

// Next claims the next sequence, blocking while the ring is full.
func (s *SingleProducerSequencer) Next() int64 {
	return s.NextN(1)
}

// NextN claims n sequences and returns the highest.
// Panics if n is outside [1, BufferSize].
func (s *SingleProducerSequencer) NextN(n int) int64 {
	seq, err := s.NextContext(context.Background(), n)
	if err != nil {
		panic(err)
	}
	return seq
}

// NextContext claims n sequences, waiting with backoff while the slowest
// gating consumer has not freed enough slots. Nothing is claimed when ctx
// is done first.
func (s *SingleProducerSequencer) NextContext(ctx context.Context, n int) (int64, error) {
	if err := s.checkClaim(n); err != nil {
		return 0, err
	}

	nextValue := s.nextValue
	next := nextValue + int64(n)
	wrapPoint := next - s.bufferSize
	cached := s.cachedValue

	if wrapPoint > cached || cached > nextValue {
		done := ctx.Done()
		backoff := iox.Backoff{}
		for {
			minSequence := MinimumSequence(s.gatingSequences(), nextValue)
			if wrapPoint <= minSequence {
				s.cachedValue = minSequence
				break
			}
			select {
			case <-done:
				return 0, canceled(ctx)
			default:
			}
			backoff.Wait()
		}
	}

	s.nextValue = next
	return next, nil
}

// TryNext claims the next sequence or returns ErrWouldBlock.
func (s *SingleProducerSequencer) TryNext() (int64, error) {
	return s.TryNextN(1)
}

// TryNextN claims n sequences or none.
// Returns ErrWouldBlock when fewer than n slots are free.
func (s *SingleProducerSequencer) TryNextN(n int) (int64, error) {
	if err := s.checkClaim(n); err != nil {
		return 0, err
	}
	if !s.hasAvailableCapacity(n) {
		return 0, ErrWouldBlock
	}
	s.nextValue += int64(n)
	return s.nextValue, nil
}

// HasAvailableCapacity reports whether n sequences could be claimed now.
func (s *SingleProducerSequencer) HasAvailableCapacity(n int) bool {
	return s.hasAvailableCapacity(n)
}

func (s *SingleProducerSequencer) hasAvailableCapacity(n int) bool {
	nextValue := s.nextValue
	wrapPoint := nextValue + int64(n) - s.bufferSize
	cached := s.cachedValue

	if wrapPoint > cached || cached > nextValue {
		minSequence := MinimumSequence(s.gatingSequences(), nextValue)
		s.cachedValue = minSequence
		if wrapPoint > minSequence {
			return false
		}
	}
	return true
}

// RemainingCapacity returns the number of unclaimed slots.
func (s *SingleProducerSequencer) RemainingCapacity() int64 {
	nextValue := s.nextValue
	consumed := MinimumSequence(s.gatingSequences(), nextValue)
	return s.bufferSize - (nextValue - consumed)
}

// Claim moves the claim position to sequence.
func (s *SingleProducerSequencer) Claim(sequence int64) {
	s.nextValue = sequence
}

// Publish stores sequence as the cursor and wakes blocking waiters.
func (s *SingleProducerSequencer) Publish(sequence int64) {
	s.cursor.Set(sequence)
	s.signal()
}

// PublishRange publishes lo..hi. With a single producer the cursor moves
// straight to hi.
func (s *SingleProducerSequencer) PublishRange(lo, hi int64) {
	if lo > hi {
		panic("disruptor: publish range lo > hi")
	}
	s.Publish(hi)
}

// IsAvailable reports whether sequence is published and still in the ring.
func (s *SingleProducerSequencer) IsAvailable(sequence int64) bool {
	current := s.cursor.Get()
	return sequence <= current && sequence > current-s.bufferSize
}

// HighestPublishedSequence returns available: a single producer publishes
// in order.
func (s *SingleProducerSequencer) HighestPublishedSequence(lo, available int64) int64 {
	return available
}

// AddGatingSequences registers consumer sequences producers must not
// overrun.
func (s *SingleProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.addGatingSequences(sequences...)
}

// RemoveGatingSequence unregisters sequence.
func (s *SingleProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.removeGatingSequence(sequence)
}

// MinimumSequence returns the minimum gating sequence, or the cursor.
func (s *SingleProducerSequencer) MinimumSequence() int64 {
	return MinimumSequence(s.gatingSequences(), s.cursor.Get())
}
