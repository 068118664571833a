// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// MultiProducerSequencer is the sequencer for any number of producer
// goroutines.
//
// Claims advance a shared claim counter by compare-and-set, so concurrent
// producers receive distinct ranges and an abandoned claim (TryNext
// failure, canceled NextContext) never leaves a hole.
//
// Producers may finish out of claim order: producer B can publish 5 while
// producer A still fills 4. Each publish therefore stores the sequence
// itself into a per-slot availability marker, and the visible cursor only
// advances across an unbroken run of markers that starts right after it.
// A slot is available for sequence s exactly when its marker equals s, so
// markers from earlier laps never match.
//
// Cursor advance is a CAS loop run by every publisher after marking. A
// publisher that finds the run broken stops; the producer owning the gap
// marks it later and, scanning after its own mark, sees every marker set
// before it and carries the cursor over them.
type MultiProducerSequencer struct {
	sequencerBase
	claimed     Sequence // Highest claimed sequence
	gatingCache Sequence // Cached minimum gating sequence
	available   []atomix.Int64
	indexMask   int64
}

// NewMultiProducerSequencer creates a multi-producer sequencer.
// bufferSize must be a positive power of 2.
func NewMultiProducerSequencer(bufferSize int, waitStrategy WaitStrategy) (*MultiProducerSequencer, error) {
	s := &MultiProducerSequencer{}
	if err := s.init(bufferSize, waitStrategy); err != nil {
		return nil, err
	}
	s.claimed.Set(InitialSequenceValue)
	s.gatingCache.Set(InitialSequenceValue)
	s.available = make([]atomix.Int64, bufferSize)
	s.indexMask = int64(bufferSize - 1)
	for i := range s.available {
		s.available[i].StoreRelaxed(InitialSequenceValue)
	}
	return s, nil
}

// Cursor returns the highest sequence such that it and every sequence
// before it are published.
func (s *MultiProducerSequencer) Cursor() int64 {
	return s.cursor.Get()
}

// BufferSize returns the ring capacity.
func (s *MultiProducerSequencer) BufferSize() int {
	return int(s.bufferSize)
}

// Next claims the next sequence, blocking while the ring is full.
func (s *MultiProducerSequencer) Next() int64 {
	return s.NextN(1)
}

// NextN claims n sequences and returns the highest.
// Panics if n is outside [1, BufferSize].
func (s *MultiProducerSequencer) NextN(n int) int64 {
	seq, err := s.NextContext(context.Background(), n)
	if err != nil {
		panic(err)
	}
	return seq
}

// NextContext claims n sequences, waiting with backoff while the slowest
// gating consumer has not freed enough slots. Nothing is claimed when ctx
// is done first.
func (s *MultiProducerSequencer) NextContext(ctx context.Context, n int) (int64, error) {
	if err := s.checkClaim(n); err != nil {
		return 0, err
	}

	done := ctx.Done()
	backoff := iox.Backoff{}
	for {
		current := s.claimed.Get()
		next := current + int64(n)
		wrapPoint := next - s.bufferSize
		cachedGating := s.gatingCache.Get()

		if wrapPoint > cachedGating || cachedGating > current {
			gatingSequence := MinimumSequence(s.gatingSequences(), current)
			if wrapPoint > gatingSequence {
				select {
				case <-done:
					return 0, canceled(ctx)
				default:
				}
				backoff.Wait()
				continue
			}
			s.gatingCache.Set(gatingSequence)
		} else if s.claimed.CompareAndSet(current, next) {
			return next, nil
		}
	}
}

// TryNext claims the next sequence or returns ErrWouldBlock.
func (s *MultiProducerSequencer) TryNext() (int64, error) {
	return s.TryNextN(1)
}

// TryNextN claims n sequences or none.
// Returns ErrWouldBlock when fewer than n slots are free.
func (s *MultiProducerSequencer) TryNextN(n int) (int64, error) {
	if err := s.checkClaim(n); err != nil {
		return 0, err
	}
	for {
		current := s.claimed.Get()
		next := current + int64(n)
		if !s.hasAvailableCapacity(n, current) {
			return 0, ErrWouldBlock
		}
		if s.claimed.CompareAndSet(current, next) {
			return next, nil
		}
	}
}

// HasAvailableCapacity reports whether n sequences could be claimed now.
func (s *MultiProducerSequencer) HasAvailableCapacity(n int) bool {
	return s.hasAvailableCapacity(n, s.claimed.Get())
}

func (s *MultiProducerSequencer) hasAvailableCapacity(n int, claimed int64) bool {
	wrapPoint := claimed + int64(n) - s.bufferSize
	cachedGating := s.gatingCache.Get()

	if wrapPoint > cachedGating || cachedGating > claimed {
		minSequence := MinimumSequence(s.gatingSequences(), claimed)
		s.gatingCache.Set(minSequence)
		if wrapPoint > minSequence {
			return false
		}
	}
	return true
}

// RemainingCapacity returns the number of unclaimed slots.
func (s *MultiProducerSequencer) RemainingCapacity() int64 {
	produced := s.claimed.Get()
	consumed := MinimumSequence(s.gatingSequences(), produced)
	return s.bufferSize - (produced - consumed)
}

// Claim moves the claim position to sequence and the cursor just behind
// it, so publishing sequence makes it visible.
func (s *MultiProducerSequencer) Claim(sequence int64) {
	s.claimed.Set(sequence)
	s.cursor.Set(sequence - 1)
}

// Publish marks sequence available, advances the cursor as far as the
// published run allows and wakes blocking waiters.
func (s *MultiProducerSequencer) Publish(sequence int64) {
	s.setAvailable(sequence)
	s.advanceCursor()
	s.signal()
}

// PublishRange marks lo..hi available, then advances the cursor.
func (s *MultiProducerSequencer) PublishRange(lo, hi int64) {
	if lo > hi {
		panic("disruptor: publish range lo > hi")
	}
	for seq := lo; seq <= hi; seq++ {
		s.setAvailable(seq)
	}
	s.advanceCursor()
	s.signal()
}

func (s *MultiProducerSequencer) advanceCursor() {
	for {
		current := s.cursor.Get()
		high := current
		for s.isAvailable(high + 1) {
			high++
		}
		if high == current {
			return
		}
		if s.cursor.CompareAndSet(current, high) {
			return
		}
	}
}

// setAvailable stamps the slot marker with a full-fence swap. The scan in
// advanceCursor that follows must not be reordered before the stamp, or two
// producers publishing adjacent sequences can each miss the other's marker
// and leave the cursor short of a published run.
func (s *MultiProducerSequencer) setAvailable(sequence int64) {
	s.available[sequence&s.indexMask].SwapAcqRel(sequence)
}

func (s *MultiProducerSequencer) isAvailable(sequence int64) bool {
	return s.available[sequence&s.indexMask].LoadAcquire() == sequence
}

// IsAvailable reports whether sequence is published and still in the ring.
func (s *MultiProducerSequencer) IsAvailable(sequence int64) bool {
	return s.isAvailable(sequence)
}

// HighestPublishedSequence returns the highest sequence in [lo, available]
// reachable from lo through published markers, or lo-1.
func (s *MultiProducerSequencer) HighestPublishedSequence(lo, available int64) int64 {
	for seq := lo; seq <= available; seq++ {
		if !s.isAvailable(seq) {
			return seq - 1
		}
	}
	return available
}

// AddGatingSequences registers consumer sequences producers must not
// overrun.
func (s *MultiProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.addGatingSequences(sequences...)
}

// RemoveGatingSequence unregisters sequence.
func (s *MultiProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.removeGatingSequence(sequence)
}

// MinimumSequence returns the minimum gating sequence, or the cursor.
func (s *MultiProducerSequencer) MinimumSequence() int64 {
	return MinimumSequence(s.gatingSequences(), s.cursor.Get())
}
