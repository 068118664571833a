// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"

	"code.hybscloud.com/atomix"
)

// ProducerType selects the sequencer variant of a ring buffer.
type ProducerType uint8

const (
	// ProducerSingle allows exactly one goroutine to claim and publish.
	ProducerSingle ProducerType = iota + 1
	// ProducerMulti allows any number of goroutines to claim and publish.
	ProducerMulti
)

// String returns "single", "multi" or "unknown".
func (p ProducerType) String() string {
	switch p {
	case ProducerSingle:
		return "single"
	case ProducerMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// Sequencer coordinates claiming and publishing sequences against the
// buffer capacity and the gating sequences of downstream consumers.
//
// Implemented by [SingleProducerSequencer] and [MultiProducerSequencer].
type Sequencer interface {
	// Cursor returns the highest sequence visible to consumers.
	Cursor() int64
	// BufferSize returns the ring capacity.
	BufferSize() int

	// Next claims the next sequence, blocking while the ring is full.
	Next() int64
	// NextN claims n sequences and returns the highest. Panics if n is
	// outside [1, BufferSize].
	NextN(n int) int64
	// NextContext is NextN that gives up when ctx is done.
	NextContext(ctx context.Context, n int) (int64, error)
	// TryNext claims the next sequence or returns ErrWouldBlock.
	TryNext() (int64, error)
	// TryNextN claims n sequences or none, returning ErrWouldBlock.
	TryNextN(n int) (int64, error)

	// Publish makes sequence visible to consumers.
	Publish(sequence int64)
	// PublishRange makes lo..hi (inclusive) visible to consumers.
	PublishRange(lo, hi int64)
	// IsAvailable reports whether sequence has been published and not
	// yet overwritten by a later lap.
	IsAvailable(sequence int64) bool
	// HighestPublishedSequence returns the highest sequence in
	// [lo, available] such that every sequence from lo to it is published,
	// or lo-1 if lo itself is not.
	HighestPublishedSequence(lo, available int64) int64

	// HasAvailableCapacity reports whether n sequences could be claimed now.
	HasAvailableCapacity(n int) bool
	// RemainingCapacity returns the number of unclaimed slots.
	RemainingCapacity() int64
	// Claim moves the claim position to sequence. Initialization only:
	// it races with live producers.
	Claim(sequence int64)

	// AddGatingSequences registers consumer sequences producers must not
	// overrun. Each is first set to the current cursor.
	AddGatingSequences(sequences ...*Sequence)
	// RemoveGatingSequence unregisters sequence and reports whether it
	// was registered.
	RemoveGatingSequence(sequence *Sequence) bool
	// MinimumSequence returns the minimum gating sequence, or the cursor
	// when there is none.
	MinimumSequence() int64
}

// sequencerBase holds what both sequencer variants share.
type sequencerBase struct {
	bufferSize   int64
	waitStrategy WaitStrategy
	blocking     bool
	cursor       *Sequence
	gating       atomix.Pointer[[]*Sequence]
}

func (s *sequencerBase) init(bufferSize int, waitStrategy WaitStrategy) error {
	if !isPow2(bufferSize) {
		return ErrInvalidBufferSize
	}
	if waitStrategy == nil {
		return ErrNilWaitStrategy
	}
	s.bufferSize = int64(bufferSize)
	s.waitStrategy = waitStrategy
	s.blocking = waitStrategy.IsBlocking()
	s.cursor = NewSequence(InitialSequenceValue)
	return nil
}

func (s *sequencerBase) gatingSequences() []*Sequence {
	if p := s.gating.LoadAcquire(); p != nil {
		return *p
	}
	return nil
}

func (s *sequencerBase) checkClaim(n int) error {
	if n < 1 || int64(n) > s.bufferSize {
		return ErrInvalidClaim
	}
	return nil
}

func (s *sequencerBase) signal() {
	if s.blocking {
		s.waitStrategy.SignalAllWhenBlocking()
	}
}

// addGatingSequences publishes a new gating set (copy-on-write).
// Sequences are set to the cursor before and after the swap so a producer
// reading either set never sees them behind the data already published.
func (s *sequencerBase) addGatingSequences(sequences ...*Sequence) {
	for {
		old := s.gating.LoadAcquire()
		var current []*Sequence
		if old != nil {
			current = *old
		}
		updated := make([]*Sequence, len(current), len(current)+len(sequences))
		copy(updated, current)

		cursor := s.cursor.Get()
		for _, seq := range sequences {
			seq.Set(cursor)
			updated = append(updated, seq)
		}

		if s.gating.CompareAndSwapAcqRel(old, &updated) {
			break
		}
	}

	cursor := s.cursor.Get()
	for _, seq := range sequences {
		seq.Set(cursor)
	}
}

func (s *sequencerBase) removeGatingSequence(sequence *Sequence) bool {
	for {
		old := s.gating.LoadAcquire()
		if old == nil {
			return false
		}
		current := *old
		updated := make([]*Sequence, 0, len(current))
		for _, seq := range current {
			if seq != sequence {
				updated = append(updated, seq)
			}
		}
		if len(updated) == len(current) {
			return false
		}
		if s.gating.CompareAndSwapAcqRel(old, &updated) {
			return true
		}
	}
}

// sequencerDispatcher routes calls to the sequencer variant chosen at
// construction without an interface call on the hot path.
type sequencerDispatcher struct {
	single *SingleProducerSequencer
	multi  *MultiProducerSequencer
}

func newSequencerDispatcher(producerType ProducerType, bufferSize int, waitStrategy WaitStrategy) (sequencerDispatcher, error) {
	switch producerType {
	case ProducerSingle:
		s, err := NewSingleProducerSequencer(bufferSize, waitStrategy)
		if err != nil {
			return sequencerDispatcher{}, err
		}
		return sequencerDispatcher{single: s}, nil
	case ProducerMulti:
		s, err := NewMultiProducerSequencer(bufferSize, waitStrategy)
		if err != nil {
			return sequencerDispatcher{}, err
		}
		return sequencerDispatcher{multi: s}, nil
	default:
		return sequencerDispatcher{}, ErrInvalidProducerType
	}
}

func (d *sequencerDispatcher) sequencer() Sequencer {
	if d.single != nil {
		return d.single
	}
	return d.multi
}

func (d *sequencerDispatcher) base() *sequencerBase {
	if d.single != nil {
		return &d.single.sequencerBase
	}
	return &d.multi.sequencerBase
}

func (d *sequencerDispatcher) next(ctx context.Context, n int) (int64, error) {
	if d.single != nil {
		return d.single.NextContext(ctx, n)
	}
	return d.multi.NextContext(ctx, n)
}

func (d *sequencerDispatcher) tryNext(n int) (int64, error) {
	if d.single != nil {
		return d.single.TryNextN(n)
	}
	return d.multi.TryNextN(n)
}

func (d *sequencerDispatcher) publish(sequence int64) {
	if d.single != nil {
		d.single.Publish(sequence)
		return
	}
	d.multi.Publish(sequence)
}

func (d *sequencerDispatcher) publishRange(lo, hi int64) {
	if d.single != nil {
		d.single.PublishRange(lo, hi)
		return
	}
	d.multi.PublishRange(lo, hi)
}

func (d *sequencerDispatcher) highestPublished(lo, available int64) int64 {
	if d.single != nil {
		return available
	}
	return d.multi.HighestPublishedSequence(lo, available)
}

// isPow2 reports whether n is a positive power of 2.
func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
