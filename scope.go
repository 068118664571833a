// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import "context"

// EventTranslator fills the slot of a claimed sequence.
type EventTranslator[T any] func(event *T, sequence int64)

// PublishEvent claims one sequence, fills it with fn and publishes it.
// The sequence is published even when fn panics; a claimed sequence that
// is never published would stall every consumer.
func (r *RingBuffer[T]) PublishEvent(fn EventTranslator[T]) {
	seq := r.Next()
	defer r.Publish(seq)
	fn(r.Get(seq), seq)
}

// PublishEventContext is PublishEvent with a cancellable claim.
// fn is not called when the claim fails.
func (r *RingBuffer[T]) PublishEventContext(ctx context.Context, fn EventTranslator[T]) error {
	seq, err := r.NextContext(ctx, 1)
	if err != nil {
		return err
	}
	defer r.Publish(seq)
	fn(r.Get(seq), seq)
	return nil
}

// TryPublishEvent is PublishEvent without blocking.
// Returns ErrWouldBlock, without calling fn, when the ring is full.
func (r *RingBuffer[T]) TryPublishEvent(fn EventTranslator[T]) error {
	seq, err := r.TryNext()
	if err != nil {
		return err
	}
	defer r.Publish(seq)
	fn(r.Get(seq), seq)
	return nil
}

// PublishEvents claims n sequences, calls fn once per sequence in order
// and publishes the whole batch.
func (r *RingBuffer[T]) PublishEvents(n int, fn EventTranslator[T]) {
	hi := r.NextN(n)
	r.translateRange(hi-int64(n)+1, hi, fn)
}

// TryPublishEvents is PublishEvents without blocking.
// Returns ErrWouldBlock when fewer than n slots are free.
func (r *RingBuffer[T]) TryPublishEvents(n int, fn EventTranslator[T]) error {
	hi, err := r.TryNextN(n)
	if err != nil {
		return err
	}
	r.translateRange(hi-int64(n)+1, hi, fn)
	return nil
}

func (r *RingBuffer[T]) translateRange(lo, hi int64, fn EventTranslator[T]) {
	defer r.PublishRange(lo, hi)
	for seq := lo; seq <= hi; seq++ {
		fn(r.Get(seq), seq)
	}
}

// PublishScope holds one claimed sequence until Close publishes it.
//
//	s := rb.Scope()
//	defer s.Close()
//	s.Event().Value = 42
//
// Close publishes exactly once; later calls do nothing.
type PublishScope[T any] struct {
	ring      *RingBuffer[T]
	sequence  int64
	published bool
}

// Scope claims the next sequence, blocking while the ring is full.
func (r *RingBuffer[T]) Scope() PublishScope[T] {
	return PublishScope[T]{ring: r, sequence: r.Next()}
}

// TryScope claims the next sequence without blocking.
// Returns ErrWouldBlock when the ring is full.
func (r *RingBuffer[T]) TryScope() (PublishScope[T], error) {
	seq, err := r.TryNext()
	if err != nil {
		return PublishScope[T]{}, err
	}
	return PublishScope[T]{ring: r, sequence: seq}, nil
}

// Sequence returns the claimed sequence.
func (s *PublishScope[T]) Sequence() int64 {
	return s.sequence
}

// Event returns the slot of the claimed sequence.
func (s *PublishScope[T]) Event() *T {
	return s.ring.Get(s.sequence)
}

// Close publishes the claimed sequence.
func (s *PublishScope[T]) Close() {
	if s.published || s.ring == nil {
		return
	}
	s.published = true
	s.ring.Publish(s.sequence)
}

// PublishScopeRange holds a claimed batch until Close publishes it.
type PublishScopeRange[T any] struct {
	ring      *RingBuffer[T]
	lo, hi    int64
	published bool
}

// ScopeN claims n sequences, blocking while fewer than n slots are free.
// Panics if n is outside [1, BufferSize].
func (r *RingBuffer[T]) ScopeN(n int) PublishScopeRange[T] {
	hi := r.NextN(n)
	return PublishScopeRange[T]{ring: r, lo: hi - int64(n) + 1, hi: hi}
}

// TryScopeN claims n sequences or none, without blocking.
func (r *RingBuffer[T]) TryScopeN(n int) (PublishScopeRange[T], error) {
	hi, err := r.TryNextN(n)
	if err != nil {
		return PublishScopeRange[T]{}, err
	}
	return PublishScopeRange[T]{ring: r, lo: hi - int64(n) + 1, hi: hi}, nil
}

// Lo returns the first claimed sequence.
func (s *PublishScopeRange[T]) Lo() int64 { return s.lo }

// Hi returns the last claimed sequence.
func (s *PublishScopeRange[T]) Hi() int64 { return s.hi }

// Len returns the number of claimed sequences.
func (s *PublishScopeRange[T]) Len() int {
	return int(s.hi - s.lo + 1)
}

// Event returns the slot of the i-th claimed sequence, i in [0, Len).
func (s *PublishScopeRange[T]) Event(i int) *T {
	return s.ring.Get(s.lo + int64(i))
}

// Close publishes the claimed batch.
func (s *PublishScopeRange[T]) Close() {
	if s.published || s.ring == nil {
		return
	}
	s.published = true
	s.ring.PublishRange(s.lo, s.hi)
}
