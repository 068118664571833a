// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"fmt"
	"unsafe"
)

// RingBuffer is a fixed-capacity ring of pre-allocated, reused slots shared
// between producers and consumers.
//
// Slots are filled once by the event factory at construction and never
// reallocated. Claiming a sequence is the only authorization to write its
// slot; after Publish the slot is read-only for consumers until the
// sequence one lap later is claimed, which cannot happen before every
// gating consumer has moved past it:
//
//	cursor - min(gating sequences) <= BufferSize
//
// Typical producer:
//
//	seq := rb.Next()
//	ev := rb.Get(seq)
//	ev.Value = 42
//	rb.Publish(seq)
//
// or, with guaranteed publish on every exit path:
//
//	rb.PublishEvent(func(ev *Event, seq int64) {
//	    ev.Value = 42
//	})
type RingBuffer[T any] struct {
	_          pad
	entries    []T
	elemSize   uintptr
	bufferPad  int
	indexMask  int64
	bufferSize int
	sequencer  sequencerDispatcher
	_          pad
}

// NewRingBuffer creates a ring buffer of bufferSize slots filled by factory.
//
// Returns ErrInvalidBufferSize unless bufferSize is a positive power of 2,
// ErrInvalidProducerType for an unknown producer type, ErrNilEventFactory
// or ErrNilWaitStrategy for missing arguments.
func NewRingBuffer[T any](factory func() T, bufferSize int, producerType ProducerType, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	if factory == nil {
		return nil, ErrNilEventFactory
	}
	seq, err := newSequencerDispatcher(producerType, bufferSize, waitStrategy)
	if err != nil {
		return nil, err
	}

	var zero T
	elemSize := unsafe.Sizeof(zero)
	bufferPad := ringPadding(elemSize)

	r := &RingBuffer[T]{
		entries:    make([]T, bufferSize+2*bufferPad),
		elemSize:   elemSize,
		bufferPad:  bufferPad,
		indexMask:  int64(bufferSize - 1),
		bufferSize: bufferSize,
		sequencer:  seq,
	}
	for i := range bufferSize {
		r.entries[bufferPad+i] = factory()
	}
	return r, nil
}

// NewSingleProducer creates a ring buffer for one producer goroutine.
func NewSingleProducer[T any](factory func() T, bufferSize int, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	return NewRingBuffer(factory, bufferSize, ProducerSingle, waitStrategy)
}

// NewMultiProducer creates a ring buffer for concurrent producers.
func NewMultiProducer[T any](factory func() T, bufferSize int, waitStrategy WaitStrategy) (*RingBuffer[T], error) {
	return NewRingBuffer(factory, bufferSize, ProducerMulti, waitStrategy)
}

// ringPadding returns the number of unused entries placed before and after
// the slots so that they span at least two cache lines on each side.
func ringPadding(elemSize uintptr) int {
	if elemSize == 0 {
		return 0
	}
	return int((2*cacheLineSize + elemSize - 1) / elemSize)
}

// Get returns the slot for sequence.
//
// Producers write through it between claim and publish; consumers read
// through it after the sequence is visible.
func (r *RingBuffer[T]) Get(sequence int64) *T {
	// Pointer arithmetic avoids slice bounds checking in hot path.
	// Equivalent to &r.entries[r.bufferPad+int(sequence&r.indexMask)]
	idx := uintptr(r.bufferPad + int(sequence&r.indexMask))
	return (*T)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(r.entries)), idx*r.elemSize))
}

// BufferSize returns the number of slots.
func (r *RingBuffer[T]) BufferSize() int {
	return r.bufferSize
}

// ProducerType returns the sequencer variant.
func (r *RingBuffer[T]) ProducerType() ProducerType {
	if r.sequencer.single != nil {
		return ProducerSingle
	}
	return ProducerMulti
}

// Sequencer returns the underlying sequencer.
func (r *RingBuffer[T]) Sequencer() Sequencer {
	return r.sequencer.sequencer()
}

// Cursor returns the highest sequence visible to consumers.
func (r *RingBuffer[T]) Cursor() int64 {
	return r.sequencer.base().cursor.Get()
}

// Next claims the next sequence, blocking while the ring is full.
func (r *RingBuffer[T]) Next() int64 {
	return r.NextN(1)
}

// NextN claims n sequences and returns the highest; the batch is
// hi-n+1..hi. Blocks while fewer than n slots are free.
// Panics if n is outside [1, BufferSize].
func (r *RingBuffer[T]) NextN(n int) int64 {
	seq, err := r.sequencer.next(context.Background(), n)
	if err != nil {
		panic(err)
	}
	return seq
}

// NextContext claims n sequences like NextN but gives up when ctx is done,
// returning an error matching ErrCanceled. Nothing is claimed on error.
func (r *RingBuffer[T]) NextContext(ctx context.Context, n int) (int64, error) {
	return r.sequencer.next(ctx, n)
}

// TryNext claims the next sequence without blocking.
// Returns ErrWouldBlock when the ring is full.
func (r *RingBuffer[T]) TryNext() (int64, error) {
	return r.sequencer.tryNext(1)
}

// TryNextN claims n sequences or none, without blocking.
// Returns ErrWouldBlock when fewer than n slots are free.
func (r *RingBuffer[T]) TryNextN(n int) (int64, error) {
	return r.sequencer.tryNext(n)
}

// Publish makes sequence visible to consumers.
func (r *RingBuffer[T]) Publish(sequence int64) {
	r.sequencer.publish(sequence)
}

// PublishRange makes lo..hi (inclusive) visible to consumers.
func (r *RingBuffer[T]) PublishRange(lo, hi int64) {
	r.sequencer.publishRange(lo, hi)
}

// ClaimAndGetPreallocated moves the claim position to sequence and returns
// its slot. The caller publishes it afterwards.
//
// This races with live producers and consumers; use only while
// initializing a ring that nobody else touches yet.
func (r *RingBuffer[T]) ClaimAndGetPreallocated(sequence int64) *T {
	r.sequencer.sequencer().Claim(sequence)
	return r.Get(sequence)
}

// IsAvailable reports whether sequence is published and still in the ring.
func (r *RingBuffer[T]) IsAvailable(sequence int64) bool {
	return r.sequencer.sequencer().IsAvailable(sequence)
}

// HasAvailableCapacity reports whether n sequences could be claimed now.
func (r *RingBuffer[T]) HasAvailableCapacity(n int) bool {
	return r.sequencer.sequencer().HasAvailableCapacity(n)
}

// RemainingCapacity returns the number of unclaimed slots.
func (r *RingBuffer[T]) RemainingCapacity() int64 {
	return r.sequencer.sequencer().RemainingCapacity()
}

// AddGatingSequences registers consumer sequences producers must not
// overrun. Each sequence is set to the current cursor.
func (r *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	r.sequencer.base().addGatingSequences(sequences...)
}

// RemoveGatingSequence unregisters sequence and reports whether it was
// registered.
func (r *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return r.sequencer.base().removeGatingSequence(sequence)
}

// MinimumGatingSequence returns the position of the slowest gating
// consumer, or the cursor when there is none.
func (r *RingBuffer[T]) MinimumGatingSequence() int64 {
	return r.sequencer.sequencer().MinimumSequence()
}

// NewBarrier creates a barrier for a consumer that must not pass the
// cursor nor any of dependents.
func (r *RingBuffer[T]) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	base := r.sequencer.base()
	return &SequenceBarrier{
		sequencer:    &r.sequencer,
		waitStrategy: base.waitStrategy,
		deps:         NewDependentSequenceGroup(base.cursor, dependents...),
	}
}

// NewPoller creates a poller gated on the cursor and on gatingSequences.
//
// The poller's own sequence is not registered with the ring. Pass
// poller.Sequence() to AddGatingSequences to stop producers from lapping
// the poller.
func (r *RingBuffer[T]) NewPoller(gatingSequences ...*Sequence) *EventPoller[T] {
	return &EventPoller[T]{
		ring:     r,
		sequence: NewSequence(InitialSequenceValue),
		gating:   NewDependentSequenceGroup(r.sequencer.base().cursor, gatingSequences...),
	}
}

// String describes the ring buffer.
func (r *RingBuffer[T]) String() string {
	var zero T
	return fmt.Sprintf("RingBuffer{Type=%T, BufferSize=%d, Producer=%s, Cursor=%d}",
		zero, r.bufferSize, r.ProducerType(), r.Cursor())
}
