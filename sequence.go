// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"strconv"

	"code.hybscloud.com/atomix"
)

// InitialSequenceValue is the value every Sequence starts from.
// The first claimable slot is therefore sequence 0.
const InitialSequenceValue int64 = -1

// Sequence is a cache-line padded 64-bit position counter.
//
// The value occupies its own cache line: a full line of filler sits before
// it and the remainder of its line is filled after it. Unrelated sequences
// updated from different cores (producer cursor, consumer positions) never
// share a line.
//
// Get has acquire semantics and Set has release semantics: every write to a
// slot that happens before Set(n) is visible to a reader that observes n.
//
// The zero value holds 0, not [InitialSequenceValue]. Use [NewSequence].
type Sequence struct {
	_     pad
	value atomix.Int64
	_     padShort
}

// NewSequence creates a Sequence holding initial.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.StoreRelaxed(initial)
	return s
}

// Get returns the current value (acquire).
func (s *Sequence) Get() int64 {
	return s.value.LoadAcquire()
}

// Set stores v (release).
func (s *Sequence) Set(v int64) {
	s.value.StoreRelease(v)
}

// CompareAndSet sets the value to next if it currently equals expected.
func (s *Sequence) CompareAndSet(expected, next int64) bool {
	return s.value.CompareAndSwapAcqRel(expected, next)
}

// IncrementAndGet atomically adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.AddAcqRel(1)
}

// AddAndGet atomically adds delta and returns the new value.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.AddAcqRel(delta)
}

// String returns the current value in decimal.
func (s *Sequence) String() string {
	return strconv.FormatInt(s.Get(), 10)
}

// MinimumSequence returns the smallest value among sequences,
// or minimum if it is smaller than all of them (or sequences is empty).
func MinimumSequence(sequences []*Sequence, minimum int64) int64 {
	for _, s := range sequences {
		if v := s.Get(); v < minimum {
			minimum = v
		}
	}
	return minimum
}
