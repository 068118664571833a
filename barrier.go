// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import "context"

// SequenceBarrier is a consumer's view of what it may process: it waits
// through the ring's wait strategy on the consumer's dependent sequence
// group, then trims the result to the published run.
//
// Created by [RingBuffer.NewBarrier].
type SequenceBarrier struct {
	sequencer    *sequencerDispatcher
	waitStrategy WaitStrategy
	deps         *DependentSequenceGroup
}

// WaitFor waits until sequence may be processed and returns the highest
// sequence that may be processed, which can be larger than sequence.
//
// The result can be smaller than sequence when the wait ended on a
// sequence that is not yet fully published; callers wait again.
func (b *SequenceBarrier) WaitFor(ctx context.Context, sequence int64) (int64, error) {
	available, err := b.waitStrategy.WaitFor(ctx, sequence, b.deps)
	if err != nil {
		return 0, err
	}
	if available < sequence {
		return available, nil
	}
	return b.sequencer.highestPublished(sequence, available), nil
}

// Cursor returns the value the barrier is bounded by.
func (b *SequenceBarrier) Cursor() int64 {
	return b.deps.Value()
}

// Dependents returns the barrier's dependent sequence group.
func (b *SequenceBarrier) Dependents() *DependentSequenceGroup {
	return b.deps
}
