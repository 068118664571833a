// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"sync"
)

// BlockingWaitStrategy parks waiting consumers behind a mutex-guarded gate
// until a producer signals.
//
// Lowest CPU usage, highest wake latency. Producers must call
// SignalAllWhenBlocking after every publish; sequencers do this
// automatically.
//
// The gate is a broadcast channel replaced on every signal, which is a
// condition variable that can also select on ctx.Done(). The cursor is
// re-checked while holding the gate mutex, and signalling takes the same
// mutex, so a publish that lands before the waiter parks is never missed.
//
// Once the cursor is reached, the remaining wait for upstream consumers is
// an aggressive spin; consumers do not signal.
//
// The zero value is ready to use.
type BlockingWaitStrategy struct {
	mu      sync.Mutex
	signal  chan struct{}
	waiters int
}

// NewBlockingWaitStrategy creates a blocking wait strategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	return &BlockingWaitStrategy{signal: make(chan struct{})}
}

// WaitFor parks until the cursor reaches sequence, then spins on the
// dependent sequences.
func (w *BlockingWaitStrategy) WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error) {
	if deps.CursorValue() < sequence {
		done := ctx.Done()
		w.mu.Lock()
		for deps.CursorValue() < sequence {
			if ctx.Err() != nil {
				w.mu.Unlock()
				return 0, canceled(ctx)
			}
			if w.signal == nil {
				w.signal = make(chan struct{})
			}
			gate := w.signal
			w.waiters++
			w.mu.Unlock()

			select {
			case <-gate:
			case <-done:
			}

			w.mu.Lock()
			w.waiters--
		}
		w.mu.Unlock()
	}

	return deps.AggressiveSpinWaitFor(ctx, sequence)
}

// SignalAllWhenBlocking wakes every parked waiter.
func (w *BlockingWaitStrategy) SignalAllWhenBlocking() {
	w.mu.Lock()
	if w.waiters > 0 {
		close(w.signal)
		w.signal = make(chan struct{})
	}
	w.mu.Unlock()
}

// IsBlocking reports true.
func (*BlockingWaitStrategy) IsBlocking() bool { return true }
