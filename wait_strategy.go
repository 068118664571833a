// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// WaitStrategy decides how a consumer waits for a sequence to become
// available.
//
// WaitFor returns as soon as deps.Value() reaches sequence. The returned
// value may be larger than sequence when more has been published. WaitFor
// observes ctx on every spin or park iteration and returns an error
// matching [ErrCanceled] once ctx is done.
//
// Only parking strategies need SignalAllWhenBlocking after a publish;
// spinning strategies see the cursor update directly. Sequencers call it
// only when IsBlocking reports true.
type WaitStrategy interface {
	WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error)
	SignalAllWhenBlocking()
	IsBlocking() bool
}

// BusySpinWaitStrategy re-checks the dependent sequences in a tight loop.
//
// Lowest latency, one fully used core per waiting consumer. Use only when
// consumers have dedicated cores (see [Builder.Affinity]).
type BusySpinWaitStrategy struct{}

// NewBusySpinWaitStrategy creates a busy-spin wait strategy.
func NewBusySpinWaitStrategy() *BusySpinWaitStrategy {
	return &BusySpinWaitStrategy{}
}

// WaitFor spins until deps reaches sequence or ctx is done.
func (*BusySpinWaitStrategy) WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error) {
	done := ctx.Done()
	for {
		if v := deps.Value(); v >= sequence {
			return v, nil
		}
		select {
		case <-done:
			return 0, canceled(ctx)
		default:
		}
	}
}

// SignalAllWhenBlocking is a no-op.
func (*BusySpinWaitStrategy) SignalAllWhenBlocking() {}

// IsBlocking reports false.
func (*BusySpinWaitStrategy) IsBlocking() bool { return false }

const yieldingSpinTries = 100

// YieldingWaitStrategy spins briefly, then yields the processor between
// attempts.
//
// Good latency without pinning a core when idle consumers are few
// compared to GOMAXPROCS.
type YieldingWaitStrategy struct{}

// NewYieldingWaitStrategy creates a yielding wait strategy.
func NewYieldingWaitStrategy() *YieldingWaitStrategy {
	return &YieldingWaitStrategy{}
}

// WaitFor spins, then yields, until deps reaches sequence or ctx is done.
func (*YieldingWaitStrategy) WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error) {
	done := ctx.Done()
	counter := yieldingSpinTries
	for {
		if v := deps.Value(); v >= sequence {
			return v, nil
		}
		select {
		case <-done:
			return 0, canceled(ctx)
		default:
		}
		if counter == 0 {
			runtime.Gosched()
		} else {
			counter--
		}
	}
}

// SignalAllWhenBlocking is a no-op.
func (*YieldingWaitStrategy) SignalAllWhenBlocking() {}

// IsBlocking reports false.
func (*YieldingWaitStrategy) IsBlocking() bool { return false }

const (
	sleepingRetries  = 200
	sleepingMinSleep = 100 * time.Nanosecond
	sleepingMaxSleep = time.Millisecond
)

// SleepingWaitStrategy spins, then yields, then sleeps for short intervals
// that double up to a bound.
//
// Trades wake latency for low idle CPU without any producer-side signal.
type SleepingWaitStrategy struct {
	retries  int
	minSleep time.Duration
	maxSleep time.Duration
}

// NewSleepingWaitStrategy creates a sleeping wait strategy with 200
// retries and sleeps from 100ns up to 1ms.
func NewSleepingWaitStrategy() *SleepingWaitStrategy {
	return &SleepingWaitStrategy{
		retries:  sleepingRetries,
		minSleep: sleepingMinSleep,
		maxSleep: sleepingMaxSleep,
	}
}

// WaitFor spins, yields, then sleeps until deps reaches sequence or ctx
// is done.
func (w *SleepingWaitStrategy) WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error) {
	done := ctx.Done()
	counter := w.retries
	sleep := w.minSleep
	for {
		if v := deps.Value(); v >= sequence {
			return v, nil
		}
		select {
		case <-done:
			return 0, canceled(ctx)
		default:
		}
		switch {
		case counter > w.retries/2:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(sleep)
			if sleep < w.maxSleep {
				sleep = min(sleep*2, w.maxSleep)
			}
		}
	}
}

// SignalAllWhenBlocking is a no-op.
func (*SleepingWaitStrategy) SignalAllWhenBlocking() {}

// IsBlocking reports false.
func (*SleepingWaitStrategy) IsBlocking() bool { return false }

// BackoffWaitStrategy waits with [iox.Backoff], the same adaptive backoff
// callers use around non-blocking queue operations.
type BackoffWaitStrategy struct{}

// NewBackoffWaitStrategy creates an iox.Backoff based wait strategy.
func NewBackoffWaitStrategy() *BackoffWaitStrategy {
	return &BackoffWaitStrategy{}
}

// WaitFor backs off until deps reaches sequence or ctx is done.
func (*BackoffWaitStrategy) WaitFor(ctx context.Context, sequence int64, deps *DependentSequenceGroup) (int64, error) {
	done := ctx.Done()
	backoff := iox.Backoff{}
	for {
		if v := deps.Value(); v >= sequence {
			return v, nil
		}
		select {
		case <-done:
			return 0, canceled(ctx)
		default:
		}
		backoff.Wait()
	}
}

// SignalAllWhenBlocking is a no-op.
func (*BackoffWaitStrategy) SignalAllWhenBlocking() {}

// IsBlocking reports false.
func (*BackoffWaitStrategy) IsBlocking() bool { return false }
