// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-blocking claim cannot proceed immediately
// because the ring buffer lacks capacity for the requested count.
//
// ErrWouldBlock is a control flow signal, not a failure. Nothing was
// claimed; the caller retries later (with backoff or yield) or falls back to
// the blocking Next variants.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    seq, err := rb.TryNext()
//	    if err == nil {
//	        backoff.Reset()
//	        fill(rb.Get(seq))
//	        rb.Publish(seq)
//	        break
//	    }
//	    if disruptor.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err
//	}
var ErrWouldBlock = iox.ErrWouldBlock

var (
	// ErrInvalidBufferSize is returned by constructors when the buffer size
	// is not a positive power of two.
	ErrInvalidBufferSize = errors.New("disruptor: buffer size must be a positive power of 2")

	// ErrInvalidProducerType is returned by constructors for a producer type
	// other than ProducerSingle or ProducerMulti.
	ErrInvalidProducerType = errors.New("disruptor: unknown producer type")

	// ErrNilWaitStrategy is returned by constructors when no wait strategy
	// is given.
	ErrNilWaitStrategy = errors.New("disruptor: wait strategy is nil")

	// ErrNilEventFactory is returned by constructors when no event factory
	// is given.
	ErrNilEventFactory = errors.New("disruptor: event factory is nil")

	// ErrInvalidClaim is returned when a claim count is less than 1 or
	// larger than the buffer size.
	ErrInvalidClaim = errors.New("disruptor: claim count must be in [1, bufferSize]")

	// ErrCanceled is returned when a wait is abandoned because its context
	// was canceled. Errors carrying it also match the context's own error.
	ErrCanceled = errors.New("disruptor: wait canceled")

	// ErrAlreadyRunning is returned by EventProcessor.Run when the
	// processor is already running.
	ErrAlreadyRunning = errors.New("disruptor: processor already running")

	// ErrHalted is returned by EventProcessor.Run when the processor has
	// already been halted. Halted is terminal.
	ErrHalted = errors.New("disruptor: processor halted")

	// ErrHandlerFault wraps the error (or recovered panic) that halted an
	// EventProcessor.
	ErrHandlerFault = errors.New("disruptor: event handler fault")

	// ErrAlreadyStarted is returned by Disruptor methods that must run
	// before Start.
	ErrAlreadyStarted = errors.New("disruptor: already started")
)

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// IsCanceled reports whether err is a cancellation outcome of a wait.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// canceled builds the cancellation outcome for ctx.
func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
}
