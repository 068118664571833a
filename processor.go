// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"
)

// ProcessorState is the lifecycle state of an [EventProcessor].
type ProcessorState int32

const (
	// ProcessorIdle means Run has not been called.
	ProcessorIdle ProcessorState = iota
	// ProcessorRunning means the batch loop is active.
	ProcessorRunning
	// ProcessorHalted means the loop has stopped and cannot be restarted.
	ProcessorHalted
)

// String returns the state name.
func (s ProcessorState) String() string {
	switch s {
	case ProcessorIdle:
		return "Idle"
	case ProcessorRunning:
		return "Running"
	case ProcessorHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// EventProcessor drives an [EventHandler] from a [SequenceBarrier] on one
// goroutine.
//
// Each iteration waits for the next sequence, hands every available event
// to the handler in order and then stores the batch end into its own
// sequence. That sequence is what producers (as a gating sequence) and
// downstream stages (as a dependent) observe.
//
// A handler error or panic halts the processor with its sequence at the
// last event that completed. The fault is returned by Run and kept in Err.
//
// Example:
//
//	p := disruptor.NewEventProcessor(rb, rb.NewBarrier(), handler)
//	rb.AddGatingSequences(p.Sequence())
//	go p.Run(ctx)
//	...
//	p.Halt()
//	<-p.Done()
type EventProcessor[T any] struct {
	_        pad
	sequence Sequence
	state    atomix.Int32
	_        padShort

	ring       *RingBuffer[T]
	barrier    *SequenceBarrier
	handler    EventHandler[T]
	batchStart BatchStartAware
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	halted bool
	err    error
	done   chan struct{}
}

// NewEventProcessor creates a processor consuming ring through barrier.
// The processor's sequence starts at InitialSequenceValue.
func NewEventProcessor[T any](ring *RingBuffer[T], barrier *SequenceBarrier, handler EventHandler[T]) *EventProcessor[T] {
	p := &EventProcessor[T]{
		ring:    ring,
		barrier: barrier,
		handler: handler,
		logger:  zap.NewNop(),
		done:    make(chan struct{}),
	}
	p.sequence.Set(InitialSequenceValue)
	if bs, ok := handler.(BatchStartAware); ok {
		p.batchStart = bs
	}
	return p
}

// WithLogger sets the logger used for lifecycle and fault records.
// Call before Run.
func (p *EventProcessor[T]) WithLogger(logger *zap.Logger) *EventProcessor[T] {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Sequence returns the processor's progress sequence.
func (p *EventProcessor[T]) Sequence() *Sequence {
	return &p.sequence
}

// Barrier returns the barrier the processor waits on.
func (p *EventProcessor[T]) Barrier() *SequenceBarrier {
	return p.barrier
}

// State returns the lifecycle state.
func (p *EventProcessor[T]) State() ProcessorState {
	return ProcessorState(p.state.LoadAcquire())
}

// IsRunning reports whether the batch loop is active.
func (p *EventProcessor[T]) IsRunning() bool {
	return p.State() == ProcessorRunning
}

// Done is closed when the processor has halted.
func (p *EventProcessor[T]) Done() <-chan struct{} {
	return p.done
}

// Err returns the handler fault that halted the processor, if any.
func (p *EventProcessor[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Halt asks the processor to stop after the event in progress.
// Halting an idle processor prevents it from ever running.
func (p *EventProcessor[T]) Halt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return
	}
	p.halted = true
	switch ProcessorState(p.state.LoadAcquire()) {
	case ProcessorIdle:
		p.state.StoreRelease(int32(ProcessorHalted))
		close(p.done)
	case ProcessorRunning:
		p.cancel()
	}
}

// Run processes events on the calling goroutine until Halt is called, ctx
// is done or the handler fails.
//
// Returns nil after Halt, an error matching ErrCanceled when ctx ends the
// loop and an error matching ErrHandlerFault on handler failure.
// Returns ErrAlreadyRunning or ErrHalted when the processor is not idle.
func (p *EventProcessor[T]) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	switch ProcessorState(p.state.LoadAcquire()) {
	case ProcessorRunning:
		p.mu.Unlock()
		return ErrAlreadyRunning
	case ProcessorHalted:
		p.mu.Unlock()
		return ErrHalted
	}
	p.cancel = cancel
	p.state.StoreRelease(int32(ProcessorRunning))
	p.mu.Unlock()

	if la, ok := p.handler.(LifecycleAware); ok {
		la.OnStart()
		defer la.OnShutdown()
	}
	p.logger.Debug("event processor started", zap.Int64("sequence", p.sequence.Get()))

	err := p.processEvents(ctx)

	p.mu.Lock()
	if err != nil && !p.halted {
		if IsCanceled(err) {
			p.logger.Debug("event processor canceled", zap.Int64("sequence", p.sequence.Get()))
		} else {
			p.err = err
			p.logger.Error("event processor halted on handler fault",
				zap.Int64("sequence", p.sequence.Get()), zap.Error(err))
		}
	} else {
		err = nil
		p.logger.Debug("event processor halted", zap.Int64("sequence", p.sequence.Get()))
	}
	p.halted = true
	p.state.StoreRelease(int32(ProcessorHalted))
	close(p.done)
	p.mu.Unlock()
	return err
}

func (p *EventProcessor[T]) processEvents(ctx context.Context) (err error) {
	next := p.sequence.Get() + 1
	defer func() {
		if r := recover(); r != nil {
			p.sequence.Set(next - 1)
			err = fmt.Errorf("%w: sequence %d: panic: %v", ErrHandlerFault, next, r)
		}
	}()

	done := ctx.Done()
	for {
		select {
		case <-done:
			return canceled(ctx)
		default:
		}

		available, werr := p.barrier.WaitFor(ctx, next)
		if werr != nil {
			return werr
		}
		if available < next {
			continue
		}

		if p.batchStart != nil {
			p.batchStart.OnBatchStart(available - next + 1)
		}
		for next <= available {
			if herr := p.handler.OnEvent(p.ring.Get(next), next, next == available); herr != nil {
				p.sequence.Set(next - 1)
				return fmt.Errorf("%w: sequence %d: %w", ErrHandlerFault, next, herr)
			}
			next++
		}
		p.sequence.Set(available)
	}
}
