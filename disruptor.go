// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"code.hybscloud.com/iox"
	"go.uber.org/zap"

	"code.hybscloud.com/disruptor/internal/affinity"
)

// Executor runs event processor loops.
//
// Submit must run task on its own goroutine; processors block for their
// whole lifetime. A pool used as an Executor needs at least one worker per
// processor.
type Executor interface {
	Submit(task func()) error
}

type goroutineExecutor struct{}

func (goroutineExecutor) Submit(task func()) error {
	go task()
	return nil
}

// Disruptor wires event handlers into a dependency graph of event
// processors over one ring buffer and manages their lifecycle.
//
// Handlers added with HandleEventsWith consume directly behind the
// producers. Then adds a stage that only sees an event after every handler
// of the previous group has processed it. Only the last stage of each
// chain gates the producers.
//
// Example (diamond):
//
//	d, _ := disruptor.BuildDisruptor(disruptor.New(1024), newEvent)
//	journal := d.HandleEventsWith(journalHandler)
//	replicate := d.HandleEventsWith(replicationHandler)
//	journal.And(replicate).Then(businessHandler)
//	d.Start()
//	defer d.Shutdown(ctx)
//
//	d.RingBuffer().PublishEvent(func(ev *Event, seq int64) { ev.Value = 1 })
type Disruptor[T any] struct {
	ring     *RingBuffer[T]
	executor Executor
	logger   *zap.Logger
	cpus     []int

	mu         sync.Mutex
	processors []*EventProcessor[T]
	started    bool
	wg         sync.WaitGroup
}

// NewDisruptor creates a disruptor over ring with default options.
// Use [BuildDisruptor] to configure logging, execution and affinity.
func NewDisruptor[T any](ring *RingBuffer[T]) *Disruptor[T] {
	return &Disruptor[T]{
		ring:     ring,
		executor: goroutineExecutor{},
		logger:   zap.NewNop(),
	}
}

// RingBuffer returns the ring buffer producers publish to.
func (d *Disruptor[T]) RingBuffer() *RingBuffer[T] {
	return d.ring
}

// HandleEventsWith adds one processor per handler, consuming directly
// behind the producers in parallel.
// Panics if the disruptor has been started.
func (d *Disruptor[T]) HandleEventsWith(handlers ...EventHandler[T]) *EventHandlerGroup[T] {
	return d.createProcessors(nil, handlers)
}

// After returns a group over existing processors, for starting a new
// stage behind them.
func (d *Disruptor[T]) After(processors ...*EventProcessor[T]) *EventHandlerGroup[T] {
	seqs := make([]*Sequence, len(processors))
	for i, p := range processors {
		seqs[i] = p.Sequence()
	}
	return &EventHandlerGroup[T]{d: d, sequences: seqs}
}

// Processors returns the processors created so far, in creation order.
func (d *Disruptor[T]) Processors() []*EventProcessor[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*EventProcessor[T](nil), d.processors...)
}

func (d *Disruptor[T]) createProcessors(dependents []*Sequence, handlers []EventHandler[T]) *EventHandlerGroup[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		panic(ErrAlreadyStarted)
	}

	barrier := d.ring.NewBarrier(dependents...)
	seqs := make([]*Sequence, 0, len(handlers))
	for _, h := range handlers {
		p := NewEventProcessor(d.ring, barrier, h).WithLogger(d.logger)
		d.processors = append(d.processors, p)
		seqs = append(seqs, p.Sequence())
	}

	// New stage gates the producers instead of the stage it follows.
	d.ring.AddGatingSequences(seqs...)
	for _, s := range dependents {
		d.ring.RemoveGatingSequence(s)
	}
	return &EventHandlerGroup[T]{d: d, sequences: seqs}
}

// Start runs every processor on the executor.
// Returns ErrAlreadyStarted on the second call.
func (d *Disruptor[T]) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return ErrAlreadyStarted
	}
	d.started = true

	for i, p := range d.processors {
		cpu := -1
		if len(d.cpus) > 0 {
			cpu = d.cpus[i%len(d.cpus)]
		}
		d.wg.Add(1)
		if err := d.executor.Submit(func() {
			defer d.wg.Done()
			d.run(p, cpu)
		}); err != nil {
			d.wg.Done()
			for _, q := range d.processors {
				q.Halt()
			}
			return fmt.Errorf("disruptor: submit processor %d: %w", i, err)
		}
	}
	d.logger.Info("disruptor started",
		zap.Int("processors", len(d.processors)),
		zap.Int("bufferSize", d.ring.BufferSize()),
		zap.Stringer("producer", d.ring.ProducerType()))
	return nil
}

func (d *Disruptor[T]) run(p *EventProcessor[T], cpu int) {
	if cpu >= 0 {
		unpin, err := affinity.Pin(cpu)
		if err != nil {
			d.logger.Warn("cpu pinning failed", zap.Int("cpu", cpu), zap.Error(err))
		} else {
			defer unpin()
		}
	}
	if err := p.Run(context.Background()); err != nil && !errors.Is(err, ErrHalted) {
		d.logger.Warn("event processor stopped", zap.Error(err))
	}
}

// Halt stops every processor after its event in progress and waits for
// the loops to return. Unprocessed events stay in the ring.
func (d *Disruptor[T]) Halt() {
	d.mu.Lock()
	for _, p := range d.processors {
		p.Halt()
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Shutdown waits until every published event has been processed by the
// end of each chain, then halts.
//
// Returns the first handler fault when a processor failed, leaving the
// others running. Returns an error matching ErrCanceled, without halting,
// when ctx is done first.
func (d *Disruptor[T]) Shutdown(ctx context.Context) error {
	done := ctx.Done()
	backoff := iox.Backoff{}
	for d.hasBacklog() {
		if err := d.Err(); err != nil {
			return err
		}
		select {
		case <-done:
			return canceled(ctx)
		default:
		}
		backoff.Wait()
	}
	d.Halt()
	return d.Err()
}

func (d *Disruptor[T]) hasBacklog() bool {
	return d.ring.MinimumGatingSequence() < d.ring.Cursor()
}

// Err returns the first handler fault among the processors.
func (d *Disruptor[T]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.processors {
		if err := p.Err(); err != nil {
			return err
		}
	}
	return nil
}

// EventHandlerGroup is a set of processors that a following stage depends
// on.
type EventHandlerGroup[T any] struct {
	d         *Disruptor[T]
	sequences []*Sequence
}

// Then adds one processor per handler behind every processor of g.
func (g *EventHandlerGroup[T]) Then(handlers ...EventHandler[T]) *EventHandlerGroup[T] {
	return g.d.createProcessors(g.sequences, handlers)
}

// And combines g with other, so a following stage waits for both.
func (g *EventHandlerGroup[T]) And(other *EventHandlerGroup[T]) *EventHandlerGroup[T] {
	seqs := make([]*Sequence, 0, len(g.sequences)+len(other.sequences))
	seqs = append(seqs, g.sequences...)
	seqs = append(seqs, other.sequences...)
	return &EventHandlerGroup[T]{d: g.d, sequences: seqs}
}

// Sequences returns the progress sequences of the group.
func (g *EventHandlerGroup[T]) Sequences() []*Sequence {
	return append([]*Sequence(nil), g.sequences...)
}

// AsBarrier returns a barrier behind the group, for a poller or a manually
// created processor.
func (g *EventHandlerGroup[T]) AsBarrier() *SequenceBarrier {
	return g.d.ring.NewBarrier(g.sequences...)
}
