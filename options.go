// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import "go.uber.org/zap"

// Options configures ring buffer and disruptor creation.
type Options struct {
	// Producer constraint (selects the sequencer)
	producerType ProducerType

	// Consumer waiting
	waitStrategy WaitStrategy

	// Capacity (must be a power of 2)
	bufferSize int

	// Disruptor only
	logger   *zap.Logger
	executor Executor
	cpus     []int
}

// Builder creates ring buffers and disruptors with fluent configuration.
//
// Defaults: multi-producer sequencer, [BlockingWaitStrategy], no-op
// logger, one goroutine per event processor.
//
// Example:
//
//	// Single producer, busy-spin consumers pinned to cores 2 and 3
//	d, err := disruptor.BuildDisruptor(
//	    disruptor.New(1024).
//	        SingleProducer().
//	        WaitStrategy(disruptor.NewBusySpinWaitStrategy()).
//	        Affinity(2, 3),
//	    func() Event { return Event{} },
//	)
//
//	// Ring buffer only
//	rb, err := disruptor.BuildRingBuffer(disruptor.New(4096), newEvent)
type Builder struct {
	opts Options
}

// New creates a builder for a ring of bufferSize slots.
//
// bufferSize is validated when building: it must be a positive power of 2
// or the build returns ErrInvalidBufferSize.
func New(bufferSize int) *Builder {
	return &Builder{opts: Options{
		producerType: ProducerMulti,
		bufferSize:   bufferSize,
	}}
}

// SingleProducer declares that only one goroutine will claim and publish.
// Selects the single-producer sequencer, which needs no atomic
// read-modify-write on claim.
func (b *Builder) SingleProducer() *Builder {
	b.opts.producerType = ProducerSingle
	return b
}

// MultiProducer declares that any number of goroutines may claim and
// publish. This is the default.
func (b *Builder) MultiProducer() *Builder {
	b.opts.producerType = ProducerMulti
	return b
}

// ProducerType sets the producer constraint explicitly.
func (b *Builder) ProducerType(producerType ProducerType) *Builder {
	b.opts.producerType = producerType
	return b
}

// WaitStrategy sets how consumers wait for events.
func (b *Builder) WaitStrategy(waitStrategy WaitStrategy) *Builder {
	b.opts.waitStrategy = waitStrategy
	return b
}

// Logger sets the logger used by a disruptor and its processors.
func (b *Builder) Logger(logger *zap.Logger) *Builder {
	b.opts.logger = logger
	return b
}

// Executor sets where a disruptor runs its processors.
// A goroutine pool with a Submit(func()) error method fits directly.
func (b *Builder) Executor(executor Executor) *Builder {
	b.opts.executor = executor
	return b
}

// Affinity pins event processor goroutines to cpus, round robin in the
// order processors were added. Pinning failures are logged and ignored.
func (b *Builder) Affinity(cpus ...int) *Builder {
	b.opts.cpus = append([]int(nil), cpus...)
	return b
}

func (b *Builder) waitStrategy() WaitStrategy {
	if b.opts.waitStrategy == nil {
		return NewBlockingWaitStrategy()
	}
	return b.opts.waitStrategy
}

// BuildRingBuffer creates a ring buffer from b, filling each slot with
// factory.
func BuildRingBuffer[T any](b *Builder, factory func() T) (*RingBuffer[T], error) {
	return NewRingBuffer(factory, b.opts.bufferSize, b.opts.producerType, b.waitStrategy())
}

// BuildDisruptor creates a disruptor over a new ring buffer from b.
func BuildDisruptor[T any](b *Builder, factory func() T) (*Disruptor[T], error) {
	rb, err := BuildRingBuffer(b, factory)
	if err != nil {
		return nil, err
	}
	d := NewDisruptor(rb)
	if b.opts.logger != nil {
		d.logger = b.opts.logger
	}
	if b.opts.executor != nil {
		d.executor = b.opts.executor
	}
	d.cpus = b.opts.cpus
	return d, nil
}

// cacheLineSize is the assumed cache line size in bytes.
const cacheLineSize = 64

// pad is cache line padding to prevent false sharing.
type pad [cacheLineSize]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [cacheLineSize - 8]byte
