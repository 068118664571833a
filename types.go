// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

// EventHandler consumes events delivered by an [EventProcessor].
//
// OnEvent is called once per sequence in strictly increasing order.
// endOfBatch is true for the last sequence of the batch currently
// available, which is where handlers typically flush.
//
// The event pointer refers to the ring slot and is valid only until
// OnEvent returns. A non-nil error halts the processor; the failing
// sequence is not marked as processed.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool) error
}

// EventHandlerFunc adapts a function to [EventHandler].
type EventHandlerFunc[T any] func(event *T, sequence int64, endOfBatch bool) error

// OnEvent calls f.
func (f EventHandlerFunc[T]) OnEvent(event *T, sequence int64, endOfBatch bool) error {
	return f(event, sequence, endOfBatch)
}

// BatchStartAware is implemented by handlers that want to know the size of
// each batch before its first event.
type BatchStartAware interface {
	OnBatchStart(batchSize int64)
}

// LifecycleAware is implemented by handlers that want notification on the
// processor goroutine when processing starts and stops.
type LifecycleAware interface {
	OnStart()
	OnShutdown()
}

// PollHandler consumes events delivered by [EventPoller.Poll].
// Returning false stops the current poll after this event.
type PollHandler[T any] func(event *T, sequence int64, endOfBatch bool) (bool, error)
