// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor_test

import (
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hybscloud.com/disruptor"
)

type testEvent struct {
	Value int64
	Seq   int64
}

func newTestEvent() testEvent { return testEvent{} }

var producerTypes = []disruptor.ProducerType{disruptor.ProducerSingle, disruptor.ProducerMulti}

func mustRing(t *testing.T, size int, pt disruptor.ProducerType, ws disruptor.WaitStrategy) *disruptor.RingBuffer[testEvent] {
	t.Helper()
	rb, err := disruptor.NewRingBuffer(newTestEvent, size, pt, ws)
	if err != nil {
		t.Fatalf("NewRingBuffer(%d, %s): %v", size, pt, err)
	}
	return rb
}

// retryWithTimeout retries f until it returns true or timeout expires.
func retryWithTimeout(t *testing.T, timeout time.Duration, f func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for !f() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s", timeout, msg)
		}
		backoff.Wait()
	}
}

// waitForCount waits until counter reaches target or timeout expires.
func waitForCount(t *testing.T, timeout time.Duration, counter *atomix.Int64, target int64, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for counter.Load() < target {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s (got %d, want %d)", timeout, msg, counter.Load(), target)
		}
		backoff.Wait()
	}
}

// mustPanic fails the test unless f panics.
func mustPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: did not panic", name)
		}
	}()
	f()
}
