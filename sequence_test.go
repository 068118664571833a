// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor_test

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"code.hybscloud.com/disruptor"
)

// =============================================================================
// Sequence
// =============================================================================

func TestSequenceBasic(t *testing.T) {
	s := disruptor.NewSequence(disruptor.InitialSequenceValue)
	if got := s.Get(); got != -1 {
		t.Fatalf("Get: got %d, want -1", got)
	}

	s.Set(10)
	if got := s.Get(); got != 10 {
		t.Fatalf("Get after Set(10): got %d, want 10", got)
	}

	if s.CompareAndSet(9, 20) {
		t.Fatal("CompareAndSet(9, 20): got true with value 10")
	}
	if !s.CompareAndSet(10, 20) {
		t.Fatal("CompareAndSet(10, 20): got false with value 10")
	}
	if got := s.Get(); got != 20 {
		t.Fatalf("Get after CAS: got %d, want 20", got)
	}

	if got := s.IncrementAndGet(); got != 21 {
		t.Fatalf("IncrementAndGet: got %d, want 21", got)
	}
	if got := s.AddAndGet(9); got != 30 {
		t.Fatalf("AddAndGet(9): got %d, want 30", got)
	}
	if got := s.String(); got != "30" {
		t.Fatalf("String: got %q, want %q", got, "30")
	}
}

func TestSequenceConcurrentIncrement(t *testing.T) {
	const goroutines, perG = 8, 10000
	s := disruptor.NewSequence(0)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			for range perG {
				s.IncrementAndGet()
			}
		})
	}
	wg.Wait()

	if got := s.Get(); got != goroutines*perG {
		t.Fatalf("Get: got %d, want %d", got, goroutines*perG)
	}
}

// TestSequenceLayout checks that the value sits alone on its cache line.
func TestSequenceLayout(t *testing.T) {
	typ := reflect.TypeFor[disruptor.Sequence]()
	if typ.Size() != 128 {
		t.Fatalf("Sizeof(Sequence): got %d, want 128", typ.Size())
	}
	f, ok := typ.FieldByName("value")
	if !ok {
		t.Fatal("Sequence has no value field")
	}
	if f.Offset != 64 {
		t.Fatalf("Offsetof(value): got %d, want 64", f.Offset)
	}
}

func TestMinimumSequence(t *testing.T) {
	tests := []struct {
		name    string
		values  []int64
		minimum int64
		want    int64
	}{
		{"empty", nil, 7, 7},
		{"below minimum", []int64{3, 9, 5}, 7, 3},
		{"above minimum", []int64{10, 12}, 7, 7},
		{"max", []int64{4, 2, 8}, math.MaxInt64, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seqs := make([]*disruptor.Sequence, len(tt.values))
			for i, v := range tt.values {
				seqs[i] = disruptor.NewSequence(v)
			}
			if got := disruptor.MinimumSequence(seqs, tt.minimum); got != tt.want {
				t.Fatalf("MinimumSequence: got %d, want %d", got, tt.want)
			}
		})
	}
}

// =============================================================================
// DependentSequenceGroup
// =============================================================================

func TestDependentSequenceGroupValue(t *testing.T) {
	cursor := disruptor.NewSequence(10)

	g := disruptor.NewDependentSequenceGroup(cursor)
	if got := g.Value(); got != 10 {
		t.Fatalf("no dependents Value: got %d, want 10", got)
	}
	if got := g.Len(); got != 0 {
		t.Fatalf("no dependents Len: got %d, want 0", got)
	}

	a := disruptor.NewSequence(4)
	g = disruptor.NewDependentSequenceGroup(cursor, a)
	if got := g.Value(); got != 4 {
		t.Fatalf("one dependent Value: got %d, want 4", got)
	}

	b := disruptor.NewSequence(2)
	deps := []*disruptor.Sequence{a, b}
	g = disruptor.NewDependentSequenceGroup(cursor, deps...)
	if got := g.Value(); got != 2 {
		t.Fatalf("two dependents Value: got %d, want 2", got)
	}
	if got := g.CursorValue(); got != 10 {
		t.Fatalf("CursorValue: got %d, want 10", got)
	}

	// The group keeps its own copy of the dependents.
	deps[1] = disruptor.NewSequence(-5)
	if got := g.Value(); got != 2 {
		t.Fatalf("Value after caller mutation: got %d, want 2", got)
	}

	b.Set(8)
	if got := g.Value(); got != 4 {
		t.Fatalf("Value after dependent advance: got %d, want 4", got)
	}
}
