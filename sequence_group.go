// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package disruptor

import (
	"context"
	"math"

	"code.hybscloud.com/spin"
)

// DependentSequenceGroup is the wait boundary of a consumer.
//
// A first-stage consumer depends on the producer cursor only. A later stage
// depends on one or more upstream consumer sequences and must never get
// ahead of any of them (fan-in and diamond graphs). The cursor is kept in
// both cases: blocking wait strategies park on it, since only producers
// signal.
type DependentSequenceGroup struct {
	cursor     *Sequence
	dependents []*Sequence
}

// NewDependentSequenceGroup creates a group bounded by cursor and, when
// given, by the minimum of dependents.
func NewDependentSequenceGroup(cursor *Sequence, dependents ...*Sequence) *DependentSequenceGroup {
	deps := make([]*Sequence, len(dependents))
	copy(deps, dependents)
	return &DependentSequenceGroup{cursor: cursor, dependents: deps}
}

// CursorValue returns the producer cursor.
func (g *DependentSequenceGroup) CursorValue() int64 {
	return g.cursor.Get()
}

// Value returns the highest sequence the dependent consumer may reach:
// the cursor when there are no upstream consumers, otherwise the minimum
// of the upstream consumer sequences.
func (g *DependentSequenceGroup) Value() int64 {
	switch len(g.dependents) {
	case 0:
		return g.cursor.Get()
	case 1:
		return g.dependents[0].Get()
	default:
		return MinimumSequence(g.dependents, math.MaxInt64)
	}
}

// Len returns the number of upstream consumer sequences.
func (g *DependentSequenceGroup) Len() int {
	return len(g.dependents)
}

// AggressiveSpinWaitFor spins until Value reaches sequence and returns it.
// ctx is checked on every iteration.
func (g *DependentSequenceGroup) AggressiveSpinWaitFor(ctx context.Context, sequence int64) (int64, error) {
	if v := g.Value(); v >= sequence {
		return v, nil
	}

	done := ctx.Done()
	sw := spin.Wait{}
	for {
		if v := g.Value(); v >= sequence {
			return v, nil
		}
		select {
		case <-done:
			return 0, canceled(ctx)
		default:
		}
		sw.Once()
	}
}
