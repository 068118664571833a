// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package affinity pins goroutines to CPUs.
//
// Pinning locks the goroutine to its OS thread and restricts that thread
// to one CPU. It is only meaningful for long-running loops such as event
// processors using a spinning wait strategy.
package affinity

import "errors"

// ErrUnsupported is returned where thread affinity is not available.
var ErrUnsupported = errors.New("affinity: not supported on this platform")

// ErrInvalidCPU is returned for a CPU index outside the supported range.
var ErrInvalidCPU = errors.New("affinity: invalid cpu")
