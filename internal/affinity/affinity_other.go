// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package affinity

import "runtime"

// Pin returns ErrUnsupported; thread affinity is only implemented on Linux.
func Pin(cpu int) (unpin func(), err error) {
	if cpu < 0 {
		return nil, ErrInvalidCPU
	}
	return nil, ErrUnsupported
}

// Allowed returns every CPU reported by the runtime.
func Allowed() ([]int, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus, nil
}
