// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command ringperf measures disruptor ring buffer throughput and latency.
package main

import (
	"os"

	"code.hybscloud.com/disruptor/internal/perf"
)

func main() {
	if err := perf.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
