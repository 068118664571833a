// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package perf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringperf.log")
	logger, flush := NewLogger(path, false)
	logger.Debug("hidden")
	logger.Info("visible", zap.Int("stages", 3))
	require.NoError(t, flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
	assert.Contains(t, string(data), "stages")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLoggerVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringperf.log")
	logger, flush := NewLogger(path, true)
	logger.Debug("detail")
	require.NoError(t, flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "detail")
}
