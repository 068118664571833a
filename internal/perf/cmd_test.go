// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package perf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ringperf", cmd.Use)

	for _, name := range []string{"run", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	logFile := cmd.PersistentFlags().Lookup("log-file")
	require.NotNil(t, logFile)
	assert.Equal(t, "", logFile.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	defaults := DefaultConfig()
	for flag, def := range map[string]string{
		"producer-type": defaults.ProducerType,
		"wait-strategy": defaults.WaitStrategy,
		"config":        "",
		"pool":          "0",
		"stages":        "1",
	} {
		f := run.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ringperf "+Version+"\n", out.String())
}

func TestRunCommandRejectsUnknownWaitStrategy(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run", "--wait-strategy", "lazy"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "lazy")
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "producers: 4\nproducerType: multi\nevents: 100\n")

	root := NewRootCommand()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--config", path, "--events", "7"}))

	opts := &RunOptions{RootOptions: &RootOptions{}, ConfigFile: path, Config: DefaultConfig()}
	opts.Config.Events = 7
	cfg, err := resolveConfig(run, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Producers)
	assert.Equal(t, "multi", cfg.ProducerType)
	assert.Equal(t, int64(7), cfg.Events)
}
