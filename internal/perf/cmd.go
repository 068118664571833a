// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package perf implements the ringperf command: a configurable
// producer/consumer pipeline over a disruptor ring that reports
// throughput and latency.
package perf

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	LogFile string
}

// NewRootCommand creates the ringperf command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ringperf",
		Short: "Disruptor ring buffer throughput and latency harness",
		Long: `ringperf pushes events through a pipeline of event processors over a
pre-allocated ring buffer and reports throughput and publish-to-consume
latency.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "write logs to a rotated file instead of stderr")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigFile string
	Config     Config
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, Config: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark pipeline",
		Long: `Run a benchmark pipeline.

Flags override values loaded with --config.

Example:
  ringperf run --events 1000000 --wait-strategy busyspin --cpus 2,3
  ringperf run --producers 4 --producer-type multi --stages 3
  ringperf run --config pipeline.yaml --log-file ringperf.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigFile, "config", "", "YAML pipeline file")
	f.IntVar(&opts.Config.Producers, "producers", opts.Config.Producers, "producer goroutines")
	f.StringVar(&opts.Config.ProducerType, "producer-type", opts.Config.ProducerType, "producer type (single|multi)")
	f.StringVar(&opts.Config.WaitStrategy, "wait-strategy", opts.Config.WaitStrategy, "wait strategy (blocking|busyspin|yielding|sleeping|backoff)")
	f.IntVar(&opts.Config.BufferSize, "buffer-size", opts.Config.BufferSize, "ring buffer size (power of 2)")
	f.IntVar(&opts.Config.Stages, "stages", opts.Config.Stages, "chained event processor stages")
	f.Int64Var(&opts.Config.Events, "events", opts.Config.Events, "events to publish in total")
	f.IntVar(&opts.Config.Batch, "batch", opts.Config.Batch, "sequences claimed per publish")
	f.IntVar(&opts.Config.Pool, "pool", opts.Config.Pool, "run processors on a goroutine pool of this size (0: one goroutine each)")
	f.IntSliceVar(&opts.Config.CPUs, "cpus", nil, "pin processors to these CPUs, round robin")

	return cmd
}

// resolveConfig loads the config file, then re-applies explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *RunOptions) (Config, error) {
	if opts.ConfigFile == "" {
		return opts.Config, nil
	}
	cfg, err := LoadConfig(opts.ConfigFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("producers") {
		cfg.Producers = opts.Config.Producers
	}
	if flags.Changed("producer-type") {
		cfg.ProducerType = opts.Config.ProducerType
	}
	if flags.Changed("wait-strategy") {
		cfg.WaitStrategy = opts.Config.WaitStrategy
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = opts.Config.BufferSize
	}
	if flags.Changed("stages") {
		cfg.Stages = opts.Config.Stages
	}
	if flags.Changed("events") {
		cfg.Events = opts.Config.Events
	}
	if flags.Changed("batch") {
		cfg.Batch = opts.Config.Batch
	}
	if flags.Changed("pool") {
		cfg.Pool = opts.Config.Pool
	}
	if flags.Changed("cpus") {
		cfg.CPUs = opts.Config.CPUs
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, flush := NewLogger(opts.LogFile, opts.Verbose)
	defer func() { _ = flush() }()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.String())
	return nil
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ringperf %s\n", Version)
		},
	}
}
