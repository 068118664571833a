// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package perf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"code.hybscloud.com/disruptor"
)

// event is the slot type of the benchmark ring.
type event struct {
	Value     int64
	Published int64 // UnixNano at publish
}

// Report is the outcome of one run.
type Report struct {
	RunID       string
	Config      Config
	Events      int64
	Elapsed     time.Duration
	MeanLatency time.Duration
	MaxLatency  time.Duration
}

// OpsPerSecond returns the end-to-end throughput.
func (r Report) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Events) / r.Elapsed.Seconds()
}

// String formats the report for terminal output.
func (r Report) String() string {
	return fmt.Sprintf(
		"run %s: %d events, %d producer(s) [%s], %d stage(s), wait=%s, buffer=%d, batch=%d\n"+
			"  elapsed %v, %.0f ops/s, latency mean %v max %v",
		r.RunID, r.Events, r.Config.Producers, r.Config.ProducerType, r.Config.Stages,
		r.Config.WaitStrategy, r.Config.BufferSize, r.Config.Batch,
		r.Elapsed, r.OpsPerSecond(), r.MeanLatency, r.MaxLatency)
}

// sink is the last stage: it counts events and measures publish-to-consume
// latency. Only its processor goroutine touches the counters while running.
type sink struct {
	count    int64
	totalLat int64
	maxLat   int64
}

func (s *sink) OnEvent(ev *event, _ int64, _ bool) error {
	lat := time.Now().UnixNano() - ev.Published
	s.count++
	s.totalLat += lat
	s.maxLat = max(s.maxLat, lat)
	return nil
}

// Run builds the pipeline described by cfg, pushes cfg.Events events
// through it and reports throughput and latency.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	pt, _ := cfg.producerType()
	ws, _ := cfg.waitStrategy()

	runID := uuid.Must(uuid.NewV7()).String()
	logger = logger.With(zap.String("run", runID))

	b := disruptor.New(cfg.BufferSize).ProducerType(pt).WaitStrategy(ws).Logger(logger)
	if len(cfg.CPUs) > 0 {
		b.Affinity(cfg.CPUs...)
	}
	if cfg.Pool > 0 {
		pool, err := ants.NewPool(cfg.Pool, ants.WithNonblocking(true))
		if err != nil {
			return Report{}, fmt.Errorf("perf: create pool: %w", err)
		}
		defer pool.Release()
		b.Executor(pool)
	}

	d, err := disruptor.BuildDisruptor(b, func() event { return event{} })
	if err != nil {
		return Report{}, err
	}

	out := &sink{}
	pass := disruptor.EventHandlerFunc[event](func(ev *event, _ int64, _ bool) error {
		ev.Value++
		return nil
	})
	if cfg.Stages == 1 {
		d.HandleEventsWith(out)
	} else {
		group := d.HandleEventsWith(pass)
		for range cfg.Stages - 2 {
			group = group.Then(pass)
		}
		group.Then(out)
	}

	logger.Info("starting run",
		zap.Int("producers", cfg.Producers),
		zap.String("producerType", cfg.ProducerType),
		zap.String("waitStrategy", cfg.WaitStrategy),
		zap.Int("stages", cfg.Stages),
		zap.Int64("events", cfg.Events))

	if err := d.Start(); err != nil {
		return Report{}, err
	}

	start := time.Now()
	rb := d.RingBuffer()
	perProducer := cfg.Events / int64(cfg.Producers)
	total := perProducer * int64(cfg.Producers)

	var wg sync.WaitGroup
	prodCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var prodErr error
	var prodErrOnce sync.Once
	for range cfg.Producers {
		wg.Go(func() {
			if err := produce(prodCtx, rb, perProducer, cfg.Batch); err != nil {
				prodErrOnce.Do(func() { prodErr = err })
				cancel()
			}
		})
	}
	wg.Wait()
	if prodErr != nil {
		d.Halt()
		return Report{}, fmt.Errorf("perf: producer: %w", prodErr)
	}

	if err := d.Shutdown(ctx); err != nil {
		d.Halt()
		return Report{}, fmt.Errorf("perf: drain: %w", err)
	}
	elapsed := time.Since(start)

	// Shutdown waited for the sink goroutine to exit.
	report := Report{
		RunID:      runID,
		Config:     cfg,
		Events:     out.count,
		Elapsed:    elapsed,
		MaxLatency: time.Duration(out.maxLat),
	}
	if out.count > 0 {
		report.MeanLatency = time.Duration(out.totalLat / out.count)
	}
	if out.count != total {
		return report, fmt.Errorf("perf: sink received %d events, want %d", out.count, total)
	}
	logger.Info("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Float64("opsPerSecond", report.OpsPerSecond()))
	return report, nil
}

// cancelCheckInterval bounds how many loops a producer runs between
// context checks when the ring never fills.
const cancelCheckInterval = 1024

func produce(ctx context.Context, rb *disruptor.RingBuffer[event], n int64, batch int) error {
	for i, sent := 0, int64(0); sent < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		k := int(min(int64(batch), n-sent))
		hi, err := rb.NextContext(ctx, k)
		if err != nil {
			return err
		}
		lo := hi - int64(k) + 1
		now := time.Now().UnixNano()
		for seq := lo; seq <= hi; seq++ {
			ev := rb.Get(seq)
			ev.Value = seq
			ev.Published = now
		}
		rb.PublishRange(lo, hi)
		sent += int64(k)
	}
	return nil
}
