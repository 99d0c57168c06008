// Package pipeline runs probe tasks through a fixed pool of workers and
// serializes successful outcomes into a single result writer.
//
// Shutdown follows a strict three-phase drain protocol:
//
//  1. every task is enqueued, then the task channel is closed — the
//     closed channel is the per-worker "no more work" sentinel;
//  2. the worker WaitGroup is waited on, which confirms every task was
//     both retrieved and fully processed, so every real outcome is
//     already on the result channel;
//  3. only then is the result channel closed — the sink's sentinel —
//     and the sink waited on.
//
// Closing the result channel any earlier could drop a trailing outcome
// from a task that was dequeued but still mid-probe; closing the task
// channel any later would leave idle workers blocked forever.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/proxyvet/proxyvet/pkg/defaults"
	"github.com/proxyvet/proxyvet/pkg/output"
	"github.com/proxyvet/proxyvet/pkg/probe"
)

// Checker executes one probe task. Satisfied by *probe.Prober; tests
// substitute fakes.
type Checker interface {
	Check(ctx context.Context, task probe.Task) (probe.Outcome, bool)
}

// Config holds pipeline settings.
type Config struct {
	// Workers is the probe worker pool size. Zero means defaults.Workers.
	Workers int

	// RateLimit caps probes per second across the pool. Zero disables it.
	RateLimit int
}

// Stats summarizes one pipeline run.
type Stats struct {
	Tasks     int
	Succeeded int
	Failed    int
	Written   int
	Duration  time.Duration
}

// Pipeline coordinates the worker pool and the result sink.
type Pipeline struct {
	workers int
	limiter *rate.Limiter
	checker Checker
	writer  output.ResultWriter
	logger  *slog.Logger
}

// New creates a Pipeline. The writer is exclusively owned by the pipeline
// for the duration of Run; nothing else may write to it.
func New(cfg Config, checker Checker, writer output.ResultWriter, logger *slog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	return &Pipeline{
		workers: cfg.Workers,
		limiter: limiter,
		checker: checker,
		writer:  writer,
		logger:  logger,
	}
}

// Run executes every task exactly once and writes each successful outcome
// exactly once. Per-task failures never abort the batch; the only error
// Run returns is a result-writer failure, which is fatal because silently
// truncated output is worse than no output.
func (p *Pipeline) Run(ctx context.Context, tasks []probe.Task) (Stats, error) {
	start := time.Now()
	stats := Stats{Tasks: len(tasks)}

	taskCh := make(chan probe.Task, p.workers*2)
	resultCh := make(chan probe.Outcome, p.workers*2)

	var succeeded, failed int64

	// Worker pool: each worker drains the task channel to exhaustion and
	// exits when it observes the close.
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				if p.limiter != nil {
					if err := p.limiter.Wait(ctx); err != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
				}

				p.logger.Info("testing proxy",
					slog.String("proxy", task.Proxy),
					slog.String("type", string(task.Variant)))

				outcome, ok := p.checker.Check(ctx, task)
				if !ok {
					atomic.AddInt64(&failed, 1)
					p.logger.Info("proxy failed",
						slog.String("proxy", task.Proxy),
						slog.String("type", string(task.Variant)))
					continue
				}

				atomic.AddInt64(&succeeded, 1)
				p.logger.Info("proxy ok",
					slog.String("proxy", task.Proxy),
					slog.String("type", string(task.Variant)),
					slog.Duration("latency", outcome.Latency))
				resultCh <- outcome
			}
		}()
	}

	// Result sink: the single consumer of the result channel. The first
	// write error is recorded and remaining outcomes are drained unwritten
	// so the workers never block on a full channel.
	var sinkWg sync.WaitGroup
	var written int64
	var writeErr error
	sinkWg.Add(1)
	go func() {
		defer sinkWg.Done()
		for outcome := range resultCh {
			if writeErr != nil {
				continue
			}
			if err := p.writer.Write(&outcome); err != nil {
				writeErr = err
				p.logger.Error("result write failed", slog.String("error", err.Error()))
				continue
			}
			atomic.AddInt64(&written, 1)
		}
	}()

	// Fill the queue, then broadcast the worker sentinel by closing it.
sendLoop:
	for _, task := range tasks {
		select {
		case taskCh <- task:
		case <-ctx.Done():
			break sendLoop
		}
	}
	close(taskCh)

	// Drain confirmation: all tasks retrieved AND fully processed.
	wg.Wait()
	// Sink sentinel, strictly after every real outcome is enqueued.
	close(resultCh)
	sinkWg.Wait()

	stats.Succeeded = int(atomic.LoadInt64(&succeeded))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Written = int(atomic.LoadInt64(&written))
	stats.Duration = time.Since(start)
	return stats, writeErr
}

// BuildTasks expands surviving candidates into one task per candidate per
// requested protocol variant. Variants of the same address are independent
// tasks: one failing never short-circuits the other.
func BuildTasks(addresses []string, variants []probe.Variant, targetURL string, timeout time.Duration, textPresent, textAbsent string) []probe.Task {
	tasks := make([]probe.Task, 0, len(addresses)*len(variants))
	for _, addr := range addresses {
		for _, v := range variants {
			tasks = append(tasks, probe.Task{
				TargetURL:   targetURL,
				Proxy:       addr,
				Variant:     v,
				Timeout:     timeout,
				TextPresent: textPresent,
				TextAbsent:  textAbsent,
			})
		}
	}
	return tasks
}
