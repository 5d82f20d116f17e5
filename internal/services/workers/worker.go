// Package workers runs jobs on a fixed interval.
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// Worker runs a job immediately and then every interval. Runs never
// overlap: the next tick is only observed after the current run returns.
type Worker struct {
	id       string
	job      Job
	before   []Job
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
}

// NewWorker creates a new worker. interval <= 0 runs the job once.
func NewWorker(id string, interval time.Duration, job Job) *Worker {
	return &Worker{
		id:       id,
		job:      job,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Before registers a job run ahead of every main run. Its errors are logged
// and do not prevent the main run.
func (w *Worker) Before(job Job) {
	w.before = append(w.before, job)
}

// Run blocks until ctx is done or Stop is called. With no interval it runs
// the job once and returns its error.
func (w *Worker) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx).With().Str("worker", w.id).Logger()
	ctx = logger.WithContext(ctx)

	if w.interval <= 0 {
		return w.runOnce(ctx)
	}

	logger.Info().Dur("interval", w.interval).Msg("worker starting")
	defer logger.Info().Msg("worker stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.runOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("run failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-w.stopChan:
			return nil
		case <-ticker.C:
		}
	}
}

// Start runs the worker in a goroutine
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("worker %s already started", w.id)
	}
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		_ = w.Run(ctx)
	}()
	return nil
}

// Stop stops the worker gracefully, waiting for a run in progress
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
	w.stopChan = make(chan struct{})
	w.started = false
}

func (w *Worker) runOnce(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	for _, job := range w.before {
		if err := job(ctx); err != nil {
			logger.Warn().Err(err).Msg("pre-run job failed")
		}
	}

	start := time.Now()
	err := w.job(ctx)
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("run finished")
	return err
}
