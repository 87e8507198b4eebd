package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// SchedulerWorker is a background worker that periodically runs a recurring
// generation pass
type SchedulerWorker struct {
	scheduler *RecurringScheduler
	logger    zerolog.Logger
	interval  time.Duration
	now       func() time.Time
	passMu    sync.Mutex

	// mu guards the loop state. The channels belong to the current loop and are
	// replaced on every Start; stopCh is nil once a Stop has claimed it.
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SchedulerWorkerConfig holds configuration for the scheduler worker
type SchedulerWorkerConfig struct {
	Interval time.Duration // How often to look for due definitions
}

// DefaultSchedulerWorkerConfig returns the default worker settings
func DefaultSchedulerWorkerConfig() SchedulerWorkerConfig {
	return SchedulerWorkerConfig{
		Interval: 15 * time.Minute,
	}
}

// NewSchedulerWorker creates a new scheduler worker
func NewSchedulerWorker(scheduler *RecurringScheduler, logger zerolog.Logger, config SchedulerWorkerConfig) *SchedulerWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerWorkerConfig().Interval
	}

	return &SchedulerWorker{
		scheduler: scheduler,
		logger:    logger.With().Str("component", "scheduler_worker").Logger(),
		interval:  config.Interval,
		now:       time.Now,
	}
}

// Start begins the background loop. A pass runs immediately, then once per interval.
// A worker can be started again after Stop.
func (w *SchedulerWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info().Dur("interval", w.interval).Msg("Starting scheduler worker")

	go w.run(ctx, w.stopCh, w.doneCh)
}

// Stop signals the loop to exit and waits for the current pass to finish. It is
// safe to call concurrently and on a worker that was never started.
func (w *SchedulerWorker) Stop() {
	w.mu.Lock()
	stopCh, doneCh := w.stopCh, w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if doneCh == nil {
		return
	}
	if stopCh == nil {
		<-doneCh
		return
	}

	w.logger.Info().Msg("Stopping scheduler worker")
	close(stopCh)
	<-doneCh
	w.logger.Info().Msg("Scheduler worker stopped")
}

func (w *SchedulerWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single generation pass at the current time. Passes never
// overlap within one process.
func (w *SchedulerWorker) RunOnce(ctx context.Context) (*domain.GenerationResult, error) {
	w.passMu.Lock()
	defer w.passMu.Unlock()

	startTime := time.Now()
	result, err := w.scheduler.GenerateDue(ctx, w.now())
	if err != nil {
		w.logger.Error().Err(err).Msg("Recurring generation pass failed")
		return result, err
	}

	w.logger.Info().
		Int("generated", result.GeneratedCount).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failures)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed recurring generation pass")

	return result, nil
}

// IsRunning returns whether the worker loop is active
func (w *SchedulerWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
