// Package jobs provides background job processing functionality.
package jobs

import (
	"context"
	"sync"
	"time"

	"mediacatalog/logging"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobManager handles background job execution
type JobManager struct {
	job      Job
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.RWMutex
}

// NewJobManager creates a manager that runs job every interval.
func NewJobManager(job Job, interval time.Duration) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		job:      job,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the job manager background processing
func (jm *JobManager) Start() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.running {
		logging.Warn().Msg("Job manager is already running")
		return
	}
	if jm.interval <= 0 {
		logging.Info().Str("job", jm.job.Name()).Msg("Periodic job disabled")
		return
	}

	// A stopped manager can be started again with a fresh context.
	if jm.ctx.Err() != nil {
		jm.ctx, jm.cancel = context.WithCancel(context.Background())
	}

	jm.running = true
	logging.Info().Str("job", jm.job.Name()).Dur("interval", jm.interval).Msg("Starting job manager")

	jm.wg.Add(1)
	go jm.runPeriodic(jm.ctx)
}

// Stop stops the job manager and waits for the running job to return.
func (jm *JobManager) Stop() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if !jm.running {
		return
	}

	logging.Info().Msg("Stopping job manager")
	jm.cancel()
	jm.running = false

	jm.wg.Wait()
	logging.Info().Msg("Job manager stopped")
}

// IsRunning returns whether the job manager is currently running
func (jm *JobManager) IsRunning() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.running
}

// Trigger runs the job once right away, outside the schedule.
func (jm *JobManager) Trigger() error {
	jm.mu.RLock()
	ctx := jm.ctx
	jm.mu.RUnlock()
	return jm.job.Run(ctx)
}

func (jm *JobManager) runPeriodic(ctx context.Context) {
	defer jm.wg.Done()

	// Run immediately on startup
	jm.runOnce(ctx)

	ticker := time.NewTicker(jm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug().Str("job", jm.job.Name()).Msg("Periodic job stopped")
			return
		case <-ticker.C:
			jm.runOnce(ctx)
		}
	}
}

func (jm *JobManager) runOnce(ctx context.Context) {
	if err := jm.job.Run(ctx); err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Str("job", jm.job.Name()).Msg("Periodic job failed")
	}
}
