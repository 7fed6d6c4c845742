package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/glowdesk/glowdesk/pkg/observability"
)

// Job is a named unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with per-job logging and metrics.
type Scheduler struct {
	cron    *cron.Cron
	logger  *observability.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

// New creates a scheduler. Jobs get a per-run context bounded by timeout.
func New(logger *observability.Logger, metrics *observability.Metrics, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
	}
}

// AddJob registers a job under a cron spec.
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	return nil
}

// run executes one job invocation with logging and metrics.
func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		s.logger.WithField("job", name).WithError(err).Error("scheduled job failed")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": elapsed.String(),
		}).Debug("scheduled job finished")
	}

	if s.metrics != nil {
		s.metrics.SchedulerRunsTotal.WithLabelValues(name, status).Inc()
		s.metrics.SchedulerRunDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// RunNow executes a job once outside its schedule. Used at startup so
// gauges are populated before the first tick.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
