package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/glowdesk/glowdesk/pkg/observability"
	"github.com/glowdesk/glowdesk/pkg/onboarding"
)

func newTestScheduler(t *testing.T) (*Scheduler, *observability.Metrics) {
	t.Helper()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return New(logger, metrics, time.Minute), metrics
}

func TestRunRecordsMetrics(t *testing.T) {
	sched, metrics := newTestScheduler(t)

	ran := false
	sched.RunNow("sweep", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if !ran {
		t.Fatal("expected job to run")
	}
	if got := testutil.ToFloat64(metrics.SchedulerRunsTotal.WithLabelValues("sweep", "success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}

	sched.RunNow("sweep", func(ctx context.Context) error {
		return errors.New("boom")
	})
	if got := testutil.ToFloat64(metrics.SchedulerRunsTotal.WithLabelValues("sweep", "error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	sched, _ := newTestScheduler(t)

	if err := sched.AddJob("bad", "not a cron spec", func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected invalid spec to be rejected")
	}
	if err := sched.AddJob("hourly", "0 * * * *", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("unexpected error for valid spec: %v", err)
	}
}

func TestStopWaitsForJobs(t *testing.T) {
	sched, _ := newTestScheduler(t)
	sched.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sched.Stop(ctx); err != nil {
		t.Errorf("unexpected stop error: %v", err)
	}
}

type stubSweeper struct {
	swept int64
	err   error
}

func (s stubSweeper) SweepOverdue(ctx context.Context) (int64, error) { return s.swept, s.err }

func TestOverdueSweepJob(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	job := NewOverdueSweepJob(stubSweeper{swept: 2}, logger)
	if err := job(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	job = NewOverdueSweepJob(stubSweeper{err: errors.New("db down")}, logger)
	if err := job(context.Background()); err == nil {
		t.Error("expected error to propagate")
	}
}

type stubGaugeSource map[onboarding.Status]int

func (s stubGaugeSource) CountByStatus(ctx context.Context) (map[onboarding.Status]int, error) {
	return s, nil
}

type stubClientCounter int

func (c stubClientCounter) Count(ctx context.Context) (int, error) { return int(c), nil }

type stubTokenCounter int

func (c stubTokenCounter) CountActiveTokens(ctx context.Context) (int, error) { return int(c), nil }

func TestGaugeRefreshJob(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	source := stubGaugeSource{
		onboarding.StatusInProgress: 4,
		onboarding.StatusOverdue:    2,
	}
	job := NewGaugeRefreshJob(source, stubClientCounter(9), stubTokenCounter(5), nil, metrics)
	if err := job(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(metrics.OnboardingRecordsByStatus.WithLabelValues("in-progress")); got != 4 {
		t.Errorf("in-progress gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(metrics.OnboardingRecordsByStatus.WithLabelValues("pending")); got != 0 {
		t.Errorf("pending gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.OnboardingOverdueTotal); got != 2 {
		t.Errorf("overdue gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ClientsTotal); got != 9 {
		t.Errorf("clients gauge = %v, want 9", got)
	}
	if got := testutil.ToFloat64(metrics.APITokensActive); got != 5 {
		t.Errorf("tokens gauge = %v, want 5", got)
	}
}
