package scheduler

import (
	"context"
	"database/sql"

	"github.com/glowdesk/glowdesk/pkg/observability"
	"github.com/glowdesk/glowdesk/pkg/onboarding"
)

// Job names, used as metric labels.
const (
	JobOverdueSweep = "overdue_sweep"
	JobGaugeRefresh = "gauge_refresh"
)

// OverdueSweeper flips stale records to overdue.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int64, error)
}

// NewOverdueSweepJob builds the hourly sweep over onboarding records whose
// deadline passed between saves.
func NewOverdueSweepJob(store OverdueSweeper, logger *observability.Logger) Job {
	return func(ctx context.Context) error {
		swept, err := store.SweepOverdue(ctx)
		if err != nil {
			return err
		}
		if swept > 0 {
			logger.WithField("count", swept).Info("marked onboarding records overdue")
		}
		return nil
	}
}

// GaugeSource provides the counts the refresh job publishes.
type GaugeSource interface {
	CountByStatus(ctx context.Context) (map[onboarding.Status]int, error)
}

// ClientCounter reports the client roster size.
type ClientCounter interface {
	Count(ctx context.Context) (int, error)
}

// TokenCounter reports the number of usable API tokens.
type TokenCounter interface {
	CountActiveTokens(ctx context.Context) (int, error)
}

// NewGaugeRefreshJob builds the periodic refresh of the business and
// database gauges exported on /metrics.
func NewGaugeRefreshJob(
	records GaugeSource,
	clients ClientCounter,
	tokens TokenCounter,
	db *sql.DB,
	metrics *observability.Metrics,
) Job {
	return func(ctx context.Context) error {
		counts, err := records.CountByStatus(ctx)
		if err != nil {
			return err
		}
		for _, status := range []onboarding.Status{
			onboarding.StatusPending,
			onboarding.StatusInProgress,
			onboarding.StatusCompleted,
			onboarding.StatusOverdue,
			onboarding.StatusCancelled,
		} {
			metrics.OnboardingRecordsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
		}
		metrics.OnboardingOverdueTotal.Set(float64(counts[onboarding.StatusOverdue]))

		clientCount, err := clients.Count(ctx)
		if err != nil {
			return err
		}
		metrics.ClientsTotal.Set(float64(clientCount))

		tokenCount, err := tokens.CountActiveTokens(ctx)
		if err != nil {
			return err
		}
		metrics.APITokensActive.Set(float64(tokenCount))

		if db != nil {
			stats := db.Stats()
			metrics.ObserveDBStats(stats.InUse, stats.Idle)
		}
		return nil
	}
}
