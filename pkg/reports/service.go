package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glowdesk/glowdesk/pkg/onboarding"
)

// Summary is the dashboard aggregate view.
type Summary struct {
	TotalClients        int                `json:"totalClients"`
	ActiveClients       int                `json:"activeClients"`
	OnboardingByStatus  map[string]int     `json:"onboardingByStatus"`
	UrgencyDistribution map[string]int     `json:"urgencyDistribution"`
	TasksByStatus       map[string]int     `json:"tasksByStatus"`
	RevenueByStatus     map[string]float64 `json:"revenueByStatus"`
	GeneratedAt         time.Time          `json:"generatedAt"`
}

// Service runs the aggregation queries directly so the dashboard endpoint
// costs a handful of GROUP BYs rather than loading every row.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a reports service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Dashboard builds the full dashboard summary.
func (s *Service) Dashboard(ctx context.Context) (*Summary, error) {
	now := s.now().UTC()
	summary := &Summary{GeneratedAt: now}

	var err error
	if summary.TotalClients, summary.ActiveClients, err = s.clientCounts(ctx); err != nil {
		return nil, err
	}
	if summary.OnboardingByStatus, err = s.groupCounts(ctx,
		`SELECT status, COUNT(*) FROM onboarding_records GROUP BY status`, "onboarding"); err != nil {
		return nil, err
	}
	if summary.UrgencyDistribution, err = s.urgencyDistribution(ctx, now); err != nil {
		return nil, err
	}
	if summary.TasksByStatus, err = s.groupCounts(ctx,
		`SELECT status, COUNT(*) FROM tasks GROUP BY status`, "tasks"); err != nil {
		return nil, err
	}
	if summary.RevenueByStatus, err = s.revenueByStatus(ctx); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) clientCounts(ctx context.Context) (total, active int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN status = 'active' THEN 1 END) FROM clients`,
	).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return total, active, nil
}

func (s *Service) groupCounts(ctx context.Context, query, what string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", what, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s counts: %w", what, err)
		}
		out[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s counts: %w", what, err)
	}
	return out, nil
}

// urgencyDistribution buckets open onboarding records by deadline pressure.
// The bucketing lives in the onboarding package; this query only fetches
// the two fields it needs.
func (s *Service) urgencyDistribution(ctx context.Context, now time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, estimated_completion_date FROM onboarding_records WHERE status NOT IN ($1, $2)`,
		string(onboarding.StatusCompleted), string(onboarding.StatusCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load open records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var estimated sql.NullTime
		if err := rows.Scan(&status, &estimated); err != nil {
			return nil, fmt.Errorf("failed to scan open record: %w", err)
		}

		rec := onboarding.Record{Status: onboarding.Status(status)}
		if estimated.Valid {
			v := estimated.Time
			rec.EstimatedCompletionDate = &v
		}
		urgency := onboarding.UrgencyFor(onboarding.DaysRemaining(&rec, now))
		out[string(urgency)]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open records: %w", err)
	}
	return out, nil
}

func (s *Service) revenueByStatus(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, SUM(amount) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var status string
		var total float64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		out[status] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revenue: %w", err)
	}
	return out, nil
}
