package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no onboarding record matches the lookup.
var ErrNotFound = errors.New("onboarding record not found")

// Store persists onboarding records. Stage blobs, notes and tags live in
// JSONB columns; the derived progress/status are materialized alongside so
// lists and reports can filter without rescoring.
//
// Updates are whole-record, last-write-wins: two concurrent saves of the
// same record race and the later one silently overwrites the earlier one's
// recomputed progress. There is no version token. This mirrors the
// dashboard's read-modify-write flow and is accepted; callers needing
// stronger guarantees must serialize externally.
type Store struct {
	db               *sql.DB
	completionWindow time.Duration
	now              func() time.Time
}

// NewStore creates an onboarding store. completionWindow is the default
// deadline applied to new records without an expected completion date.
func NewStore(db *sql.DB, completionWindow time.Duration) *Store {
	return &Store{
		db:               db,
		completionWindow: completionWindow,
		now:              time.Now,
	}
}

// ListFilter narrows List results.
type ListFilter struct {
	Status     Status
	AssignedTo string
	ClientID   string
	Offset     int
	Limit      int
}

const recordColumns = `id, client_id, business_info, pre_onboarding, needs_assessment, service_proposal, follow_up, feedback,
	progress, status, estimated_completion_date, actual_completion_date, completed_at,
	assigned_to, created_by, last_updated_by, notes, tags, created_at, updated_at`

// Create persists a new record, applying creation defaults and the
// progress recompute first.
func (s *Store) Create(ctx context.Context, r *Record) error {
	now := s.now().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	ApplyCreationDefaults(r, now, s.completionWindow)
	Finalize(r, now)

	blobs, err := marshalBlobs(r)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO onboarding_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.ClientID,
		blobs.businessInfo, blobs.preOnboarding, blobs.needsAssessment, blobs.serviceProposal, blobs.followUp, blobs.feedback,
		r.Progress, string(r.Status), r.EstimatedCompletionDate, r.ActualCompletionDate, r.CompletedAt,
		r.AssignedTo, r.CreatedBy, r.LastUpdatedBy, blobs.notes, blobs.tags, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create onboarding record: %w", err)
	}
	return nil
}

// Update persists the record after recomputing progress and status.
func (s *Store) Update(ctx context.Context, r *Record) error {
	Finalize(r, s.now().UTC())

	blobs, err := marshalBlobs(r)
	if err != nil {
		return err
	}

	query := `
		UPDATE onboarding_records SET
			business_info = $1, pre_onboarding = $2, needs_assessment = $3,
			service_proposal = $4, follow_up = $5, feedback = $6,
			progress = $7, status = $8,
			estimated_completion_date = $9, actual_completion_date = $10, completed_at = $11,
			assigned_to = $12, last_updated_by = $13, notes = $14, tags = $15, updated_at = $16
		WHERE id = $17
	`
	res, err := s.db.ExecContext(ctx, query,
		blobs.businessInfo, blobs.preOnboarding, blobs.needsAssessment,
		blobs.serviceProposal, blobs.followUp, blobs.feedback,
		r.Progress, string(r.Status),
		r.EstimatedCompletionDate, r.ActualCompletionDate, r.CompletedAt,
		r.AssignedTo, r.LastUpdatedBy, blobs.notes, blobs.tags, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update onboarding record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM onboarding_records WHERE id = $1`
	return s.scanRecord(s.db.QueryRowContext(ctx, query, id))
}

// GetByClient retrieves the record for a client.
func (s *Store) GetByClient(ctx context.Context, clientID string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM onboarding_records WHERE client_id = $1`
	return s.scanRecord(s.db.QueryRowContext(ctx, query, clientID))
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM onboarding_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete onboarding record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM onboarding_records WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding records: %w", err)
	}
	defer rows.Close()
	return s.collectRecords(rows)
}

// ListActive returns every record that is neither completed nor cancelled.
// Feeds the smart-reminder endpoint and the overdue sweep.
func (s *Store) ListActive(ctx context.Context) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM onboarding_records WHERE status NOT IN ($1, $2)`
	rows, err := s.db.QueryContext(ctx, query, string(StatusCompleted), string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("failed to list active records: %w", err)
	}
	defer rows.Close()
	return s.collectRecords(rows)
}

// SweepOverdue flips in-progress records whose deadline has passed to
// overdue. Run periodically so records drifting past their deadline
// between saves still surface.
func (s *Store) SweepOverdue(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE onboarding_records SET status = $1, updated_at = $2
		 WHERE status = $3 AND estimated_completion_date IS NOT NULL AND estimated_completion_date < $2`,
		string(StatusOverdue), now, string(StatusInProgress),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep overdue records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept records: %w", err)
	}
	return affected, nil
}

// CountByStatus aggregates record counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM onboarding_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		out[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type recordBlobs struct {
	businessInfo, preOnboarding, needsAssessment, serviceProposal, followUp, feedback string
	notes, tags                                                                      string
}

func marshalBlobs(r *Record) (*recordBlobs, error) {
	b := &recordBlobs{}
	for _, field := range []struct {
		dst *string
		src interface{}
	}{
		{&b.businessInfo, r.BusinessInfo},
		{&b.preOnboarding, r.PreOnboarding},
		{&b.needsAssessment, r.NeedsAssessment},
		{&b.serviceProposal, r.ServiceProposal},
		{&b.followUp, r.FollowUp},
		{&b.feedback, r.Feedback},
		{&b.notes, r.Notes},
		{&b.tags, r.Tags},
	} {
		data, err := json.Marshal(field.src)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stage blob: %w", err)
		}
		*field.dst = string(data)
	}
	return b, nil
}

func (s *Store) scanRecord(row scanner) (*Record, error) {
	var r Record
	var businessInfo, preOnboarding, needsAssessment, serviceProposal, followUp, feedback string
	var notes, tags string
	var status string
	var estimated, actual, completedAt sql.NullTime
	var assignedTo, createdBy, lastUpdatedBy sql.NullString

	err := row.Scan(
		&r.ID, &r.ClientID,
		&businessInfo, &preOnboarding, &needsAssessment, &serviceProposal, &followUp, &feedback,
		&r.Progress, &status, &estimated, &actual, &completedAt,
		&assignedTo, &createdBy, &lastUpdatedBy, &notes, &tags, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan onboarding record: %w", err)
	}

	r.Status = Status(status)
	for _, field := range []struct {
		data string
		dst  interface{}
	}{
		{businessInfo, &r.BusinessInfo},
		{preOnboarding, &r.PreOnboarding},
		{needsAssessment, &r.NeedsAssessment},
		{serviceProposal, &r.ServiceProposal},
		{followUp, &r.FollowUp},
		{feedback, &r.Feedback},
		{notes, &r.Notes},
		{tags, &r.Tags},
	} {
		if field.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(field.data), field.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage blob: %w", err)
		}
	}

	if estimated.Valid {
		v := estimated.Time
		r.EstimatedCompletionDate = &v
	}
	if actual.Valid {
		v := actual.Time
		r.ActualCompletionDate = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		r.CompletedAt = &v
	}
	if assignedTo.Valid {
		r.AssignedTo = assignedTo.String
	}
	if createdBy.Valid {
		r.CreatedBy = createdBy.String
	}
	if lastUpdatedBy.Valid {
		r.LastUpdatedBy = lastUpdatedBy.String
	}

	return &r, nil
}

func (s *Store) collectRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return out, nil
}
