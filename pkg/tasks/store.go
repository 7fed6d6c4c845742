package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no task matches the lookup.
var ErrNotFound = errors.New("task not found")

// Store persists tasks.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a task store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const taskColumns = `id, title, description, client_id, assigned_to, status, priority, due_date, created_by, completed_at, created_at, updated_at`

// Create opens a task.
func (s *Store) Create(ctx context.Context, t *Task) error {
	now := s.now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, nullString(t.ClientID), nullString(t.AssignedTo),
		t.Status, t.Priority, t.DueDate, t.CreatedBy, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update saves an edited task.
func (s *Store) Update(ctx context.Context, t *Task) error {
	t.UpdatedAt = s.now().UTC()

	query := `
		UPDATE tasks SET
			title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, completed_at = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := s.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.CompletedAt, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return checkAffected(res, "update")
}

// Assign sets or clears the task's assignee.
func (s *Store) Assign(ctx context.Context, id, assignedTo string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET assigned_to = $1, updated_at = $2 WHERE id = $3`,
		nullString(assignedTo), s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to assign task: %w", err)
	}
	return checkAffected(res, "assign")
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(s.db.QueryRowContext(ctx, query, id))
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkAffected(res, "delete")
}

// ListFilter narrows List results.
type ListFilter struct {
	Status     string
	AssignedTo string
	ClientID   string
	Offset     int
	Limit      int
}

// List returns tasks matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
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
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return out, nil
}

// CountByStatus aggregates task counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		out[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return out, nil
}

func checkAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*Task, error) {
	var t Task
	var description, clientID, assignedTo, createdBy sql.NullString
	var dueDate, completedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Title, &description, &clientID, &assignedTo,
		&t.Status, &t.Priority, &dueDate, &createdBy, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.Description = description.String
	t.ClientID = clientID.String
	t.AssignedTo = assignedTo.String
	t.CreatedBy = createdBy.String
	if dueDate.Valid {
		v := dueDate.Time
		t.DueDate = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return &t, nil
}
