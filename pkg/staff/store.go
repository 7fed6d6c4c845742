package staff

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no staff member matches the lookup.
var ErrNotFound = errors.New("staff member not found")

// Store persists the staff directory.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a staff store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const memberColumns = `id, user_id, full_name, title, email, phone, specialties, hire_date, is_active, created_at, updated_at`

// Create adds a staff member. New members start active.
func (s *Store) Create(ctx context.Context, m *Member) error {
	now := s.now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.IsActive = true
	m.CreatedAt = now
	m.UpdatedAt = now

	specialties, err := json.Marshal(m.Specialties)
	if err != nil {
		return fmt.Errorf("failed to marshal specialties: %w", err)
	}

	query := `
		INSERT INTO staff_members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, nullString(m.UserID), m.FullName, m.Title, m.Email, m.Phone,
		string(specialties), m.HireDate, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

// Update saves an edited staff member.
func (s *Store) Update(ctx context.Context, m *Member) error {
	m.UpdatedAt = s.now().UTC()

	specialties, err := json.Marshal(m.Specialties)
	if err != nil {
		return fmt.Errorf("failed to marshal specialties: %w", err)
	}

	query := `
		UPDATE staff_members SET
			full_name = $1, title = $2, email = $3, phone = $4,
			specialties = $5, hire_date = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := s.db.ExecContext(ctx, query,
		m.FullName, m.Title, m.Email, m.Phone,
		string(specialties), m.HireDate, m.IsActive, m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
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

// Get retrieves a staff member by ID.
func (s *Store) Get(ctx context.Context, id string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff_members WHERE id = $1`
	return scanMember(s.db.QueryRowContext(ctx, query, id))
}

// GetByUser retrieves the staff profile linked to a login account.
func (s *Store) GetByUser(ctx context.Context, userID string) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff_members WHERE user_id = $1`
	return scanMember(s.db.QueryRowContext(ctx, query, userID))
}

// Deactivate marks a member inactive. Profiles are never deleted so task
// and onboarding history keeps resolving.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE staff_members SET is_active = $1, updated_at = $2 WHERE id = $3`,
		false, s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate staff member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivate: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns staff members, active first then by name. When activeOnly
// is set, inactive profiles are skipped.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM staff_members`
	var args []interface{}
	if activeOnly {
		args = append(args, true)
		query += ` WHERE is_active = $1`
	}
	query += ` ORDER BY is_active DESC, full_name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff members: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row scanner) (*Member, error) {
	var m Member
	var specialties string
	var userID, title, email, phone sql.NullString
	var hireDate sql.NullTime

	err := row.Scan(
		&m.ID, &userID, &m.FullName, &title, &email, &phone,
		&specialties, &hireDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff member: %w", err)
	}

	m.UserID = userID.String
	m.Title = title.String
	m.Email = email.String
	m.Phone = phone.String
	if specialties != "" {
		if err := json.Unmarshal([]byte(specialties), &m.Specialties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specialties: %w", err)
		}
	}
	if hireDate.Valid {
		v := hireDate.Time
		m.HireDate = &v
	}
	return &m, nil
}
