package clients

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no client matches the lookup.
var ErrNotFound = errors.New("client not found")

// Store persists the client roster.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a client store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const clientColumns = `id, company_name, contact_name, email, phone, address, status, notes, tags, created_by, created_at, updated_at`

// Create adds a client to the roster.
func (s *Store) Create(ctx context.Context, c *Client) error {
	now := s.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusProspect
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.CompanyName, c.ContactName, c.Email, c.Phone, c.Address,
		c.Status, c.Notes, string(tags), c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// Update saves an edited client.
func (s *Store) Update(ctx context.Context, c *Client) error {
	c.UpdatedAt = s.now().UTC()

	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		UPDATE clients SET
			company_name = $1, contact_name = $2, email = $3, phone = $4,
			address = $5, status = $6, notes = $7, tags = $8, updated_at = $9
		WHERE id = $10
	`
	res, err := s.db.ExecContext(ctx, query,
		c.CompanyName, c.ContactName, c.Email, c.Phone,
		c.Address, c.Status, c.Notes, string(tags), c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
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

// Get retrieves a client by ID.
func (s *Store) Get(ctx context.Context, id string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClient(s.db.QueryRowContext(ctx, query, id))
}

// Delete removes a client from the roster.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
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

// ListFilter narrows List results.
type ListFilter struct {
	Status string
	Search string
	Offset int
	Limit  int
}

// List returns clients matching the filter, newest first. Search matches
// company and contact names case-insensitively.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (LOWER(company_name) LIKE LOWER($%d) OR LOWER(contact_name) LIKE LOWER($%d))", len(args), len(args))
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
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

// Count returns the total number of clients.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row scanner) (*Client, error) {
	var c Client
	var tags string
	var contactName, email, phone, address, notes, createdBy sql.NullString

	err := row.Scan(
		&c.ID, &c.CompanyName, &contactName, &email, &phone, &address,
		&c.Status, &notes, &tags, &createdBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	c.ContactName = contactName.String
	c.Email = email.String
	c.Phone = phone.String
	c.Address = address.String
	c.Notes = notes.String
	c.CreatedBy = createdBy.String

	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &c, nil
}
