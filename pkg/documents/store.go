package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no document matches the lookup.
var ErrNotFound = errors.New("document not found")

// Document is the metadata row for an uploaded file. ClientID scopes
// ownership checks for client principals.
type Document struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"`
	Backend     string    `json:"-"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists document metadata.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a document metadata store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const documentColumns = `id, client_id, file_name, content_type, size, storage_key, backend, uploaded_by, created_at`

// Create records an uploaded document.
func (s *Store) Create(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = s.now().UTC()

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, nullString(d.ClientID), d.FileName, d.ContentType, d.Size,
		d.StorageKey, d.Backend, nullString(d.UploadedBy), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// Get retrieves a document's metadata by ID.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// Delete removes the metadata row. Callers delete the blob first so a
// failed blob delete does not orphan the row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
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

// ListByClient returns a client's documents, newest first.
func (s *Store) ListByClient(ctx context.Context, clientID string) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE client_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// List returns all documents, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*Document, error) {
	var d Document
	var clientID, uploadedBy sql.NullString

	err := row.Scan(
		&d.ID, &clientID, &d.FileName, &d.ContentType, &d.Size,
		&d.StorageKey, &d.Backend, &uploadedBy, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	d.ClientID = clientID.String
	d.UploadedBy = uploadedBy.String
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]*Document, error) {
	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return out, nil
}
