package invoices

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means no invoice matches the lookup.
var ErrNotFound = errors.New("invoice not found")

// Store persists invoices. Line items live in a JSONB column; the summed
// amount is materialized so revenue reports can aggregate without
// unmarshalling every invoice.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates an invoice store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const invoiceColumns = `id, client_id, number, status, line_items, amount, notes, issued_at, due_date, approved_by, approved_at, paid_at, created_by, created_at, updated_at`

// Create drafts an invoice. The invoice number defaults to a short form of
// the generated ID when not supplied.
func (s *Store) Create(ctx context.Context, i *Invoice) error {
	now := s.now().UTC()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Number == "" {
		i.Number = "INV-" + i.ID[:8]
	}
	if i.Status == "" {
		i.Status = StatusDraft
	}
	i.RecalculateAmount()
	i.CreatedAt = now
	i.UpdatedAt = now

	lineItems, err := json.Marshal(i.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		i.ID, i.ClientID, i.Number, i.Status, string(lineItems), i.Amount, i.Notes,
		i.IssuedAt, i.DueDate, nullString(i.ApprovedBy), i.ApprovedAt, i.PaidAt,
		i.CreatedBy, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Update saves an edited invoice, including status transitions.
func (s *Store) Update(ctx context.Context, i *Invoice) error {
	i.UpdatedAt = s.now().UTC()

	lineItems, err := json.Marshal(i.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		UPDATE invoices SET
			status = $1, line_items = $2, amount = $3, notes = $4,
			issued_at = $5, due_date = $6, approved_by = $7, approved_at = $8,
			paid_at = $9, updated_at = $10
		WHERE id = $11
	`
	res, err := s.db.ExecContext(ctx, query,
		i.Status, string(lineItems), i.Amount, i.Notes,
		i.IssuedAt, i.DueDate, nullString(i.ApprovedBy), i.ApprovedAt,
		i.PaidAt, i.UpdatedAt,
		i.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
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

// Get retrieves an invoice by ID.
func (s *Store) Get(ctx context.Context, id string) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return scanInvoice(s.db.QueryRowContext(ctx, query, id))
}

// Delete removes a draft invoice. Issued invoices are voided, not deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invoices WHERE id = $1 AND status = $2`, id, StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
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
	Status   string
	ClientID string
	Offset   int
	Limit    int
}

// List returns invoices matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
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
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return out, nil
}

// RevenueByStatus sums invoice amounts per status.
func (s *Store) RevenueByStatus(ctx context.Context) (map[string]float64, error) {
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row scanner) (*Invoice, error) {
	var i Invoice
	var lineItems string
	var notes, approvedBy, createdBy sql.NullString
	var issuedAt, dueDate, approvedAt, paidAt sql.NullTime

	err := row.Scan(
		&i.ID, &i.ClientID, &i.Number, &i.Status, &lineItems, &i.Amount, &notes,
		&issuedAt, &dueDate, &approvedBy, &approvedAt, &paidAt,
		&createdBy, &i.CreatedAt, &i.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	i.Notes = notes.String
	i.ApprovedBy = approvedBy.String
	i.CreatedBy = createdBy.String
	if lineItems != "" {
		if err := json.Unmarshal([]byte(lineItems), &i.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}
	if issuedAt.Valid {
		v := issuedAt.Time
		i.IssuedAt = &v
	}
	if dueDate.Valid {
		v := dueDate.Time
		i.DueDate = &v
	}
	if approvedAt.Valid {
		v := approvedAt.Time
		i.ApprovedAt = &v
	}
	if paidAt.Valid {
		v := paidAt.Time
		i.PaidAt = &v
	}
	return &i, nil
}
