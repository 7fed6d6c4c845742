package invoices

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Invoice statuses. draft -> pending -> approved -> paid, with void as a
// terminal escape hatch from any non-paid state.
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusPaid     = "paid"
	StatusVoid     = "void"
)

// ErrInvalidTransition means the requested status change is not allowed
// from the invoice's current status.
var ErrInvalidTransition = errors.New("invalid invoice status transition")

// LineItem is a single billed service on an invoice.
type LineItem struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    int     `json:"quantity" validate:"min=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"min=0"`
}

// Total returns the line's extended amount.
func (l LineItem) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// Invoice is a bill issued to a client.
type Invoice struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	Number     string     `json:"number"`
	Status     string     `json:"status"`
	LineItems  []LineItem `json:"lineItems"`
	Amount     float64    `json:"amount"`
	Notes      string     `json:"notes,omitempty"`
	IssuedAt   *time.Time `json:"issuedAt,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
	CreatedBy  string     `json:"createdBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RecalculateAmount sums the line items into the stored total.
func (i *Invoice) RecalculateAmount() {
	total := 0.0
	for _, l := range i.LineItems {
		total += l.Total()
	}
	i.Amount = total
}

// Approve moves a pending invoice to approved, recording who and when.
func (i *Invoice) Approve(approverID string, now time.Time) error {
	if i.Status != StatusPending {
		return ErrInvalidTransition
	}
	i.Status = StatusApproved
	i.ApprovedBy = approverID
	i.ApprovedAt = &now
	return nil
}

// MarkPaid moves an approved invoice to paid.
func (i *Invoice) MarkPaid(now time.Time) error {
	if i.Status != StatusApproved {
		return ErrInvalidTransition
	}
	i.Status = StatusPaid
	i.PaidAt = &now
	return nil
}

// Void cancels any invoice that has not been paid.
func (i *Invoice) Void() error {
	if i.Status == StatusPaid {
		return ErrInvalidTransition
	}
	i.Status = StatusVoid
	return nil
}

// Submit moves a draft to pending so it can be approved.
func (i *Invoice) Submit() error {
	if i.Status != StatusDraft {
		return ErrInvalidTransition
	}
	i.Status = StatusPending
	return nil
}

var validate = validator.New()

// CreateRequest is the payload for drafting an invoice.
type CreateRequest struct {
	ClientID  string     `json:"clientId" validate:"required"`
	Number    string     `json:"number" validate:"max=40"`
	LineItems []LineItem `json:"lineItems" validate:"required,min=1,dive"`
	Notes     string     `json:"notes" validate:"max=5000"`
	DueDate   *time.Time `json:"dueDate"`
}

// Validate checks the payload against its field constraints.
func (r *CreateRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateRequest edits a draft invoice. Nil fields are left unchanged.
type UpdateRequest struct {
	LineItems *[]LineItem `json:"lineItems" validate:"omitempty,min=1,dive"`
	Notes     *string     `json:"notes" validate:"omitempty,max=5000"`
	DueDate   *time.Time  `json:"dueDate"`
}

// Validate checks the payload against its field constraints.
func (r *UpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Apply copies the set fields onto the invoice and recalculates the total.
func (r *UpdateRequest) Apply(i *Invoice) {
	if r.LineItems != nil {
		i.LineItems = *r.LineItems
	}
	if r.Notes != nil {
		i.Notes = *r.Notes
	}
	if r.DueDate != nil {
		i.DueDate = r.DueDate
	}
	i.RecalculateAmount()
}
