package invoices

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const invoiceSchema = `
CREATE TABLE invoices (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	number TEXT NOT NULL,
	status TEXT NOT NULL,
	line_items TEXT,
	amount REAL NOT NULL DEFAULT 0,
	notes TEXT,
	issued_at TIMESTAMP,
	due_date TIMESTAMP,
	approved_by TEXT,
	approved_at TIMESTAMP,
	paid_at TIMESTAMP,
	created_by TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(invoiceSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return NewStore(db)
}

func draftInvoice() *Invoice {
	return &Invoice{
		ClientID: "client-1",
		LineItems: []LineItem{
			{Description: "Weekly deep clean", Quantity: 4, UnitPrice: 120},
			{Description: "Supply restock", Quantity: 1, UnitPrice: 80},
		},
	}
}

func TestStoreCreateComputesAmount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := draftInvoice()
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	if inv.Status != StatusDraft {
		t.Errorf("expected draft status, got %s", inv.Status)
	}
	if inv.Number == "" {
		t.Error("expected generated invoice number")
	}

	got, err := store.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("failed to get invoice: %v", err)
	}
	if got.Amount != 560 {
		t.Errorf("expected amount 560, got %v", got.Amount)
	}
	if len(got.LineItems) != 2 {
		t.Errorf("expected line items to round trip, got %+v", got.LineItems)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := draftInvoice()
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	// Approval requires pending; a draft cannot be approved directly.
	if err := inv.Approve("director-1", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := inv.Submit(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if err := inv.Approve("director-1", now); err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	if err := store.Update(ctx, inv); err != nil {
		t.Fatalf("failed to save approval: %v", err)
	}

	got, err := store.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("failed to get invoice: %v", err)
	}
	if got.Status != StatusApproved || got.ApprovedBy != "director-1" || got.ApprovedAt == nil {
		t.Errorf("approval did not persist: %+v", got)
	}

	if err := got.MarkPaid(now.Add(time.Hour)); err != nil {
		t.Fatalf("failed to mark paid: %v", err)
	}
	if err := got.Void(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected paid invoice to refuse void, got %v", err)
	}
}

func TestStoreDeleteOnlyDrafts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := draftInvoice()
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	if err := inv.Submit(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if err := store.Update(ctx, inv); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	if err := store.Delete(ctx, inv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected pending invoice to refuse deletion, got %v", err)
	}
}

func TestStoreRevenueByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := draftInvoice()
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}

	b := &Invoice{
		ClientID:  "client-2",
		LineItems: []LineItem{{Description: "Monthly service", Quantity: 1, UnitPrice: 400}},
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	if err := b.Submit(); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	revenue, err := store.RevenueByStatus(ctx)
	if err != nil {
		t.Fatalf("failed to aggregate revenue: %v", err)
	}
	if revenue[StatusDraft] != 560 {
		t.Errorf("expected draft revenue 560, got %v", revenue[StatusDraft])
	}
	if revenue[StatusPending] != 400 {
		t.Errorf("expected pending revenue 400, got %v", revenue[StatusPending])
	}
}

func TestCreateRequestValidation(t *testing.T) {
	if err := (&CreateRequest{ClientID: "client-1"}).Validate(); err == nil {
		t.Error("expected missing line items to fail validation")
	}
	bad := &CreateRequest{
		ClientID:  "client-1",
		LineItems: []LineItem{{Description: "x", Quantity: 0, UnitPrice: 10}},
	}
	if err := bad.Validate(); err == nil {
		t.Error("expected zero quantity to fail validation")
	}
	ok := &CreateRequest{
		ClientID:  "client-1",
		LineItems: []LineItem{{Description: "x", Quantity: 1, UnitPrice: 10}},
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
