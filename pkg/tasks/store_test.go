package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const taskSchema = `
CREATE TABLE tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	client_id TEXT,
	assigned_to TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	due_date TIMESTAMP,
	created_by TEXT,
	completed_at TIMESTAMP,
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

	if _, err := db.Exec(taskSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return NewStore(db)
}

func TestStoreCreateDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "Prepare proposal"}
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if task.Status != StatusOpen {
		t.Errorf("expected default status open, got %s", task.Status)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %s", task.Priority)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Title != "Prepare proposal" {
		t.Errorf("task did not round trip: %+v", got)
	}
}

func TestStoreAssign(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "Site visit"}
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	if err := store.Assign(ctx, task.ID, "staff-1"); err != nil {
		t.Fatalf("failed to assign task: %v", err)
	}
	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.AssignedTo != "staff-1" {
		t.Errorf("expected assignee staff-1, got %q", got.AssignedTo)
	}

	// Empty assignee unassigns.
	if err := store.Assign(ctx, task.ID, ""); err != nil {
		t.Fatalf("failed to unassign task: %v", err)
	}
	got, err = store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.AssignedTo != "" {
		t.Errorf("expected empty assignee, got %q", got.AssignedTo)
	}

	if err := store.Assign(ctx, "missing", "staff-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRequestApplyCompletion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := StatusDone

	task := &Task{Title: "Site visit", Status: StatusInProgress}
	(&UpdateRequest{Status: &done}).Apply(task, now)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("expected completedAt stamped at %v, got %v", now, task.CompletedAt)
	}

	// Reopening clears the stamp.
	open := StatusOpen
	(&UpdateRequest{Status: &open}).Apply(task, now.Add(time.Hour))
	if task.CompletedAt != nil {
		t.Errorf("expected completedAt cleared, got %v", task.CompletedAt)
	}
}

func TestStoreUpdatePersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "Site visit"}
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	task.Status = StatusDone
	completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task.CompletedAt = &completed
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("failed to update task: %v", err)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if got.Status != StatusDone || got.CompletedAt == nil {
		t.Errorf("update did not persist: %+v", got)
	}
}

func TestStoreListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fixtures := []*Task{
		{Title: "A", Status: StatusOpen, AssignedTo: "staff-1", ClientID: "client-1"},
		{Title: "B", Status: StatusDone, AssignedTo: "staff-1"},
		{Title: "C", Status: StatusOpen, AssignedTo: "staff-2", ClientID: "client-1"},
	}
	for _, task := range fixtures {
		if err := store.Create(ctx, task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}
	}

	got, err := store.List(ctx, ListFilter{Status: StatusOpen})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 open tasks, got %d", len(got))
	}

	got, err = store.List(ctx, ListFilter{AssignedTo: "staff-1", Status: StatusOpen})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 1 || got[0].Title != "A" {
		t.Errorf("expected task A, got %+v", got)
	}

	got, err = store.List(ctx, ListFilter{ClientID: "client-1"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 tasks for client-1, got %d", len(got))
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts[StatusOpen] != 2 || counts[StatusDone] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "A"}
	if err := store.Create(ctx, task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if err := store.Delete(ctx, task.ID); err != nil {
		t.Fatalf("failed to delete task: %v", err)
	}
	if _, err := store.Get(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
