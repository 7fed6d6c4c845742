package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const documentSchema = `
CREATE TABLE documents (
	id TEXT PRIMARY KEY,
	client_id TEXT,
	file_name TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size INTEGER NOT NULL,
	storage_key TEXT NOT NULL,
	backend TEXT NOT NULL,
	uploaded_by TEXT,
	created_at TIMESTAMP NOT NULL
);
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(documentSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	blobs, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}
	return NewService(NewStore(db), blobs, nil)
}

func TestServiceUploadAndOpen(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadInput{
		ClientID:    "client-1",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		Size:        9,
		UploadedBy:  "user-1",
		Content:     bytes.NewBufferString("pdf bytes"),
	})
	if err != nil {
		t.Fatalf("failed to upload: %v", err)
	}
	if doc.ID == "" || doc.StorageKey == "" {
		t.Fatalf("expected populated document, got %+v", doc)
	}
	if doc.Backend != BackendFilesystem {
		t.Errorf("expected filesystem backend, got %s", doc.Backend)
	}

	got, body, err := svc.Open(ctx, doc.ID)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer body.Close()
	if got.FileName != "contract.pdf" {
		t.Errorf("metadata did not round trip: %+v", got)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "pdf bytes" {
		t.Errorf("content did not round trip: %q", content)
	}
}

func TestServiceListByClient(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, clientID := range []string{"client-1", "client-1", "client-2"} {
		_, err := svc.Upload(ctx, UploadInput{
			ClientID:    clientID,
			FileName:    "photo.jpg",
			ContentType: "image/jpeg",
			Content:     bytes.NewBufferString("jpg"),
		})
		if err != nil {
			t.Fatalf("failed to upload: %v", err)
		}
	}

	docs, err := svc.ListByClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents for client-1, got %d", len(docs))
	}
}

func TestServiceDeleteRemovesBlobAndRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadInput{
		ClientID:    "client-1",
		FileName:    "contract.pdf",
		ContentType: "application/pdf",
		Content:     bytes.NewBufferString("pdf bytes"),
	})
	if err != nil {
		t.Fatalf("failed to upload: %v", err)
	}

	if err := svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := svc.Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.blobs.Retrieve(ctx, doc.StorageKey); err == nil {
		t.Error("expected blob to be gone")
	}

	if err := svc.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
