package documents

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
)

func TestFilesystemStoreRoundTrip(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	key, err := store.Store(ctx, "client-1", "contract.pdf", bytes.NewBufferString("pdf bytes"), "application/pdf")
	if err != nil {
		t.Fatalf("failed to store: %v", err)
	}
	if !strings.HasPrefix(key, "client-1/") {
		t.Errorf("expected key under owner prefix, got %s", key)
	}

	body, err := store.Retrieve(ctx, key)
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	defer body.Close()
	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "pdf bytes" {
		t.Errorf("content did not round trip: %q", content)
	}

	path, err := store.URL(ctx, key, 0)
	if err != nil {
		t.Fatalf("failed to get URL: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected URL to be a readable path: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := store.Retrieve(ctx, key); err == nil {
		t.Error("expected retrieve after delete to fail")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"contract.pdf", "contract.pdf"},
		{"../../etc/passwd", "____etc_passwd"},
		{"my photo.jpg", "my_photo.jpg"},
		{"a\\b", "a_b"},
		{"", "file"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
