package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Blob store backend names, stored on each document row so retrieval can
// route to the backend the file was written with.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// BlobStore abstracts where document bytes live.
type BlobStore interface {
	// Store writes the content and returns the storage key.
	Store(ctx context.Context, ownerID, filename string, content io.Reader, contentType string) (string, error)

	// Retrieve opens the content by storage key.
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content by storage key.
	Delete(ctx context.Context, key string) error

	// URL returns a retrieval URL: presigned for S3, a local path for the
	// filesystem backend.
	URL(ctx context.Context, key string, expiration time.Duration) (string, error)

	// Backend names the backend for the document row.
	Backend() string
}

// sanitizeFilename strips path separators and other characters that could
// escape the storage prefix.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		" ", "_",
	)
	cleaned := replacer.Replace(name)
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

// storageKey builds the per-owner, date-partitioned object key.
func storageKey(ownerID, id, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s_%s", ownerID, now.Year(), now.Month(), id, sanitizeFilename(filename))
}
