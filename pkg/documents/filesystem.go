package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FilesystemStore keeps document bytes under a local root directory.
type FilesystemStore struct {
	root string
	now  func() time.Time
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemStore{root: root, now: time.Now}, nil
}

// Backend implements BlobStore.
func (fs *FilesystemStore) Backend() string { return BackendFilesystem }

// Store implements BlobStore.
func (fs *FilesystemStore) Store(ctx context.Context, ownerID, filename string, content io.Reader, contentType string) (string, error) {
	key := storageKey(ownerID, uuid.NewString(), filename, fs.now())
	fullPath := filepath.Join(fs.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return key, nil
}

// Retrieve implements BlobStore.
func (fs *FilesystemStore) Retrieve(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(fs.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete implements BlobStore.
func (fs *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(filepath.Join(fs.root, filepath.FromSlash(key))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL implements BlobStore. Local files have no signed URLs; the path is
// returned for the download handler to stream.
func (fs *FilesystemStore) URL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return filepath.Join(fs.root, filepath.FromSlash(key)), nil
}
