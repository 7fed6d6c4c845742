package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/glowdesk/glowdesk/pkg/observability"
)

// Service couples the metadata store with the blob backend so handlers see
// one upload/download/delete surface.
type Service struct {
	store   *Store
	blobs   BlobStore
	metrics *observability.Metrics
	urlTTL  time.Duration
}

// NewService wires the document service. metrics may be nil in tests.
func NewService(store *Store, blobs BlobStore, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		blobs:   blobs,
		metrics: metrics,
		urlTTL:  15 * time.Minute,
	}
}

// UploadInput carries everything needed to store a file.
type UploadInput struct {
	ClientID    string
	FileName    string
	ContentType string
	Size        int64
	UploadedBy  string
	Content     io.Reader
}

// Upload writes the bytes and records the metadata row. On a metadata
// failure the blob is removed again.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Document, error) {
	start := time.Now()

	owner := in.ClientID
	if owner == "" {
		owner = "shared"
	}
	key, err := s.blobs.Store(ctx, owner, in.FileName, in.Content, in.ContentType)
	s.observe("upload", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to store document content: %w", err)
	}

	doc := &Document{
		ClientID:    in.ClientID,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        in.Size,
		StorageKey:  key,
		Backend:     s.blobs.Backend(),
		UploadedBy:  in.UploadedBy,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("failed to record document (orphaned blob %s): %w", key, err)
		}
		return nil, err
	}
	return doc, nil
}

// Open returns the document metadata and a reader over its bytes.
func (s *Service) Open(ctx context.Context, id string) (*Document, io.ReadCloser, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	body, err := s.blobs.Retrieve(ctx, doc.StorageKey)
	s.observe("download", start, err)
	if err != nil {
		return nil, nil, err
	}
	return doc, body, nil
}

// URL returns the document metadata and a retrieval URL.
func (s *Service) URL(ctx context.Context, id string) (*Document, string, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	url, err := s.blobs.URL(ctx, doc.StorageKey, s.urlTTL)
	if err != nil {
		return nil, "", err
	}
	return doc, url, nil
}

// Get returns the document metadata alone.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.store.Get(ctx, id)
}

// ListByClient returns a client's documents.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*Document, error) {
	return s.store.ListByClient(ctx, clientID)
}

// List returns all documents.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Document, error) {
	return s.store.List(ctx, limit, offset)
}

// Delete removes the blob and then the metadata row.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.blobs.Delete(ctx, doc.StorageKey)
	s.observe("delete", start, err)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StorageOperationsTotal.WithLabelValues(operation, s.blobs.Backend(), status).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(operation, s.blobs.Backend()).Observe(time.Since(start).Seconds())
}
