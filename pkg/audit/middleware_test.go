package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type captureLogger struct {
	mu     sync.Mutex
	events []*Event
}

func (c *captureLogger) Log(ctx context.Context, event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureLogger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func serve(t *testing.T, m *Middleware, method, path string, status int) {
	t.Helper()
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	req := httptest.NewRequest(method, path, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestMiddlewareLogsMutations(t *testing.T) {
	logger := &captureLogger{}
	m := NewMiddleware(logger, false)

	serve(t, m, http.MethodPost, "/api/v1/clients", http.StatusCreated)
	if logger.count() != 1 {
		t.Fatalf("expected 1 event, got %d", logger.count())
	}
	if logger.events[0].Method != http.MethodPost || logger.events[0].StatusCode != http.StatusCreated {
		t.Errorf("unexpected event: %+v", logger.events[0])
	}
}

func TestMiddlewareSkipsQuietReads(t *testing.T) {
	logger := &captureLogger{}
	m := NewMiddleware(logger, false)

	serve(t, m, http.MethodGet, "/api/v1/clients", http.StatusOK)
	if logger.count() != 0 {
		t.Errorf("expected no events for a successful read, got %d", logger.count())
	}
}

func TestMiddlewareLogsDenials(t *testing.T) {
	logger := &captureLogger{}
	m := NewMiddleware(logger, false)

	serve(t, m, http.MethodGet, "/api/v1/invoices", http.StatusForbidden)
	if logger.count() != 1 {
		t.Fatalf("expected 1 event, got %d", logger.count())
	}
	if logger.events[0].Status != EventStatusDenied || logger.events[0].EventType != EventTypeAuthzAccessDenied {
		t.Errorf("unexpected event: %+v", logger.events[0])
	}
}

func TestMiddlewareLogsSensitiveReads(t *testing.T) {
	logger := &captureLogger{}
	m := NewMiddleware(logger, false)

	serve(t, m, http.MethodGet, "/api/v1/authz/check", http.StatusOK)
	if logger.count() != 1 {
		t.Errorf("expected sensitive read to be logged, got %d events", logger.count())
	}
}

func TestMiddlewareLogAllRequests(t *testing.T) {
	logger := &captureLogger{}
	m := NewMiddleware(logger, true)

	serve(t, m, http.MethodGet, "/api/v1/clients", http.StatusOK)
	if logger.count() != 1 {
		t.Errorf("expected all requests to be logged, got %d events", logger.count())
	}
}

func TestFromContextFallsBackToNop(t *testing.T) {
	logger := FromContext(context.Background())
	if err := logger.Log(context.Background(), &Event{}); err != nil {
		t.Errorf("expected nop logger, got error %v", err)
	}
}
