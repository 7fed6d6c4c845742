package audit

import (
	"net/http"
	"strings"
	"time"
)

// Middleware stamps the audit logger onto request contexts and records
// mutations, denials and sensitive reads after the handler runs.
type Middleware struct {
	logger         Logger
	logAllRequests bool
}

// NewMiddleware creates the audit middleware. With logAllRequests false,
// only mutations, errors and sensitive endpoints are recorded.
func NewMiddleware(logger Logger, logAllRequests bool) *Middleware {
	return &Middleware{logger: logger, logAllRequests: logAllRequests}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Handler wraps an HTTP handler with audit logging.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := WithLogger(r.Context(), m.logger)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		if !m.logAllRequests && !m.shouldLog(r, wrapped.statusCode) {
			return
		}

		status := EventStatusSuccess
		eventType := eventTypeForMethod(r.Method)
		switch {
		case wrapped.statusCode == http.StatusForbidden:
			status = EventStatusDenied
			eventType = EventTypeAuthzAccessDenied
		case wrapped.statusCode >= 400:
			status = EventStatusFailure
		}

		event := NewEvent(ctx, r, eventType, status)
		event.StatusCode = wrapped.statusCode
		event.Metadata["duration_ms"] = time.Since(start).Milliseconds()

		// An audit write failure must not fail the audited request.
		_ = m.logger.Log(ctx, event)
	})
}

func eventTypeForMethod(method string) EventType {
	switch method {
	case http.MethodPost:
		return EventTypeDataCreate
	case http.MethodDelete:
		return EventTypeDataDelete
	default:
		return EventTypeDataUpdate
	}
}

func (m *Middleware) shouldLog(r *http.Request, statusCode int) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	if statusCode >= 400 {
		return true
	}
	return isSensitiveEndpoint(r.URL.Path)
}

func isSensitiveEndpoint(path string) bool {
	for _, prefix := range []string{"/api/v1/auth", "/api/v1/authz", "/api/v1/audit", "/api/v1/users"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
