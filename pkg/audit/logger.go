package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/glowdesk/glowdesk/pkg/contextkeys"
)

// Logger records audit events.
type Logger interface {
	Log(ctx context.Context, event *Event) error
}

// Searcher reads stored events back. Implemented by DBLogger; the nop
// logger has nothing to search.
type Searcher interface {
	Search(ctx context.Context, filter SearchFilter) ([]*Event, error)
}

// NopLogger discards events. Used in tests and when auditing is disabled.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }

// WithLogger stores the audit logger in the context.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return contextkeys.WithAuditLogger(ctx, logger)
}

// FromContext retrieves the audit logger, falling back to a NopLogger so
// call sites never nil-check.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(contextkeys.AuditLoggerKey).(Logger); ok {
		return logger
	}
	return NopLogger{}
}

// NewEvent builds an event stamped with the request context: actor,
// request ID and, when a request is given, method/path/IP.
func NewEvent(ctx context.Context, r *http.Request, eventType EventType, status EventStatus) *Event {
	event := &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		UserID:    contextkeys.GetUserID(ctx),
		RequestID: contextkeys.GetRequestID(ctx),
		Metadata:  make(map[string]interface{}),
	}
	if r != nil {
		event.Method = r.Method
		event.Path = r.URL.Path
		event.IPAddress = clientIP(r)
	}
	return event
}

// Record logs through the context logger, ignoring logging failures so an
// audit outage never fails the request being audited.
func Record(ctx context.Context, event *Event) {
	_ = FromContext(ctx).Log(ctx, event)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
