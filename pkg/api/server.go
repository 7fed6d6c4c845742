package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/audit"
	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/clients"
	"github.com/glowdesk/glowdesk/pkg/documents"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/invoices"
	"github.com/glowdesk/glowdesk/pkg/observability"
	"github.com/glowdesk/glowdesk/pkg/onboarding"
	"github.com/glowdesk/glowdesk/pkg/reports"
	"github.com/glowdesk/glowdesk/pkg/staff"
	"github.com/glowdesk/glowdesk/pkg/tasks"
)

// Deps carries everything the API surface needs. All fields are required
// except RateLimit and AuditLogger; a nil AuditLogger falls back to the nop
// logger.
type Deps struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics

	Engine   *authz.Engine
	Sessions *auth.SessionManager
	Auth     *auth.Store
	Cache    *auth.PrincipalCache

	Clients    *clients.Store
	Onboarding *onboarding.Store
	Tasks      *tasks.Store
	Invoices   *invoices.Store
	Staff      *staff.Store
	Documents  *documents.Service
	Reports    *reports.Service

	AuditLogger audit.Logger
	AuditSearch audit.Searcher

	// AuthHandler and RateLimitHandler are prebuilt middleware; RateLimit is
	// optional.
	AuthHandler      func(http.Handler) http.Handler
	RateLimitHandler func(http.Handler) http.Handler

	MaxBodyBytes int64
}

// Server is the GlowDesk API server.
type Server struct {
	deps   Deps
	router *mux.Router
	guard  *authz.Middleware
	now    func() time.Time
}

// NewServer builds the router with all domain routes registered.
func NewServer(deps Deps) *Server {
	if deps.AuditLogger == nil {
		deps.AuditLogger = audit.NopLogger{}
	}
	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
		guard:  authz.NewMiddleware(deps.Engine),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's root handler with the shared middleware
// chain applied.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.deps.Logger),
		httputil.RecoveryMiddleware(s.deps.Logger),
	}
	if s.deps.Metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(s.deps.Metrics))
	}
	if s.deps.MaxBodyBytes > 0 {
		middlewares = append(middlewares, httputil.MaxBytesMiddleware(s.deps.MaxBodyBytes))
	}
	middlewares = append(middlewares, s.withAuditLogger)
	if s.deps.AuthHandler != nil {
		middlewares = append(middlewares, s.deps.AuthHandler)
	}
	if s.deps.RateLimitHandler != nil {
		middlewares = append(middlewares, s.deps.RateLimitHandler)
	}
	auditMW := audit.NewMiddleware(s.deps.AuditLogger, false)
	middlewares = append(middlewares, auditMW.Handler)

	return httputil.Chain(middlewares...)(s.router)
}

// withAuditLogger seeds the request context so handlers can emit audit
// events without holding a logger reference.
func (s *Server) withAuditLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithLogger(r.Context(), s.deps.AuditLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) registerRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	s.registerAuthRoutes(v1)
	s.registerAuthzRoutes(v1)
	s.registerClientRoutes(v1)
	s.registerOnboardingRoutes(v1)
	s.registerTaskRoutes(v1)
	s.registerInvoiceRoutes(v1)
	s.registerStaffRoutes(v1)
	s.registerDocumentRoutes(v1)
	s.registerReportRoutes(v1)
	s.registerAuditRoutes(v1)
}

// requireAdmin gates admin-only surfaces (user management, grant edits,
// audit search). There is no admin module in the registry; the role check
// is the gate.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := authz.PrincipalFromRequest(r)
		if p == nil {
			httputil.WriteUnauthorized(w, "Unauthorized")
			return
		}
		if p.Role != authz.RoleAdmin {
			httputil.WriteForbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handle registers a route with middleware applied outermost-first.
func handle(r *mux.Router, method, path string, h http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) {
	var handler http.Handler = h
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	r.Handle(path, handler).Methods(method)
}
