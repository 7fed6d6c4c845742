package authz

import (
	"fmt"
	"net/http"

	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

// PrincipalFromRequest extracts the authenticated principal placed in the
// request context by the auth middleware. Returns nil when unauthenticated.
func PrincipalFromRequest(r *http.Request) *Principal {
	v := r.Context().Value(contextkeys.PrincipalKey)
	if v == nil {
		return nil
	}
	p, ok := v.(*Principal)
	if !ok {
		return nil
	}
	return p
}

// Middleware gates routes with the engine's decisions.
type Middleware struct {
	engine *Engine
}

// NewMiddleware creates authorization middleware backed by the shared engine.
func NewMiddleware(engine *Engine) *Middleware {
	return &Middleware{engine: engine}
}

// RequirePermission rejects requests whose principal may not perform action
// on module. 401 when no principal, 403 when the decision is deny.
func (m *Middleware) RequirePermission(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromRequest(r)
			if p == nil {
				httputil.WriteUnauthorized(w, "Unauthorized")
				return
			}
			if !m.engine.Authorize(p, module, action) {
				httputil.WriteForbidden(w, fmt.Sprintf("Insufficient permissions for %s on %s", action, module))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModuleAccess rejects requests whose principal cannot see the module
// at all. Coarser than RequirePermission; used as a route-group pre-gate.
func (m *Middleware) RequireModuleAccess(module Module) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromRequest(r)
			if p == nil {
				httputil.WriteUnauthorized(w, "Unauthorized")
				return
			}
			if !m.engine.CheckModuleAccess(p, module) {
				httputil.WriteForbidden(w, fmt.Sprintf("Access denied to %s module", module))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerIDFunc resolves the client id owning the requested resource. Empty
// string means the request is not scoped to a specific owner.
type OwnerIDFunc func(r *http.Request) string

// RequireOwnData applies the ownership guard for client-type principals on
// per-resource endpoints, in addition to RequirePermission.
func (m *Middleware) RequireOwnData(ownerID OwnerIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromRequest(r)
			if p == nil {
				httputil.WriteUnauthorized(w, "Unauthorized")
				return
			}
			if !m.engine.EnsureOwnData(p, ownerID(r)) {
				httputil.WriteForbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
