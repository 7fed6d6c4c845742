package middleware

import (
	"net/http"
	"strings"

	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/observability"
)

// AuthMiddleware authenticates requests and attaches the principal.
type AuthMiddleware struct {
	sessions *auth.SessionManager
	store    *auth.Store
	cache    *auth.PrincipalCache
	logger   *observability.Logger
	optional bool
}

// NewAuthMiddleware creates authentication middleware. When optional is
// true, requests without an Authorization header pass through without a
// principal; gated routes still reject them downstream.
func NewAuthMiddleware(sessions *auth.SessionManager, store *auth.Store, cache *auth.PrincipalCache, logger *observability.Logger, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		store:    store,
		cache:    cache,
		logger:   logger,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "Unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "Unauthorized")
			return
		}
		credential := parts[1]

		userID, err := m.resolveUserID(r, credential)
		if err != nil {
			httputil.WriteUnauthorized(w, "Unauthorized")
			return
		}

		principal := m.resolvePrincipal(r, userID)
		if principal == nil || !principal.IsActive {
			httputil.WriteUnauthorized(w, "Unauthorized")
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		ctx = contextkeys.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUserID maps a credential to a user ID. API tokens carry the gd_
// prefix; everything else is treated as a session JWT.
func (m *AuthMiddleware) resolveUserID(r *http.Request, credential string) (string, error) {
	if strings.HasPrefix(credential, auth.TokenPrefix) {
		token, err := m.store.LookupToken(r.Context(), credential)
		if err != nil {
			return "", err
		}
		return token.UserID, nil
	}

	claims, err := m.sessions.Parse(credential)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (m *AuthMiddleware) resolvePrincipal(r *http.Request, userID string) *authz.Principal {
	if m.cache != nil {
		if p := m.cache.Get(userID); p != nil {
			return p
		}
	}

	p, err := m.store.LoadPrincipal(r.Context(), userID)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", userID).Warn("failed to load principal")
		return nil
	}

	if m.cache != nil {
		m.cache.Put(userID, p)
	}
	return p
}

// GetPrincipal extracts the authenticated principal from the request.
func GetPrincipal(r *http.Request) *authz.Principal {
	return authz.PrincipalFromRequest(r)
}
