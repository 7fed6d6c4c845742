package middleware

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/observability"
)

const authSchema = `
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	user_type TEXT NOT NULL,
	client_id TEXT,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	last_login_at TIMESTAMP
);
CREATE TABLE user_grants (
	user_id TEXT NOT NULL,
	module TEXT NOT NULL,
	actions TEXT NOT NULL,
	level TEXT NOT NULL
);
CREATE TABLE api_tokens (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	token_hash TEXT NOT NULL UNIQUE,
	token_prefix TEXT NOT NULL,
	name TEXT NOT NULL,
	expires_at TIMESTAMP,
	last_used_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	revoked_at TIMESTAMP
);`

type authFixture struct {
	store    *auth.Store
	sessions *auth.SessionManager
	user     *auth.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(authSchema)
	require.NoError(t, err)

	store := auth.NewStore(db)
	user := &auth.User{
		Email:    "staff@example.com",
		Role:     authz.RoleSales,
		UserType: authz.UserTypeStaff,
		IsActive: true,
	}
	require.NoError(t, store.CreateUser(context.Background(), user, "pw"))
	require.NoError(t, store.SetUserGrants(context.Background(), user.ID, []authz.Grant{
		{Module: authz.ModuleClients, Actions: []authz.Action{authz.ActionRead}, Level: authz.LevelView},
	}))

	sessions, err := auth.NewSessionManager("test-secret", time.Hour)
	require.NoError(t, err)

	return &authFixture{store: store, sessions: sessions, user: user}
}

func newAuthHandler(t *testing.T, fx *authFixture, optional bool) http.Handler {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	cache, err := auth.NewPrincipalCache(16, time.Minute)
	require.NoError(t, err)
	mw := NewAuthMiddleware(fx.sessions, fx.store, cache, logger, optional)

	return mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r)
		if p == nil {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("anonymous"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(p.ID))
	}))
}

func TestAuthMiddlewareSessionToken(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, false)

	token, err := fx.sessions.Issue(fx.user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fx.user.ID, rec.Body.String())
}

func TestAuthMiddlewareAPIToken(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, false)

	_, plaintext, err := fx.store.CreateToken(context.Background(), fx.user.ID, "ci", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fx.user.ID, rec.Body.String())
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestAuthMiddlewareOptionalPassesThrough(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, false)

	for _, header := range []string{
		"Bearer garbage",
		"Bearer gd_doesnotexist",
		"Basic dXNlcjpwYXNz",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthMiddlewareRevokedToken(t *testing.T) {
	fx := newAuthFixture(t)
	handler := newAuthHandler(t, fx, false)

	record, plaintext, err := fx.store.CreateToken(context.Background(), fx.user.ID, "ci", nil)
	require.NoError(t, err)
	require.NoError(t, fx.store.RevokeToken(context.Background(), record.ID, fx.user.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInactiveUser(t *testing.T) {
	fx := newAuthFixture(t)

	inactive := &auth.User{
		Email:    "gone@example.com",
		Role:     authz.RoleHR,
		UserType: authz.UserTypeStaff,
		IsActive: false,
	}
	require.NoError(t, fx.store.CreateUser(context.Background(), inactive, "pw"))

	handler := newAuthHandler(t, fx, false)
	token, err := fx.sessions.Issue(inactive)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
