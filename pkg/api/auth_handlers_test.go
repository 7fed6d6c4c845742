package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
)

func seedUser(t *testing.T, env *testEnv, email, password string) *auth.User {
	t.Helper()
	user := &auth.User{
		Email:    email,
		FullName: "Seeded User",
		Role:     authz.RoleSales,
		UserType: authz.UserTypeStaff,
		IsActive: true,
	}
	require.NoError(t, env.auth.CreateUser(context.Background(), user, password))
	return user
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "dana@glowdesk.example", "sunny-days-8")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dana@glowdesk.example",
		"password": "sunny-days-8",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "dana@glowdesk.example", resp.User.Email)
	assert.Empty(t, resp.User.PasswordHash)

	claims, err := env.server.deps.Sessions.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, "dana@glowdesk.example", "sunny-days-8")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dana@glowdesk.example",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "dana@glowdesk.example",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "portal-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Principal authz.Principal `json:"principal"`
		Modules   []authz.Module  `json:"modules"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "portal-user", resp.Principal.ID)
	assert.ElementsMatch(t, []authz.Module{
		authz.ModuleDashboard, authz.ModuleClients, authz.ModuleDocuments,
	}, resp.Modules)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/tokens", "manager-token", map[string]string{
		"name": "ci-pipeline",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createTokenResponse
	decode(t, rec, &created)
	require.NotNil(t, created.Token)
	assert.NotEmpty(t, created.Plaintext)
	assert.NotEmpty(t, created.Token.TokenPrefix)
	assert.Equal(t, "ci-pipeline", created.Token.Name)

	// The plaintext still resolves through the store.
	looked, err := env.auth.LookupToken(context.Background(), created.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, created.Token.ID, looked.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/tokens", "manager-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*auth.APIToken
	decode(t, rec, &list)
	require.Len(t, list, 1)

	rec = env.do(t, http.MethodDelete, "/api/v1/auth/tokens/"+created.Token.ID, "manager-token", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Revoking twice reports not found.
	rec = env.do(t, http.MethodDelete, "/api/v1/auth/tokens/"+created.Token.ID, "manager-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenRevokeIsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/tokens", "manager-token", map[string]string{
		"name": "personal",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created createTokenResponse
	decode(t, rec, &created)

	rec = env.do(t, http.MethodDelete, "/api/v1/auth/tokens/"+created.Token.ID, "admin-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users", "admin-token", map[string]interface{}{
		"email":    "new@glowdesk.example",
		"fullName": "New Hire",
		"password": "long-enough-pw",
		"role":     "sales",
		"userType": "staff",
		"grants": []map[string]interface{}{
			{"module": "clients", "level": "view", "actions": []string{"read"}},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created auth.User
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	grants, err := env.auth.GrantsForUser(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, authz.ModuleClients, grants[0].Module)
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]interface{}{
		{"email": "a@b.c", "password": "short", "role": "sales", "userType": "staff"},
		{"email": "a@b.c", "password": "long-enough-pw", "role": "bogus", "userType": "staff"},
		{"email": "a@b.c", "password": "long-enough-pw", "role": "sales", "userType": "bogus"},
		{"email": "a@b.c", "password": "long-enough-pw", "role": "client", "userType": "client"},
		{"email": "a@b.c", "password": "long-enough-pw", "role": "sales", "userType": "staff",
			"grants": []map[string]interface{}{{"module": "bogus", "level": "view"}}},
	}
	for i, body := range cases {
		rec := env.do(t, http.MethodPost, "/api/v1/users", "admin-token", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "case %d", i)
	}
}

func TestDeactivateUser(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "leaving@glowdesk.example", "sunny-days-8")

	rec := env.do(t, http.MethodPost, "/api/v1/users/"+user.ID+"/deactivate", "admin-token", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := env.auth.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	rec = env.do(t, http.MethodPost, "/api/v1/users/missing/deactivate", "admin-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
