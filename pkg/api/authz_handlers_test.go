package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

func TestAuthzCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/authz/check", "manager-token", map[string]string{
		"module": "tasks",
		"action": "assign",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var decision authz.Decision
	decode(t, rec, &decision)
	assert.True(t, decision.Allowed)

	rec = env.do(t, http.MethodPost, "/api/v1/authz/check", "manager-token", map[string]string{
		"module": "invoices",
		"action": "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &decision)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}

func TestAuthzCheckRejectsUnknownModule(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/authz/check", "manager-token", map[string]string{
		"module": "spaceships",
		"action": "read",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/authz/check", "", map[string]string{
		"module": "tasks",
		"action": "read",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessibleModules(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/authz/modules", "portal-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Modules []authz.Module `json:"modules"`
	}
	decode(t, rec, &resp)
	assert.ElementsMatch(t, []authz.Module{
		authz.ModuleDashboard, authz.ModuleClients, authz.ModuleDocuments,
	}, resp.Modules)
}

func TestGrantAdministration(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "grants@glowdesk.example", "sunny-days-8")

	rec := env.do(t, http.MethodPut, "/api/v1/users/"+user.ID+"/grants", "admin-token", map[string]interface{}{
		"grants": []map[string]interface{}{
			{"module": "tasks", "level": "edit", "actions": []string{"create", "read", "update"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var grants []authz.Grant
	decode(t, rec, &grants)
	require.Len(t, grants, 1)
	assert.Equal(t, authz.ModuleTasks, grants[0].Module)
	assert.Equal(t, authz.LevelEdit, grants[0].Level)

	rec = env.do(t, http.MethodGet, "/api/v1/users/"+user.ID+"/grants", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &grants)
	require.Len(t, grants, 1)

	// Replacing with an empty set clears everything.
	rec = env.do(t, http.MethodPut, "/api/v1/users/"+user.ID+"/grants", "admin-token", map[string]interface{}{
		"grants": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &grants)
	assert.Empty(t, grants)
}

func TestGrantAdministrationValidation(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "grants@glowdesk.example", "sunny-days-8")

	rec := env.do(t, http.MethodPut, "/api/v1/users/"+user.ID+"/grants", "admin-token", map[string]interface{}{
		"grants": []map[string]interface{}{
			{"module": "bogus", "level": "view"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/users/missing/grants", "admin-token", map[string]interface{}{
		"grants": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/"+user.ID+"/grants", "manager-token", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
