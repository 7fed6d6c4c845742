package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/tasks"
)

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", "manager-token", map[string]interface{}{
		"title":    "Order supplies",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created tasks.Task
	decode(t, rec, &created)
	assert.Equal(t, tasks.StatusOpen, created.Status)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, "manager-user", created.CreatedBy)
}

func TestUpdateTaskStampsCompletion(t *testing.T) {
	env := newTestEnv(t)

	task := &tasks.Task{Title: "Confirm booking"}
	require.NoError(t, env.tasks.Create(context.Background(), task))

	rec := env.do(t, http.MethodPut, "/api/v1/tasks/"+task.ID, "manager-token", map[string]interface{}{
		"status": tasks.StatusDone,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated tasks.Task
	decode(t, rec, &updated)
	assert.Equal(t, tasks.StatusDone, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestAssignTaskRequiresAssignAction(t *testing.T) {
	env := newTestEnv(t)

	task := &tasks.Task{Title: "Prep treatment room"}
	require.NoError(t, env.tasks.Create(context.Background(), task))
	assignee := uuid.NewString()

	// The manager grant lists assign; the limited account has no grant.
	rec := env.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID+"/assign", "limited-token", map[string]interface{}{
		"assignedTo": assignee,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID+"/assign", "manager-token", map[string]interface{}{
		"assignedTo": assignee,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated tasks.Task
	decode(t, rec, &updated)
	assert.Equal(t, assignee, updated.AssignedTo)
}

func TestAssignTaskUnassigns(t *testing.T) {
	env := newTestEnv(t)

	task := &tasks.Task{Title: "Follow up", AssignedTo: uuid.NewString()}
	require.NoError(t, env.tasks.Create(context.Background(), task))

	rec := env.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID+"/assign", "manager-token", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated tasks.Task
	decode(t, rec, &updated)
	assert.Empty(t, updated.AssignedTo)
}

func TestDeleteTaskRequiresDeleteAction(t *testing.T) {
	env := newTestEnv(t)

	task := &tasks.Task{Title: "Old task"}
	require.NoError(t, env.tasks.Create(context.Background(), task))

	// The manager grant carries no delete action and is not level full.
	rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, "manager-token", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, "admin-token", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetTaskNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), "manager-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
