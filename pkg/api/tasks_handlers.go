package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/tasks"
)

func (s *Server) registerTaskRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/tasks", s.handleListTasks,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionRead))
	handle(r, http.MethodPost, "/tasks", s.handleCreateTask,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionCreate))
	handle(r, http.MethodGet, "/tasks/{id}", s.handleGetTask,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionRead))
	handle(r, http.MethodPut, "/tasks/{id}", s.handleUpdateTask,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionUpdate))
	handle(r, http.MethodPost, "/tasks/{id}/assign", s.handleAssignTask,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionAssign))
	handle(r, http.MethodDelete, "/tasks/{id}", s.handleDeleteTask,
		s.guard.RequirePermission(authz.ModuleTasks, authz.ActionDelete))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r, 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	list, err := s.deps.Tasks.List(r.Context(), tasks.ListFilter{
		Status:     httputil.ParseQueryString(r, "status", ""),
		AssignedTo: httputil.ParseQueryString(r, "assignedTo", ""),
		ClientID:   httputil.ParseQueryString(r, "clientId", ""),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req tasks.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	task := &tasks.Task{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedBy:   contextkeys.GetUserID(r.Context()),
	}
	if err := s.deps.Tasks.Create(r.Context(), task); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	task, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Task not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req tasks.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	task, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Task not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	req.Apply(task, s.now())
	if err := s.deps.Tasks.Update(r.Context(), task); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req tasks.AssignRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.deps.Tasks.Assign(r.Context(), id, req.AssignedTo); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Task not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	task, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Tasks.Delete(r.Context(), id); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Task not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
