package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/staff"
)

func (s *Server) registerStaffRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/staff", s.handleListStaff,
		s.guard.RequirePermission(authz.ModuleStaff, authz.ActionRead))
	handle(r, http.MethodPost, "/staff", s.handleCreateStaff,
		s.guard.RequirePermission(authz.ModuleStaff, authz.ActionCreate))
	handle(r, http.MethodGet, "/staff/{id}", s.handleGetStaff,
		s.guard.RequirePermission(authz.ModuleStaff, authz.ActionRead))
	handle(r, http.MethodPut, "/staff/{id}", s.handleUpdateStaff,
		s.guard.RequirePermission(authz.ModuleStaff, authz.ActionUpdate))
	handle(r, http.MethodPost, "/staff/{id}/deactivate", s.handleDeactivateStaff,
		s.guard.RequirePermission(authz.ModuleStaff, authz.ActionDelete))
}

func (s *Server) handleListStaff(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := httputil.ParseQueryBool(r, "active", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	list, err := s.deps.Staff.List(r.Context(), activeOnly)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*staff.Member{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req staff.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	member := &staff.Member{
		UserID:      req.UserID,
		FullName:    req.FullName,
		Title:       req.Title,
		Email:       req.Email,
		Phone:       req.Phone,
		Specialties: req.Specialties,
		HireDate:    req.HireDate,
	}
	if err := s.deps.Staff.Create(r.Context(), member); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

func (s *Server) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	member, err := s.deps.Staff.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Staff member not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req staff.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	member, err := s.deps.Staff.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Staff member not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	req.Apply(member)
	if err := s.deps.Staff.Update(r.Context(), member); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

// handleDeactivateStaff retires a member instead of deleting the row so
// task and onboarding history keeps resolving.
func (s *Server) handleDeactivateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Staff.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, staff.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Staff member not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
