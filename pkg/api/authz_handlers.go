package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/audit"
	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

func (s *Server) registerAuthzRoutes(r *mux.Router) {
	handle(r, http.MethodPost, "/authz/check", s.handleAuthzCheck)
	handle(r, http.MethodGet, "/authz/modules", s.handleAccessibleModules)

	handle(r, http.MethodGet, "/users/{id}/grants", s.handleGetGrants, s.requireAdmin)
	handle(r, http.MethodPut, "/users/{id}/grants", s.handleSetGrants, s.requireAdmin)
}

type checkRequest struct {
	Module authz.Module `json:"module"`
	Action authz.Action `json:"action"`
}

// handleAuthzCheck evaluates a single permission decision for the caller.
// The dashboard uses it to gate UI affordances with the same evaluation the
// route middleware applies.
func (s *Server) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromRequest(r)
	if p == nil {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req checkRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	decision, err := s.deps.Engine.Check(p, req.Module, req.Action)
	if err != nil {
		if errors.Is(err, authz.ErrValidation) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

func (s *Server) handleAccessibleModules(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromRequest(r)
	if p == nil {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}
	modules := s.deps.Engine.AccessibleModules(p)
	if modules == nil {
		modules = []authz.Module{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]authz.Module{"modules": modules})
}

func (s *Server) handleGetGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.deps.Auth.GetUserByID(r.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	grants, err := s.deps.Auth.GrantsForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if grants == nil {
		grants = []authz.Grant{}
	}
	httputil.WriteJSON(w, http.StatusOK, grants)
}

type setGrantsRequest struct {
	Grants []authz.Grant `json:"grants"`
}

// handleSetGrants replaces a user's module grants and drops the cached
// principal so the change is visible on the next request.
func (s *Server) handleSetGrants(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req setGrantsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	registry := s.deps.Engine.Registry()
	for _, g := range req.Grants {
		if err := registry.ValidateGrant(g); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
	}

	if _, err := s.deps.Auth.GetUserByID(r.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	if err := s.deps.Auth.SetUserGrants(r.Context(), userID, req.Grants); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(userID)
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAuthzGrantChange, audit.EventStatusSuccess)
	event.ResourceType = audit.ResourceTypeGrant
	event.ResourceID = userID
	audit.Record(r.Context(), event)

	grants, err := s.deps.Auth.GrantsForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if grants == nil {
		grants = []authz.Grant{}
	}
	httputil.WriteJSON(w, http.StatusOK, grants)
}
