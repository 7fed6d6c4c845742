package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/clients"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

// pathOwnerID guards per-resource routes where the client id is the path id.
func pathOwnerID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (s *Server) registerClientRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/clients", s.handleListClients,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionRead))
	handle(r, http.MethodPost, "/clients", s.handleCreateClient,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionCreate))
	handle(r, http.MethodGet, "/clients/{id}", s.handleGetClient,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionRead),
		s.guard.RequireOwnData(pathOwnerID))
	handle(r, http.MethodPut, "/clients/{id}", s.handleUpdateClient,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionUpdate))
	handle(r, http.MethodDelete, "/clients/{id}", s.handleDeleteClient,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionDelete))
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	// Client portal accounts see only their own record.
	if p := authz.PrincipalFromRequest(r); p != nil && p.UserType == authz.UserTypeClient {
		client, err := s.deps.Clients.Get(r.Context(), p.ClientID)
		if err != nil {
			if errors.Is(err, clients.ErrNotFound) {
				httputil.WriteJSON(w, http.StatusOK, []*clients.Client{})
				return
			}
			httputil.WriteInternalError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, []*clients.Client{client})
		return
	}

	page, err := httputil.ParsePagination(r, 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	list, err := s.deps.Clients.List(r.Context(), clients.ListFilter{
		Status: httputil.ParseQueryString(r, "status", ""),
		Search: httputil.ParseQueryString(r, "search", ""),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*clients.Client{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clients.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	client := &clients.Client{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Status:      req.Status,
		Notes:       req.Notes,
		Tags:        req.Tags,
		CreatedBy:   contextkeys.GetUserID(r.Context()),
	}
	if err := s.deps.Clients.Create(r.Context(), client); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, client)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	client, err := s.deps.Clients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Client not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req clients.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	client, err := s.deps.Clients.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Client not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	req.Apply(client)
	if err := s.deps.Clients.Update(r.Context(), client); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Clients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Client not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
