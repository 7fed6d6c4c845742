package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/invoices"
)

func (s *Server) registerInvoiceRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/invoices", s.handleListInvoices,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionRead))
	handle(r, http.MethodPost, "/invoices", s.handleCreateInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionCreate))
	handle(r, http.MethodGet, "/invoices/{id}", s.handleGetInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionRead))
	handle(r, http.MethodPut, "/invoices/{id}", s.handleUpdateInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionUpdate))
	handle(r, http.MethodDelete, "/invoices/{id}", s.handleDeleteInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionDelete))

	handle(r, http.MethodPost, "/invoices/{id}/submit", s.handleSubmitInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionUpdate))
	handle(r, http.MethodPost, "/invoices/{id}/approve", s.handleApproveInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionApprove))
	handle(r, http.MethodPost, "/invoices/{id}/pay", s.handlePayInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionUpdate))
	handle(r, http.MethodPost, "/invoices/{id}/void", s.handleVoidInvoice,
		s.guard.RequirePermission(authz.ModuleInvoices, authz.ActionUpdate))
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r, 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	list, err := s.deps.Invoices.List(r.Context(), invoices.ListFilter{
		Status:   httputil.ParseQueryString(r, "status", ""),
		ClientID: httputil.ParseQueryString(r, "clientId", ""),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*invoices.Invoice{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoices.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	invoice := &invoices.Invoice{
		ClientID:  req.ClientID,
		Number:    req.Number,
		LineItems: req.LineItems,
		Notes:     req.Notes,
		DueDate:   req.DueDate,
		CreatedBy: contextkeys.GetUserID(r.Context()),
	}
	if err := s.deps.Invoices.Create(r.Context(), invoice); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, invoice)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, ok := s.loadInvoice(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoice)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, ok := s.loadInvoice(w, r)
	if !ok {
		return
	}
	if invoice.Status != invoices.StatusDraft {
		httputil.WriteConflict(w, "Only draft invoices can be edited")
		return
	}

	var req invoices.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	req.Apply(invoice)
	if err := s.deps.Invoices.Update(r.Context(), invoice); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoice)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Invoices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Draft invoice not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleSubmitInvoice(w http.ResponseWriter, r *http.Request) {
	s.transitionInvoice(w, r, func(i *invoices.Invoice) error {
		return i.Submit()
	})
}

func (s *Server) handleApproveInvoice(w http.ResponseWriter, r *http.Request) {
	approver := contextkeys.GetUserID(r.Context())
	s.transitionInvoice(w, r, func(i *invoices.Invoice) error {
		return i.Approve(approver, s.now())
	})
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	s.transitionInvoice(w, r, func(i *invoices.Invoice) error {
		return i.MarkPaid(s.now())
	})
}

func (s *Server) handleVoidInvoice(w http.ResponseWriter, r *http.Request) {
	s.transitionInvoice(w, r, func(i *invoices.Invoice) error {
		return i.Void()
	})
}

// transitionInvoice runs a state-machine step and persists the result.
// Invalid transitions map to 409.
func (s *Server) transitionInvoice(w http.ResponseWriter, r *http.Request, step func(*invoices.Invoice) error) {
	invoice, ok := s.loadInvoice(w, r)
	if !ok {
		return
	}

	if err := step(invoice); err != nil {
		if errors.Is(err, invoices.ErrInvalidTransition) {
			httputil.WriteConflict(w, "Invalid invoice status transition from "+invoice.Status)
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	if err := s.deps.Invoices.Update(r.Context(), invoice); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoice)
}

func (s *Server) loadInvoice(w http.ResponseWriter, r *http.Request) (*invoices.Invoice, bool) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return nil, false
	}
	invoice, err := s.deps.Invoices.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Invoice not found")
			return nil, false
		}
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	return invoice, true
}
