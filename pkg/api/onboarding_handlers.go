package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/clients"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
	"github.com/glowdesk/glowdesk/pkg/onboarding"
)

// Onboarding records live under the clients module for access control: they
// are attributes of a client relationship, not a module of their own.
func (s *Server) registerOnboardingRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/onboarding", s.handleListOnboarding,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionRead))
	handle(r, http.MethodGet, "/onboarding/reminders", s.handleOnboardingReminders,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionRead))
	handle(r, http.MethodPost, "/onboarding", s.handleCreateOnboarding,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionCreate))
	handle(r, http.MethodGet, "/onboarding/{id}", s.handleGetOnboarding,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionRead))
	handle(r, http.MethodPut, "/onboarding/{id}", s.handleUpdateOnboarding,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionUpdate))
	handle(r, http.MethodDelete, "/onboarding/{id}", s.handleDeleteOnboarding,
		s.guard.RequirePermission(authz.ModuleClients, authz.ActionDelete))
}

func (s *Server) handleListOnboarding(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r, 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := onboarding.ListFilter{
		Status:     onboarding.Status(httputil.ParseQueryString(r, "status", "")),
		AssignedTo: httputil.ParseQueryString(r, "assignedTo", ""),
		ClientID:   httputil.ParseQueryString(r, "clientId", ""),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	// Portal accounts only ever see their own record.
	if p := authz.PrincipalFromRequest(r); p != nil && p.UserType == authz.UserTypeClient {
		filter.ClientID = p.ClientID
	}

	records, err := s.deps.Onboarding.List(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	now := s.now()
	views := make([]onboarding.View, 0, len(records))
	for _, rec := range records {
		views = append(views, onboarding.NewView(rec, now))
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleOnboardingReminders(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Onboarding.ListActive(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if p := authz.PrincipalFromRequest(r); p != nil && p.UserType == authz.UserTypeClient {
		var own []*onboarding.Record
		for _, rec := range records {
			if rec.ClientID == p.ClientID {
				own = append(own, rec)
			}
		}
		records = own
	}

	reminders := onboarding.BuildReminders(records, s.now())
	if reminders == nil {
		reminders = []onboarding.Reminder{}
	}
	httputil.WriteJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleCreateOnboarding(w http.ResponseWriter, r *http.Request) {
	var rec onboarding.Record
	if !httputil.ParseJSONOrError(w, r, &rec) {
		return
	}
	if rec.ClientID == "" {
		httputil.WriteBadRequest(w, "clientId is required")
		return
	}
	if _, err := s.deps.Clients.Get(r.Context(), rec.ClientID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Client not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	// Progress and status are derived; whatever the payload carried is
	// discarded before the store recomputes them.
	rec.ID = ""
	rec.Progress = 0
	rec.Status = ""
	rec.ActualCompletionDate = nil
	rec.CompletedAt = nil
	rec.CreatedBy = contextkeys.GetUserID(r.Context())
	rec.LastUpdatedBy = rec.CreatedBy

	if err := s.deps.Onboarding.Create(r.Context(), &rec); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, onboarding.NewView(&rec, s.now()))
}

func (s *Server) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadOwnedRecord(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, onboarding.NewView(rec, s.now()))
}

// onboardingUpdate is the writable subset of a record. Derived fields and
// creation metadata are absent so payloads cannot touch them.
type onboardingUpdate struct {
	BusinessInfo    *onboarding.BusinessInfo    `json:"businessInfo"`
	PreOnboarding   *onboarding.PreOnboarding   `json:"preOnboarding"`
	NeedsAssessment *onboarding.NeedsAssessment `json:"needsAssessment"`
	ServiceProposal *onboarding.ServiceProposal `json:"serviceProposal"`
	FollowUp        *onboarding.FollowUp        `json:"followUp"`
	Feedback        *onboarding.Feedback        `json:"feedback"`

	EstimatedCompletionDate *time.Time         `json:"estimatedCompletionDate"`
	AssignedTo              *string            `json:"assignedTo"`
	Notes                   *[]onboarding.Note `json:"notes"`
	Tags                    *[]string          `json:"tags"`
}

func (u *onboardingUpdate) apply(rec *onboarding.Record) {
	if u.BusinessInfo != nil {
		rec.BusinessInfo = *u.BusinessInfo
	}
	if u.PreOnboarding != nil {
		rec.PreOnboarding = *u.PreOnboarding
	}
	if u.NeedsAssessment != nil {
		rec.NeedsAssessment = *u.NeedsAssessment
	}
	if u.ServiceProposal != nil {
		rec.ServiceProposal = *u.ServiceProposal
	}
	if u.FollowUp != nil {
		rec.FollowUp = *u.FollowUp
	}
	if u.Feedback != nil {
		rec.Feedback = *u.Feedback
	}
	if u.EstimatedCompletionDate != nil {
		rec.EstimatedCompletionDate = u.EstimatedCompletionDate
	}
	if u.AssignedTo != nil {
		rec.AssignedTo = *u.AssignedTo
	}
	if u.Notes != nil {
		rec.Notes = *u.Notes
	}
	if u.Tags != nil {
		rec.Tags = *u.Tags
	}
}

func (s *Server) handleUpdateOnboarding(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadOwnedRecord(w, r)
	if !ok {
		return
	}

	var update onboardingUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	update.apply(rec)
	rec.LastUpdatedBy = contextkeys.GetUserID(r.Context())

	if err := s.deps.Onboarding.Update(r.Context(), rec); err != nil {
		if errors.Is(err, onboarding.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Onboarding record not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, onboarding.NewView(rec, s.now()))
}

func (s *Server) handleDeleteOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Onboarding.Delete(r.Context(), id); err != nil {
		if errors.Is(err, onboarding.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Onboarding record not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// loadOwnedRecord fetches the record on the path and applies the ownership
// guard for client principals.
func (s *Server) loadOwnedRecord(w http.ResponseWriter, r *http.Request) (*onboarding.Record, bool) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return nil, false
	}
	rec, err := s.deps.Onboarding.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, onboarding.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Onboarding record not found")
			return nil, false
		}
		httputil.WriteInternalError(w, err)
		return nil, false
	}

	p := authz.PrincipalFromRequest(r)
	if !s.deps.Engine.EnsureOwnData(p, rec.ClientID) {
		httputil.WriteForbidden(w, "Access denied")
		return nil, false
	}
	return rec, true
}
