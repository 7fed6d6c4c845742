package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/audit"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

func (s *Server) registerAuditRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/audit/events", s.handleSearchAudit, s.requireAdmin)
}

func (s *Server) handleSearchAudit(w http.ResponseWriter, r *http.Request) {
	if s.deps.AuditSearch == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "Audit storage is not configured")
		return
	}

	page, err := httputil.ParsePagination(r, 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := audit.SearchFilter{
		UserID:       httputil.ParseQueryString(r, "userId", ""),
		EventType:    audit.EventType(httputil.ParseQueryString(r, "eventType", "")),
		Status:       audit.EventStatus(httputil.ParseQueryString(r, "status", "")),
		ResourceType: audit.ResourceType(httputil.ParseQueryString(r, "resourceType", "")),
		ResourceID:   httputil.ParseQueryString(r, "resourceId", ""),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if from := httputil.ParseQueryString(r, "from", ""); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid from timestamp, expected RFC3339")
			return
		}
		filter.StartTime = &t
	}
	if to := httputil.ParseQueryString(r, "to", ""); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid to timestamp, expected RFC3339")
			return
		}
		filter.EndTime = &t
	}

	events, err := s.deps.AuditSearch.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if events == nil {
		events = []*audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
