package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

func (s *Server) registerReportRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/reports/dashboard", s.handleDashboard,
		s.guard.RequirePermission(authz.ModuleReports, authz.ActionRead))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Reports.Dashboard(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
