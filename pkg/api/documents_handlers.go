package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/documents"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

func (s *Server) registerDocumentRoutes(r *mux.Router) {
	handle(r, http.MethodGet, "/documents", s.handleListDocuments,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionRead))
	handle(r, http.MethodPost, "/documents", s.handleUploadDocument,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionCreate))
	handle(r, http.MethodGet, "/documents/{id}", s.handleGetDocument,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionRead))
	handle(r, http.MethodGet, "/documents/{id}/download", s.handleDownloadDocument,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionRead))
	handle(r, http.MethodGet, "/documents/{id}/url", s.handleDocumentURL,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionShare))
	handle(r, http.MethodDelete, "/documents/{id}", s.handleDeleteDocument,
		s.guard.RequirePermission(authz.ModuleDocuments, authz.ActionDelete))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	clientID := httputil.ParseQueryString(r, "clientId", "")
	if p := authz.PrincipalFromRequest(r); p != nil && p.UserType == authz.UserTypeClient {
		clientID = p.ClientID
	}

	var (
		list []*documents.Document
		err  error
	)
	if clientID != "" {
		list, err = s.deps.Documents.ListByClient(r.Context(), clientID)
	} else {
		var page httputil.Pagination
		page, err = httputil.ParsePagination(r, 50)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		list, err = s.deps.Documents.List(r.Context(), page.Limit, page.Offset)
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*documents.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

const maxUploadMemory = 8 << 20

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "A file field is required")
		return
	}
	defer file.Close()

	clientID := r.FormValue("clientId")
	if p := authz.PrincipalFromRequest(r); p != nil && p.UserType == authz.UserTypeClient {
		// Portal uploads are always filed under the caller's own client.
		clientID = p.ClientID
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := s.deps.Documents.Upload(r.Context(), documents.UploadInput{
		ClientID:    clientID,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		UploadedBy:  contextkeys.GetUserID(r.Context()),
		Content:     file,
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadOwnedDocument(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadOwnedDocument(w, r)
	if !ok {
		return
	}

	_, reader, err := s.deps.Documents.Open(r.Context(), doc.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		s.deps.Logger.WithError(err).Warn("document stream interrupted")
	}
}

func (s *Server) handleDocumentURL(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadOwnedDocument(w, r)
	if !ok {
		return
	}

	_, url, err := s.deps.Documents.URL(r.Context(), doc.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadOwnedDocument(w, r)
	if !ok {
		return
	}
	if err := s.deps.Documents.Delete(r.Context(), doc.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// loadOwnedDocument fetches the document on the path and applies the
// ownership guard for client principals.
func (s *Server) loadOwnedDocument(w http.ResponseWriter, r *http.Request) (*documents.Document, bool) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return nil, false
	}
	doc, err := s.deps.Documents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			httputil.WriteNotFoundError(w, "Document not found")
			return nil, false
		}
		httputil.WriteInternalError(w, err)
		return nil, false
	}

	p := authz.PrincipalFromRequest(r)
	if !s.deps.Engine.EnsureOwnData(p, doc.ClientID) {
		httputil.WriteForbidden(w, "Access denied")
		return nil, false
	}
	return doc, true
}
