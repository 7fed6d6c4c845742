package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glowdesk/glowdesk/pkg/audit"
	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/contextkeys"
	"github.com/glowdesk/glowdesk/pkg/httputil"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	handle(r, http.MethodPost, "/auth/login", s.handleLogin)
	handle(r, http.MethodGet, "/auth/me", s.handleMe)

	handle(r, http.MethodPost, "/auth/tokens", s.handleCreateToken)
	handle(r, http.MethodGet, "/auth/tokens", s.handleListTokens)
	handle(r, http.MethodDelete, "/auth/tokens/{id}", s.handleRevokeToken)

	handle(r, http.MethodPost, "/users", s.handleCreateUser, s.requireAdmin)
	handle(r, http.MethodPost, "/users/{id}/deactivate", s.handleDeactivateUser, s.requireAdmin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}

	user, err := s.deps.Auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		event := audit.NewEvent(r.Context(), r, audit.EventTypeAuthLoginFailed, audit.EventStatusFailure)
		event.Message = "login failed for " + req.Email
		audit.Record(r.Context(), event)

		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	token, err := s.deps.Sessions.Issue(user)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAuthLogin, audit.EventStatusSuccess)
	event.UserID = user.ID
	event.ResourceType = audit.ResourceTypeUser
	event.ResourceID = user.ID
	audit.Record(r.Context(), event)

	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromRequest(r)
	if p == nil {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"principal": p,
		"modules":   s.deps.Engine.AccessibleModules(p),
	})
}

type createTokenRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type createTokenResponse struct {
	Token *auth.APIToken `json:"token"`
	// Plaintext is returned exactly once; only the hash is stored.
	Plaintext string `json:"plaintext"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req createTokenRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "Token name is required")
		return
	}

	token, plaintext, err := s.deps.Auth.CreateToken(r.Context(), userID, req.Name, req.ExpiresAt)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAuthTokenCreate, audit.EventStatusSuccess)
	event.ResourceType = audit.ResourceTypeToken
	event.ResourceID = token.ID
	audit.Record(r.Context(), event)

	httputil.WriteCreated(w, createTokenResponse{Token: token, Plaintext: plaintext})
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}

	tokens, err := s.deps.Auth.ListUserTokens(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if tokens == nil {
		tokens = []*auth.APIToken{}
	}
	httputil.WriteJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteUnauthorized(w, "Unauthorized")
		return
	}
	tokenID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.deps.Auth.RevokeToken(r.Context(), tokenID, userID); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			httputil.WriteNotFoundError(w, "Token not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAuthTokenRevoke, audit.EventStatusSuccess)
	event.ResourceType = audit.ResourceTypeToken
	event.ResourceID = tokenID
	audit.Record(r.Context(), event)

	httputil.WriteNoContent(w)
}

type createUserRequest struct {
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Password string         `json:"password"`
	Role     authz.Role     `json:"role"`
	UserType authz.UserType `json:"userType"`
	ClientID string         `json:"clientId"`
	Grants   []authz.Grant  `json:"grants"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteBadRequest(w, "Password must be at least 8 characters")
		return
	}

	registry := s.deps.Engine.Registry()
	if !registry.ValidRole(req.Role) {
		httputil.WriteBadRequest(w, "Unknown role")
		return
	}
	if !registry.ValidUserType(req.UserType) {
		httputil.WriteBadRequest(w, "Unknown user type")
		return
	}
	for _, g := range req.Grants {
		if err := registry.ValidateGrant(g); err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
	}
	if req.UserType == authz.UserTypeClient && req.ClientID == "" {
		httputil.WriteBadRequest(w, "Client accounts require a clientId")
		return
	}

	user := &auth.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		UserType: req.UserType,
		ClientID: req.ClientID,
		IsActive: true,
	}
	if err := s.deps.Auth.CreateUser(r.Context(), user, req.Password); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if len(req.Grants) > 0 {
		if err := s.deps.Auth.SetUserGrants(r.Context(), user.ID, req.Grants); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAdminUserCreate, audit.EventStatusSuccess)
	event.ResourceType = audit.ResourceTypeUser
	event.ResourceID = user.ID
	audit.Record(r.Context(), event)

	httputil.WriteCreated(w, user)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.deps.Auth.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	if err := s.deps.Auth.DeactivateUser(r.Context(), user.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(user.ID)
	}

	event := audit.NewEvent(r.Context(), r, audit.EventTypeAdminUserDeactivate, audit.EventStatusSuccess)
	event.ResourceType = audit.ResourceTypeUser
	event.ResourceID = user.ID
	audit.Record(r.Context(), event)

	httputil.WriteNoContent(w)
}
