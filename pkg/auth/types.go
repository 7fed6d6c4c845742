package auth

import (
	"time"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

// User represents a staff or client portal account
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	FullName     string         `json:"full_name,omitempty"`
	Role         authz.Role     `json:"role"`
	UserType     authz.UserType `json:"user_type"`
	ClientID     string         `json:"client_id,omitempty"`
	IsActive     bool           `json:"is_active"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
}

// Principal builds the authorization principal for the user with the given
// module grants.
func (u *User) Principal(grants []authz.Grant) *authz.Principal {
	return &authz.Principal{
		ID:       u.ID,
		Role:     u.Role,
		UserType: u.UserType,
		Grants:   authz.DedupeGrants(grants),
		ClientID: u.ClientID,
		IsActive: u.IsActive,
	}
}

// APIToken represents a long-lived API token
type APIToken struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenHash   string     `json:"-"` // Never expose hash
	TokenPrefix string     `json:"token_prefix"`
	Name        string     `json:"name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// Usable reports whether the token is neither revoked nor expired at now.
func (t *APIToken) Usable(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
		return false
	}
	return true
}
