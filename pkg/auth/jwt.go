package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

const issuer = "glowdesk"

// ErrInvalidToken indicates a session token failed validation.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims are the JWT claims on a session token.
type SessionClaims struct {
	Role     authz.Role     `json:"role"`
	UserType authz.UserType `json:"user_type"`
	ClientID string         `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session JWTs.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a session manager with the given signing secret
// and token lifetime.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a session token for the user.
func (sm *SessionManager) Issue(user *User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("user is required")
	}

	now := time.Now().UTC()
	claims := SessionClaims{
		Role:     user.Role,
		UserType: user.UserType,
		ClientID: user.ClientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token signature and claims.
func (sm *SessionManager) Parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return sm.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
