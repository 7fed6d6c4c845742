package auth

import (
	"testing"
	"time"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

func testUser() *User {
	return &User{
		ID:       "user-1",
		Email:    "staff@example.com",
		Role:     authz.RoleSales,
		UserType: authz.UserTypeStaff,
		IsActive: true,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	token, err := sm.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := sm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %s", claims.Subject)
	}
	if claims.Role != authz.RoleSales || claims.UserType != authz.UserTypeStaff {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessionClientClaims(t *testing.T) {
	sm, _ := NewSessionManager("test-secret", time.Hour)

	user := &User{
		ID:       "portal-1",
		Role:     authz.RoleClient,
		UserType: authz.UserTypeClient,
		ClientID: "client-9",
		IsActive: true,
	}
	token, err := sm.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := sm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.ClientID != "client-9" {
		t.Errorf("client_id = %s", claims.ClientID)
	}
}

func TestSessionExpired(t *testing.T) {
	sm, _ := NewSessionManager("test-secret", -time.Minute)

	token, err := sm.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := sm.Parse(token); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestSessionWrongSecret(t *testing.T) {
	sm1, _ := NewSessionManager("secret-one", time.Hour)
	sm2, _ := NewSessionManager("secret-two", time.Hour)

	token, err := sm1.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := sm2.Parse(token); err == nil {
		t.Error("expected signature mismatch to fail")
	}
}

func TestSessionGarbageInput(t *testing.T) {
	sm, _ := NewSessionManager("test-secret", time.Hour)
	for _, token := range []string{"", "   ", "not.a.jwt", "gd_abc"} {
		if _, err := sm.Parse(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestNewSessionManagerValidation(t *testing.T) {
	if _, err := NewSessionManager("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewSessionManager("secret", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}
