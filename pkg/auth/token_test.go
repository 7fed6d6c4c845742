package auth

import (
	"strings"
	"testing"
)

func TestGenerateTokenFormat(t *testing.T) {
	tg := NewTokenGenerator()

	token, hash, prefix, err := tg.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if !strings.HasPrefix(token, TokenPrefix) {
		t.Errorf("token missing prefix: %s", token)
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hash))
	}
	if !strings.HasPrefix(prefix, TokenPrefix) || len(prefix) != len(TokenPrefix)+8 {
		t.Errorf("unexpected prefix: %s", prefix)
	}
	if err := tg.ValidateTokenFormat(token); err != nil {
		t.Errorf("generated token fails validation: %v", err)
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	tg := NewTokenGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _, _, err := tg.GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	tg := NewTokenGenerator()
	if tg.HashToken("gd_abc") != tg.HashToken("gd_abc") {
		t.Error("hash is not deterministic")
	}
	if tg.HashToken("gd_abc") == tg.HashToken("gd_abd") {
		t.Error("distinct tokens share a hash")
	}
}

func TestValidateTokenFormat(t *testing.T) {
	tg := NewTokenGenerator()

	bad := []string{
		"",
		"gd_",
		"spoke_abc123",
		"gd_not!valid!base64url",
	}
	for _, token := range bad {
		if err := tg.ValidateTokenFormat(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestExtractPrefix(t *testing.T) {
	tg := NewTokenGenerator()

	if got := tg.ExtractPrefix("gd_abcdefgh1234"); got != "gd_abcdefgh" {
		t.Errorf("ExtractPrefix = %q", got)
	}
	if got := tg.ExtractPrefix("other_abcdefgh"); got != "" {
		t.Errorf("ExtractPrefix on foreign token = %q", got)
	}
}
