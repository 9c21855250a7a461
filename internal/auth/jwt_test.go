package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT("secret", "session-audit", userID, "tenant-a", "org_admin", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseJWT("secret", "session-audit", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.TenantID != "tenant-a" {
		t.Errorf("tenant = %q, want tenant-a", claims.TenantID)
	}
	if claims.Role != "org_admin" {
		t.Errorf("role = %q, want org_admin", claims.Role)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", "session-audit", uuid.New(), "t", "org_user", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT("other", "session-audit", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseJWTWrongIssuer(t *testing.T) {
	token, err := GenerateJWT("secret", "someone-else", uuid.New(), "t", "org_user", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT("secret", "session-audit", token); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestGenerateJWTDefaultExpiration(t *testing.T) {
	token, err := GenerateJWT("secret", "session-audit", uuid.New(), "t", "org_user", -time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// non-positive expiration falls back to 24h
	if _, err := ParseJWT("secret", "session-audit", token); err != nil {
		t.Fatalf("expected default expiration, got %v", err)
	}
}
