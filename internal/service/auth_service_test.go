package service

import (
	"testing"
	"time"

	"github.com/lexidrill/examgen-backend/internal/config"
)

func testAuthService(secret string) *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret: secret,
		JWTExpiry: time.Hour,
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := testAuthService("unit-test-secret")

	token, err := svc.IssueToken("requester-42")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.RequesterID != "requester-42" {
		t.Errorf("requester id = %q, want requester-42", claims.RequesterID)
	}
	if claims.Subject != "requester-42" {
		t.Errorf("subject = %q, want requester-42", claims.Subject)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Error("token should expire in the future")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := testAuthService("secret-a").IssueToken("requester-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := testAuthService("secret-b").ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := testAuthService("unit-test-secret")
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.ValidateToken(tok); err == nil {
			t.Errorf("expected error for token %q", tok)
		}
	}
}
