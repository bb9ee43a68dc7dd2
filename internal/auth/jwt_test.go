package auth

import (
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	name := "Admin One"
	token, err := IssueAccessToken(7, 42, RoleAdmin, "admin@example.com", &name, "test-secret", 3600)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := VerifyAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("got role %q, want %q", claims.Role, RoleAdmin)
	}
	if claims.Email != "admin@example.com" {
		t.Fatalf("got email %q", claims.Email)
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueAccessToken(7, 42, RoleAdmin, "admin@example.com", nil, "test-secret", 3600)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := VerifyAccessToken(token, "other-secret"); err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}

func TestRefreshTokenNotAcceptedAsAccessToken(t *testing.T) {
	refresh, err := IssueRefreshToken(7, 42, RoleDelivery, "courier@example.com", "test-secret", 3600)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := VerifyAccessToken(refresh, "test-secret"); err == nil {
		t.Fatal("refresh token must not pass access verification")
	}
	if _, err := VerifyRefreshToken(refresh, "test-secret"); err != nil {
		t.Fatalf("refresh verification failed: %v", err)
	}
}
