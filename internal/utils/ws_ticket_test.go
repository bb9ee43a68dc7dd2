package utils

import (
	"testing"
	"time"
)

func TestWSTicketRoundTrip(t *testing.T) {
	secret := "test-secret"
	ticket := CreateWSTicket(secret, 42, "ADMIN", time.Minute)

	userID, role, ok := VerifyWSTicket(secret, ticket)
	if !ok {
		t.Fatalf("expected ticket to verify")
	}
	if userID != 42 || role != "ADMIN" {
		t.Fatalf("expected 42/ADMIN, got %d/%s", userID, role)
	}
}

func TestWSTicketRejectsTampering(t *testing.T) {
	secret := "test-secret"
	ticket := CreateWSTicket(secret, 42, "ADMIN", time.Minute)

	if _, _, ok := VerifyWSTicket("other-secret", ticket); ok {
		t.Fatalf("wrong secret must not verify")
	}
	if _, _, ok := VerifyWSTicket(secret, ticket+"x"); ok {
		t.Fatalf("mangled signature must not verify")
	}
	if _, _, ok := VerifyWSTicket(secret, "not-a-ticket"); ok {
		t.Fatalf("malformed ticket must not verify")
	}
}

func TestWSTicketExpires(t *testing.T) {
	secret := "test-secret"
	ticket := CreateWSTicket(secret, 42, "ADMIN", -time.Second)
	if _, _, ok := VerifyWSTicket(secret, ticket); ok {
		t.Fatalf("expired ticket must not verify")
	}
}
