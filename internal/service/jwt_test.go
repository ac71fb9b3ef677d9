package service

import (
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	jwtSecret = []byte("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	jwtSecret = []byte("test-secret")

	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	jwtSecret = []byte("secret-a")
	token, err := GenerateJWT(7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	jwtSecret = []byte("secret-b")
	if _, err := ParseJWT(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}
