package auth

import (
	"testing"
	"time"
)

func TestMintAndParseRoundTrip(t *testing.T) {
	m := NewJWTManager("microloan-backend", "microloan-clients", "test-signing-key")

	token, err := m.Mint("rBorrowerBorrowerBorrowerBorr", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Address != "rBorrowerBorrowerBorrowerBorr" {
		t.Fatalf("address = %q", claims.Address)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("session id = %q", claims.SessionID)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	minted := NewJWTManager("microloan-backend", "microloan-clients", "key-a")
	verifier := NewJWTManager("microloan-backend", "microloan-clients", "key-b")

	token, err := minted.Mint("rAddr111111111111111111111", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected signature verification failure")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	minted := NewJWTManager("other-service", "microloan-clients", "shared-key")
	verifier := NewJWTManager("microloan-backend", "microloan-clients", "shared-key")

	token, err := minted.Mint("rAddr111111111111111111111", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected issuer rejection")
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	minted := NewJWTManager("microloan-backend", "other-clients", "shared-key")
	verifier := NewJWTManager("microloan-backend", "microloan-clients", "shared-key")

	token, err := minted.Mint("rAddr111111111111111111111", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected audience rejection")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("microloan-backend", "microloan-clients", "shared-key")

	token, err := m.Mint("rAddr111111111111111111111", "sess-1", -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewJWTManager("microloan-backend", "microloan-clients", "shared-key")
	if _, err := m.Parse("not.a.token"); err == nil {
		t.Fatalf("expected parse failure")
	}
}
