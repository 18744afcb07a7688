package security

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/domain"
	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/ports"
)

func TestJWTSignAndValidateRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	now := time.Now().UTC()
	claims := ports.AuthClaims{
		UserID:    uuid.New(),
		Email:     "user@example.com",
		Role:      domain.RoleClient,
		Surface:   domain.SurfaceMarketplace,
		SessionID: uuid.New(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	token, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := signer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != claims.UserID || parsed.SessionID != claims.SessionID {
		t.Fatalf("identity claims did not round-trip: %+v", parsed)
	}
	if parsed.Role != claims.Role || parsed.Surface != claims.Surface {
		t.Fatalf("role/surface claims did not round-trip: %+v", parsed)
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	now := time.Now().UTC()
	token, err := signer.Sign(ports.AuthClaims{
		UserID:    uuid.New(),
		SessionID: uuid.New(),
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseAndValidate(token); err == nil {
		t.Fatalf("expired token should not validate")
	}
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	signerA, err := NewEphemeralJWTSigner("key-a")
	if err != nil {
		t.Fatalf("signer a: %v", err)
	}
	signerB, err := NewEphemeralJWTSigner("key-b")
	if err != nil {
		t.Fatalf("signer b: %v", err)
	}

	now := time.Now().UTC()
	token, err := signerA.Sign(ports.AuthClaims{
		UserID:    uuid.New(),
		SessionID: uuid.New(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signerB.ParseAndValidate(token); err == nil {
		t.Fatalf("token signed with another key should not validate")
	}
	if _, err := signerB.ParseAndValidate("not-a-token"); err == nil {
		t.Fatalf("garbage token should not validate")
	}
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	hash, err := h.Hash("SecurePass123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "SecurePass123!"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "wrong"); err == nil {
		t.Fatalf("wrong password should not compare")
	}
}
