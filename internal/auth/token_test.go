package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, expiresAt, err := issuer.Issue("alice", []string{"pi", "researcher"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("Expected a future expiry")
	}

	id, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Failed to verify token: %v", err)
	}
	if id.Username != "alice" {
		t.Errorf("Expected username alice, got %s", id.Username)
	}
	if len(id.Roles) != 2 || id.Roles[0] != "pi" {
		t.Errorf("Unexpected roles: %v", id.Roles)
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Hour)

	token, _, err := issuer.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if _, err := issuer.Verify(token); !cerr.IsCode(err, cerr.Unauthenticated) {
		t.Errorf("Expected Unauthenticated for expired token, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, _, err := issuer.Issue("alice", nil)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if _, err := other.Verify(token); !cerr.IsCode(err, cerr.Unauthenticated) {
		t.Errorf("Expected Unauthenticated for wrong secret, got %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(token); !cerr.IsCode(err, cerr.Unauthenticated) {
			t.Errorf("Verify(%q): expected Unauthenticated, got %v", token, err)
		}
	}
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build forged token: %v", err)
	}
	if _, err := issuer.Verify(forged); !cerr.IsCode(err, cerr.Unauthenticated) {
		t.Errorf("Expected Unauthenticated for alg=none token, got %v", err)
	}
}
