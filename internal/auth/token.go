package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// Identity is the authenticated caller as carried through a request.
type Identity struct {
	Username string
	Roles    []string
}

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry}
}

func (i *TokenIssuer) Issue(username string, roles []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.expiry)
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, cerr.NewError(cerr.Internal, "server error", err)
	}
	return token, expiresAt, nil
}

func (i *TokenIssuer) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, cerr.NewError(cerr.Unauthenticated, "invalid or expired token", err)
	}
	return &Identity{Username: claims.Subject, Roles: claims.Roles}, nil
}
