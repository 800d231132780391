// Package auth issues and verifies session tokens, hashes passwords and
// decides whether a caller may act on a resource.
//
// SESSION FLOW:
//  1. The client posts username/password to /auth/token (or registers).
//  2. The server verifies the password and signs a JWT carrying the username
//     and the admin flag.
//  3. The client sends it back as "Authorization: Bearer <jwt>" (or in the
//     "token" cookie) on every protected call.
//  4. Middleware verifies the signature and expiry, then stores the Claims in
//     the request context. Guards read only those Claims and never the
//     database.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"username":"alice","is_admin":false,"iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/model"
)

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

// DefaultTokenTTL is used when NewTokenService is given a non-positive ttl.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the verified identity carried by a session token.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation.
//
// Each instance owns its secret; two services built with different secrets
// reject each other's tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session token for u. The token carries the username and the
// admin flag, nothing else about the account.
func (s *TokenService) Issue(u *model.User) (string, error) {
	if u == nil || u.Username == "" {
		return "", errors.New("auth: cannot issue a token without a username")
	}
	return s.issue(u.Username, u.IsAdmin, s.ttl)
}

func (s *TokenService) issue(username string, isAdmin bool, ttl time.Duration) (string, error) {
	now := s.now()

	c := Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a session token.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - the signature matches this service's secret
//   - the algorithm is HS256 (no "none", no RS/HS confusion)
//   - exp is present and in the future
//
// Every failure is reported as apperror.ErrUnauthenticated; the cause is kept
// out of the message.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperror.Unauthenticated("missing session token")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthenticated("session token expired")
		}
		return nil, apperror.Unauthenticated("invalid session token")
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Username == "" {
		return nil, apperror.Unauthenticated("invalid session token")
	}
	return c, nil
}
