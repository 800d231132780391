package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xjohnsondev/primal-backend/internal/apperror"
	"github.com/xjohnsondev/primal-backend/internal/model"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

var alice = &model.User{ID: 1, Username: "alice", Email: "alice@example.com"}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

func TestNewTokenService_ZeroTTLUsesDefault(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	if ts.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", ts.ttl, DefaultTokenTTL)
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssue_ReturnsJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(alice)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if n := strings.Count(token, "."); n != 2 {
		t.Errorf("Issue() token doesn't look like a JWT (expected 2 dots, got %d)", n)
	}
}

func TestIssue_RejectsMissingUsername(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.Issue(nil); err == nil {
		t.Error("Issue(nil) should fail")
	}
	if _, err := ts.Issue(&model.User{}); err == nil {
		t.Error("Issue() with an empty username should fail")
	}
}

// =========================================================================
// VERIFY TESTS
// =========================================================================

func TestVerify_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, u := range []*model.User{alice, {Username: "root", IsAdmin: true}} {
		token, err := ts.Issue(u)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		got, err := ts.Verify(token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if got.Username != u.Username || got.IsAdmin != u.IsAdmin {
			t.Errorf("Verify() = {%q, %v}, want {%q, %v}", got.Username, got.IsAdmin, u.Username, u.IsAdmin)
		}
		if got.ExpiresAt == nil || got.IssuedAt == nil {
			t.Error("Verify() claims should carry iat and exp")
		}
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.issue("alice", false, -time.Second)
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	_, err = ts.Verify(token)
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Verify() error = %v, want ErrUnauthenticated", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Issue(alice)
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.Verify(tampered); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Verify() error = %v, want ErrUnauthenticated", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", time.Hour)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)

	token, _ := ts1.Issue(alice)

	if _, err := ts2.Verify(token); err == nil {
		t.Fatal("Verify() should fail when using a different secret")
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	ts := newTestTokenService(t)

	c := Claims{
		Username: "mallory",
		IsAdmin:  true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing with none: %v", err)
	}

	if _, err := ts.Verify(token); err == nil {
		t.Fatal("Verify() must reject alg=none tokens")
	}
}

func TestVerify_RequiresExpiry(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "alice"}).SignedString(ts.secret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ts.Verify(token); err == nil {
		t.Fatal("Verify() must reject tokens without exp")
	}
}

func TestVerify_EmptyAndGarbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token", "abc"} {
		if _, err := ts.Verify(in); !errors.Is(err, apperror.ErrUnauthenticated) {
			t.Errorf("Verify(%q) error = %v, want ErrUnauthenticated", in, err)
		}
	}
}
