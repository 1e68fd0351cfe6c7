package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret-key")

	token, err := m.Issue(42, user.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if token == "" {
		t.Fatal("expected non-empty token")
	}

	p, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if p.ID != 42 {
		t.Errorf("expected subject 42, got %d", p.ID)
	}

	if p.Role != user.RoleAdmin {
		t.Errorf("expected role admin, got %q", p.Role)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expiry := issuedAt.Add(TokenTTL)

	token, err := NewManager("secret", WithClock(fixedClock(issuedAt))).Issue(7, user.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"at_issue", issuedAt, false},
		{"one_second_before_expiry", expiry.Add(-time.Second), false},
		{"at_expiry", expiry, true},
		{"after_expiry", expiry.Add(time.Minute), true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager("secret", WithClock(fixedClock(tt.at))).Verify(token)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected token to verify, got %v", err)
			}
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _ := NewManager("secret1").Issue(1, user.RoleUser)

	_, err := NewManager("secret2").Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	m := NewManager("secret")

	userToken, _ := m.Issue(1, user.RoleUser)
	adminToken, _ := m.Issue(1, user.RoleAdmin)

	// splice the admin payload onto the user signature
	u := strings.Split(userToken, ".")
	a := strings.Split(adminToken, ".")
	forged := u[0] + "." + a[1] + "." + u[2]

	if _, err := m.Verify(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered payload, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	m := NewManager("secret")

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		Role: user.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := NewManager("secret").Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestVerify_NonNumericSubject(t *testing.T) {
	claims := Claims{
		Role: user.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := NewManager("secret").Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for non-numeric subject, got %v", err)
	}
}

func TestIssue_SetsExpiryOneDayAfterIssue(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token, _ := NewManager("secret", WithClock(fixedClock(issuedAt))).Issue(1, user.RoleUser)

	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}

	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != TokenTTL {
		t.Fatalf("expected exp - iat = %v, got %v", TokenTTL, got)
	}

	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}
