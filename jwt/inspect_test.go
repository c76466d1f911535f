package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestInspectReadsRegisteredClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signHS256(t, jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    "eventregs",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if claims.Subject != "user-42" || claims.Issuer != "eventregs" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, claims.ExpiresAt)
	}
	if claims.Expired(time.Now()) {
		t.Fatal("token must not be reported expired")
	}
	if !claims.Expired(exp.Add(time.Second)) {
		t.Fatal("token must be reported expired after exp")
	}
}

func TestInspectAcceptsExpiredTokens(t *testing.T) {
	token := signHS256(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("expired tokens are still inspectable, got %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestInspectRejectsOpaqueTokens(t *testing.T) {
	for _, token := range []string{"", "opaque-token", "a.b", "a.b.c"} {
		if _, err := Inspect(token); !errors.Is(err, ErrNotJWT) {
			t.Fatalf("token %q: expected ErrNotJWT, got %v", token, err)
		}
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	if (Claims{}).Expired(time.Now()) {
		t.Fatal("zero expiry must not be expired")
	}
}
