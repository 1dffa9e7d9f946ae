package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv("SCHOOLYARD_AUTH_SECRET", "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestTokenRoundTrip(t *testing.T) {
	setSecret(t)

	token, err := GenerateToken("user-1", "org-1", []string{"Admin", "teacher", "admin"}, "", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.OrganizationID != "org-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles not deduped: %v", claims.Roles)
	}
	// Empty active role falls back to the first held role.
	if claims.ActiveRole != "admin" {
		t.Fatalf("active role = %q, want admin", claims.ActiveRole)
	}
}

func TestGenerateTokenRejectsBadInput(t *testing.T) {
	setSecret(t)

	if _, err := GenerateToken("", "org-1", []string{"admin"}, "admin", time.Minute); err == nil {
		t.Fatal("empty user id accepted")
	}
	if _, err := GenerateToken("user-1", "", []string{"admin"}, "admin", time.Minute); !errors.Is(err, ErrMissingOrganization) {
		t.Fatalf("empty org: got %v, want ErrMissingOrganization", err)
	}
	if _, err := GenerateToken("user-1", "org-1", nil, "", time.Minute); err == nil {
		t.Fatal("empty roles accepted")
	}
	if _, err := GenerateToken("user-1", "org-1", []string{"teacher"}, "admin", time.Minute); err == nil {
		t.Fatal("unheld active role accepted")
	}
	if _, err := GenerateToken("user-1", "org-1", []string{"teacher"}, "teacher", 0); err == nil {
		t.Fatal("zero ttl accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	setSecret(t)
	token, err := GenerateToken("user-1", "org-1", []string{"admin"}, "admin", time.Millisecond)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	setSecret(t)
	token, err := GenerateToken("user-1", "org-1", []string{"admin"}, "admin", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := ParseAndValidate(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: got %v, want ErrInvalidToken", err)
	}
	if _, err := ParseAndValidate(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("blank token: got %v, want ErrInvalidToken", err)
	}
}

// A structurally valid token without an org claim must map to
// ErrMissingOrganization, never to a default tenant.
func TestTokenWithoutOrganizationRejected(t *testing.T) {
	setSecret(t)
	now := time.Now().UTC()
	claims := Claims{
		Roles: []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndValidate(signed); !errors.Is(err, ErrMissingOrganization) {
		t.Fatalf("missing org claim: got %v, want ErrMissingOrganization", err)
	}
}

func TestMissingSecretFailsClosed(t *testing.T) {
	t.Setenv("SCHOOLYARD_AUTH_SECRET", "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
	if _, err := GenerateToken("user-1", "org-1", []string{"admin"}, "admin", time.Minute); err == nil {
		t.Fatal("token issued without a configured secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-enough")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-enough" {
		t.Fatal("password stored in the clear")
	}
	if err := VerifyPassword(hash, "s3cret-enough"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatal("empty password accepted")
	}
	if err := VerifyPassword("", "anything"); err == nil {
		t.Fatal("empty hash accepted")
	}
}

func TestPrincipalHoldsRole(t *testing.T) {
	p := Principal{Roles: []string{"admin", "teacher"}}
	if !p.HoldsRole("ADMIN") || !p.HoldsRole(" teacher ") {
		t.Fatal("held roles not recognized")
	}
	if p.HoldsRole("guardian") {
		t.Fatal("unheld role reported as held")
	}
}
