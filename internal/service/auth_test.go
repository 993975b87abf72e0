package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Strob0t/ContentForge/internal/config"
	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

const testSecret = "test-secret-key-for-contentforge-tokens"

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer(&config.Auth{Enabled: true, JWTSecret: testSecret, Issuer: "contentforge", TokenTTL: time.Hour})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	iss := newTestIssuer()
	perms := permission.Set{{Name: permission.ManageSetting, Access: permission.Read | permission.Write, Own: true}}

	tok, err := iss.Issue("editor", tenant.Ref{ID: "t1", Name: "Tenant One"}, perms, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := iss.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if id.Subject != "editor" || id.Tenant.ID != "t1" || id.Tenant.Name != "Tenant One" {
		t.Errorf("unexpected identity %+v", id)
	}
	p := id.Permissions.Lookup(permission.ManageSetting)
	if p == nil || p.Access != permission.Read|permission.Write || !p.Own {
		t.Errorf("unexpected permission %+v", p)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	iss := newTestIssuer()
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return issued }
	tok, err := iss.Issue("editor", tenant.Default(), nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	iss.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := iss.ValidateToken(tok); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	tok, err := newTestIssuer().Issue("editor", tenant.Default(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	other := NewTokenIssuer(&config.Auth{JWTSecret: "another-secret-another-secret-xx", Issuer: "contentforge", TokenTTL: time.Hour})
	if _, err := other.ValidateToken(tok); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestTokenIssuer_RejectsNoneAlg(t *testing.T) {
	claims := TokenClaims{
		TenantID: "t1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "contentforge",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newTestIssuer().ValidateToken(tok); err == nil {
		t.Fatal("expected error for unsigned token")
	}
}

func TestTokenIssuer_MalformedPermissions(t *testing.T) {
	claims := jwt.MapClaims{
		"tenant_id":   "t1",
		"iss":         "contentforge",
		"exp":         time.Now().Add(time.Hour).Unix(),
		"permissions": []map[string]any{{"name": "*", "rwd": true}},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newTestIssuer().ValidateToken(tok); err == nil {
		t.Fatal("expected malformed rwd to invalidate the token")
	}
}

func TestTokenIssuer_IssueValidation(t *testing.T) {
	iss := newTestIssuer()
	if _, err := iss.Issue("", tenant.Default(), nil, 0); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, err := iss.Issue("x", tenant.Ref{}, nil, 0); err == nil {
		t.Error("expected error for empty tenant")
	}
}
