package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Strob0t/ContentForge/internal/config"
	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
)

// TokenClaims is the JWT payload of an access token.
type TokenClaims struct {
	TenantID    string         `json:"tenant_id"`
	TenantName  string         `json:"tenant_name"`
	Permissions permission.Set `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from the auth config.
func NewTokenIssuer(cfg *config.Auth) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue returns a signed token for subject acting as t with perms. A zero ttl
// uses the configured lifetime.
func (s *TokenIssuer) Issue(subject string, t tenant.Ref, perms permission.Set, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required: %w", domain.ErrValidation)
	}
	if t.ID == "" {
		return "", fmt.Errorf("tenant id is required: %w", domain.ErrValidation)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	claims := TokenClaims{
		TenantID:    t.ID,
		TenantName:  t.Name,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses token and returns the identity it carries.
func (s *TokenIssuer) ValidateToken(token string) (*middleware.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid || claims.TenantID == "" {
		return nil, errors.New("invalid token claims")
	}
	name := claims.TenantName
	if name == "" {
		name = claims.TenantID
	}
	return &middleware.Identity{
		Subject:     claims.Subject,
		Tenant:      tenant.Ref{ID: claims.TenantID, Name: name},
		Permissions: claims.Permissions,
	}, nil
}
