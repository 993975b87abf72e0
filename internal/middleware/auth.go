package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

type identityCtxKey struct{}

// Identity is the authenticated caller: who it is, which tenant it acts for
// and what it may do.
type Identity struct {
	Subject     string
	Tenant      tenant.Ref
	Permissions permission.Set
}

// TokenValidator turns a bearer token into an Identity.
type TokenValidator interface {
	ValidateToken(token string) (*Identity, error)
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/ready": true,
}

// Auth returns middleware that validates bearer tokens and stores the caller's
// Identity and tenant in the context. When enabled is false, every request
// runs as an administrator of the tenant chosen by the TenantID middleware.
func Auth(validator TokenValidator, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				id := &Identity{
					Subject:     "admin",
					Tenant:      TenantFromContext(r.Context()),
					Permissions: permission.Set{{Name: permission.Wildcard, Access: permission.All}},
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "authorization required")
				return
			}

			id, err := validator.ValidateToken(token)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			ctx := WithTenant(r.Context(), id.Tenant)
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// on the WebSocket endpoint where browsers cannot set headers.
func bearerToken(r *http.Request) string {
	if strings.HasSuffix(r.URL.Path, "/ws") {
		if t := r.URL.Query().Get("token"); t != "" {
			return t
		}
	}
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]string{"code": "NOT_AUTHORIZED", "message": msg},
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the authenticated caller, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityCtxKey{}).(*Identity)
	return id
}
