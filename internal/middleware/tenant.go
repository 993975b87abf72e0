package middleware

import (
	"context"
	"net/http"

	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/logger"
)

// DefaultTenantID is the single-tenant default used when no X-Tenant-ID header is set.
const DefaultTenantID = tenant.DefaultID

const (
	headerTenantID   = "X-Tenant-ID"
	headerTenantName = "X-Tenant-Name"
)

type tenantCtxKey struct{}

// TenantID is middleware that extracts the tenant from the X-Tenant-ID and
// X-Tenant-Name headers and stores it in the request context. Falls back to
// the default tenant if absent.
func TenantID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := tenant.Default()
		if tid := r.Header.Get(headerTenantID); tid != "" {
			ref = tenant.Ref{ID: tid, Name: r.Header.Get(headerTenantName)}
			if ref.Name == "" {
				ref.Name = tid
			}
		}
		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), ref)))
	})
}

// WithTenant returns a copy of ctx scoped to the given tenant, whose log
// records carry tenant_id. Queue consumers use it to restore the publisher's
// tenant.
func WithTenant(ctx context.Context, ref tenant.Ref) context.Context {
	ctx = logger.WithTenantID(ctx, ref.ID)
	return context.WithValue(ctx, tenantCtxKey{}, ref)
}

// TenantFromContext returns the tenant stored in ctx, or the default tenant.
func TenantFromContext(ctx context.Context) tenant.Ref {
	if ref, ok := ctx.Value(tenantCtxKey{}).(tenant.Ref); ok {
		return ref
	}
	return tenant.Default()
}

// TenantIDFromContext returns the tenant ID stored in ctx, or DefaultTenantID if absent.
func TenantIDFromContext(ctx context.Context) string {
	return TenantFromContext(ctx).ID
}
