package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
)

// Required access per operation.
var (
	AccessRead   = permission.Read
	AccessCreate = permission.Write
	AccessUpdate = permission.Read | permission.Write
	AccessDelete = permission.Read | permission.Delete
)

// Grant is the outcome of a successful permission check. It remembers
// whether the caller is restricted to its own records.
type Grant struct {
	Name     string
	Own      bool
	TenantID string
}

// Authorize resolves the caller's permission for name and checks that it
// covers required. A missing identity or permission denies.
func Authorize(ctx context.Context, name string, required permission.Access) (Grant, error) {
	id := middleware.IdentityFromContext(ctx)
	if id == nil {
		return Grant{}, fmt.Errorf("no identity: %w", domain.ErrNotAuthorized)
	}
	p := id.Permissions.Lookup(name)
	if !p.Allows(required) {
		return Grant{}, fmt.Errorf("%s requires %q access: %w", name, required, domain.ErrNotAuthorized)
	}
	return Grant{Name: name, Own: p.Own, TenantID: middleware.TenantIDFromContext(ctx)}, nil
}

// Permits reports whether the grant covers a record created by owner.
func (g Grant) Permits(owner tenant.Ref) bool {
	return !g.Own || owner.ID == g.TenantID
}

// CheckOwner rejects single-record access outside an own-scoped grant.
func (g Grant) CheckOwner(owner tenant.Ref) error {
	if !g.Permits(owner) {
		return fmt.Errorf("%s is limited to own records: %w", g.Name, domain.ErrNotAuthorized)
	}
	return nil
}

// FilterOwned keeps the items an own-scoped grant may see. Unrestricted
// grants return items unchanged.
func FilterOwned[T any](g Grant, items []T, owner func(*T) tenant.Ref) []T {
	if !g.Own {
		return items
	}
	out := make([]T, 0, len(items))
	for i := range items {
		if g.Permits(owner(&items[i])) {
			out = append(out, items[i])
		}
	}
	return out
}
