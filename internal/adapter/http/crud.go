package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/ContentForge/internal/domain/permission"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/service"
)

// ---------------------------------------------------------------------------
// Generic CRUD handler factories
// ---------------------------------------------------------------------------

// resource describes a permission-guarded record type addressed by the URL
// param "id".
type resource[T any] struct {
	permission string
	get        func(ctx context.Context, id string) (*T, error)
	owner      func(*T) tenant.Ref
}

// load authorizes required, reads the record named by the URL and checks
// that an own-scoped grant may touch it. It writes the error response itself.
func (res resource[T]) load(w http.ResponseWriter, r *http.Request, required permission.Access) (*T, bool) {
	grant, err := service.Authorize(r.Context(), res.permission, required)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	item, err := res.get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	if err := grant.CheckOwner(res.owner(item)); err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return item, true
}

// handleList creates a handler that lists resources and filters them by the
// caller's grant.
func handleList[T any](res resource[T], listFn func(ctx context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grant, err := service.Authorize(r.Context(), res.permission, service.AccessRead)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		items, err := listFn(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		items = service.FilterOwned(grant, items, res.owner)
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleGet creates a handler that retrieves a single resource.
func handleGet[T any](res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := res.load(w, r, service.AccessRead)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleCreate creates a handler that decodes a JSON body and creates a
// resource owned by the request tenant.
func handleCreate[Req any, Res any](perm string, createFn func(ctx context.Context, req Req, createdBy tenant.Ref) (*Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := service.Authorize(r.Context(), perm, service.AccessCreate); err != nil {
			writeDomainError(w, r, err)
			return
		}
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		created, err := createFn(r.Context(), req, tenantRef(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// changeSet is a set of dirty fields that can be merged into a record.
type changeSet[T any] interface {
	Apply(T) T
}

// handleUpdate creates a handler that decodes a JSON body and updates the
// resource named by the URL. The response is the stored record with the
// changes merged in.
func handleUpdate[T any, Req any, C changeSet[T]](res resource[T], updateFn func(ctx context.Context, id string, req Req) (C, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := res.load(w, r, service.AccessUpdate)
		if !ok {
			return
		}
		req, ok := readJSON[Req](w, r)
		if !ok {
			return
		}
		changes, err := updateFn(r.Context(), urlParam(r, "id"), req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, changes.Apply(*current))
	}
}

// handleDelete creates a handler that deletes the resource named by the URL
// and responds with the deleted record.
func handleDelete[T any](res resource[T], deleteFn func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := res.load(w, r, service.AccessDelete)
		if !ok {
			return
		}
		if err := deleteFn(r.Context(), urlParam(r, "id")); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}
