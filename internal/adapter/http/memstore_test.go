package http_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/database"
)

var _ database.Store = (*memStore)(nil)

type tenantRows struct {
	envs    []environment.Environment
	aliases []environment.Alias
	models  []contentmodel.Model
}

// memStore is a tenant-partitioned in-memory database.Store.
type memStore struct {
	mu      sync.Mutex
	tenants map[string]*tenantRows
	copyErr error
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{tenants: make(map[string]*tenantRows)}
}

// rows must be called with m.mu held.
func (m *memStore) rows(ctx context.Context) *tenantRows {
	id := middleware.TenantIDFromContext(ctx)
	t, ok := m.tenants[id]
	if !ok {
		t = &tenantRows{}
		m.tenants[id] = t
	}
	return t
}

func (m *memStore) ListEnvironments(ctx context.Context) ([]environment.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	return append([]environment.Environment(nil), t.envs...), nil
}

func (m *memStore) GetEnvironment(ctx context.Context, id string) (*environment.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows(ctx).envs {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) CreateEnvironment(ctx context.Context, env *environment.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.envs {
		if t.envs[i].Slug == env.Slug {
			return domain.ErrConflict
		}
	}
	t.envs = append(t.envs, *env)
	return nil
}

func (m *memStore) UpdateEnvironment(ctx context.Context, id string, changes environment.Changes) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	found := false
	for i := range t.envs {
		if t.envs[i].ID == id {
			t.envs[i] = changes.Apply(t.envs[i])
			found = true
		}
	}
	if !found {
		return 0, domain.ErrNotFound
	}
	var touched int64
	for i := range t.aliases {
		if t.aliases[i].EnvironmentID == id {
			ts := *changes.ChangedOn
			t.aliases[i].ChangedOn = &ts
			touched++
		}
	}
	return touched, nil
}

func (m *memStore) SetEnvironmentStatus(ctx context.Context, id string, status environment.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.envs {
		if t.envs[i].ID == id {
			t.envs[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) DeleteEnvironment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.envs {
		if t.envs[i].ID == id {
			t.envs = append(t.envs[:i], t.envs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) ListAliases(ctx context.Context) ([]environment.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]environment.Alias(nil), m.rows(ctx).aliases...), nil
}

func (m *memStore) GetAlias(ctx context.Context, id string) (*environment.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows(ctx).aliases {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) CreateAlias(ctx context.Context, a *environment.Alias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	t.aliases = append(t.aliases, *a)
	return nil
}

func (m *memStore) UpdateAlias(ctx context.Context, id string, changes environment.AliasChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.aliases {
		if t.aliases[i].ID == id {
			t.aliases[i] = changes.Apply(t.aliases[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) DeleteAlias(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.aliases {
		if t.aliases[i].ID == id {
			t.aliases = append(t.aliases[:i], t.aliases[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) ListContentModels(ctx context.Context, environmentID string) ([]contentmodel.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []contentmodel.Model
	for _, cm := range m.rows(ctx).models {
		if cm.EnvironmentID == environmentID {
			out = append(out, cm)
		}
	}
	return out, nil
}

func (m *memStore) CreateContentModel(ctx context.Context, cm *contentmodel.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.models {
		if t.models[i].EnvironmentID == cm.EnvironmentID && t.models[i].ModelID == cm.ModelID {
			return domain.ErrConflict
		}
	}
	t.models = append(t.models, *cm)
	return nil
}

func (m *memStore) DeleteContentModel(ctx context.Context, environmentID, modelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	for i := range t.models {
		if t.models[i].EnvironmentID == environmentID && t.models[i].ModelID == modelID {
			t.models = append(t.models[:i], t.models[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) CopyContentModels(ctx context.Context, from, to string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return 0, m.copyErr
	}
	t := m.rows(ctx)
	present := make(map[string]bool)
	for _, cm := range t.models {
		if cm.EnvironmentID == to {
			present[cm.ModelID] = true
		}
	}
	var n int64
	for _, cm := range t.models {
		if cm.EnvironmentID != from || present[cm.ModelID] {
			continue
		}
		cm.ID += "-" + to
		cm.EnvironmentID = to
		t.models = append(t.models, cm)
		n++
	}
	return n, nil
}

func (m *memStore) DeleteContentModels(ctx context.Context, environmentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows(ctx)
	kept := t.models[:0]
	var n int64
	for _, cm := range t.models {
		if cm.EnvironmentID == environmentID {
			n++
			continue
		}
		kept = append(kept, cm)
	}
	t.models = kept
	return n, nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) setCopyErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyErr = err
}

var errBrokenCopy = errors.New("content store unavailable")
