package service

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu      sync.Mutex
	envs    []environment.Environment
	aliases []environment.Alias
	models  []contentmodel.Model

	writes        int
	statusHistory []environment.Status

	// Error hooks, set these to inject failures.
	listEnvsErr  error
	createEnvErr error
	updateEnvErr error
	deleteEnvErr error
	copyErr      error
}

func (m *mockStore) ListEnvironments(_ context.Context) ([]environment.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listEnvsErr != nil {
		return nil, m.listEnvsErr
	}
	out := make([]environment.Environment, len(m.envs))
	copy(out, m.envs)
	return out, nil
}

func (m *mockStore) GetEnvironment(_ context.Context, id string) (*environment.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.envs {
		if m.envs[i].ID == id {
			e := m.envs[i]
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateEnvironment(_ context.Context, env *environment.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createEnvErr != nil {
		return m.createEnvErr
	}
	m.writes++
	m.envs = append(m.envs, *env)
	return nil
}

func (m *mockStore) UpdateEnvironment(_ context.Context, id string, changes environment.Changes) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateEnvErr != nil {
		return 0, m.updateEnvErr
	}
	m.writes++
	found := false
	for i := range m.envs {
		if m.envs[i].ID == id {
			m.envs[i] = changes.Apply(m.envs[i])
			found = true
		}
	}
	if !found {
		return 0, domain.ErrNotFound
	}
	var touched int64
	for i := range m.aliases {
		if m.aliases[i].EnvironmentID == id {
			t := *changes.ChangedOn
			m.aliases[i].ChangedOn = &t
			touched++
		}
	}
	return touched, nil
}

func (m *mockStore) SetEnvironmentStatus(_ context.Context, id string, status environment.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.envs {
		if m.envs[i].ID == id {
			m.envs[i].Status = status
			m.statusHistory = append(m.statusHistory, status)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteEnvironment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteEnvErr != nil {
		return m.deleteEnvErr
	}
	for i := range m.envs {
		if m.envs[i].ID == id {
			m.writes++
			m.envs = append(m.envs[:i], m.envs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListAliases(_ context.Context) ([]environment.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]environment.Alias, len(m.aliases))
	copy(out, m.aliases)
	return out, nil
}

func (m *mockStore) GetAlias(_ context.Context, id string) (*environment.Alias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.aliases {
		if m.aliases[i].ID == id {
			a := m.aliases[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateAlias(_ context.Context, a *environment.Alias) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.aliases = append(m.aliases, *a)
	return nil
}

func (m *mockStore) UpdateAlias(_ context.Context, id string, changes environment.AliasChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.aliases {
		if m.aliases[i].ID == id {
			m.writes++
			m.aliases[i] = changes.Apply(m.aliases[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteAlias(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.aliases {
		if m.aliases[i].ID == id {
			m.writes++
			m.aliases = append(m.aliases[:i], m.aliases[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListContentModels(_ context.Context, environmentID string) ([]contentmodel.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []contentmodel.Model
	for i := range m.models {
		if m.models[i].EnvironmentID == environmentID {
			out = append(out, m.models[i])
		}
	}
	return out, nil
}

func (m *mockStore) CreateContentModel(_ context.Context, cm *contentmodel.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.models {
		if m.models[i].EnvironmentID == cm.EnvironmentID && m.models[i].ModelID == cm.ModelID {
			return domain.ErrConflict
		}
	}
	m.models = append(m.models, *cm)
	return nil
}

func (m *mockStore) DeleteContentModel(_ context.Context, environmentID, modelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.models {
		if m.models[i].EnvironmentID == environmentID && m.models[i].ModelID == modelID {
			m.models = append(m.models[:i], m.models[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CopyContentModels(_ context.Context, from, to string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return 0, m.copyErr
	}
	present := make(map[string]bool)
	for i := range m.models {
		if m.models[i].EnvironmentID == to {
			present[m.models[i].ModelID] = true
		}
	}
	var n int64
	for i := range m.models {
		src := m.models[i]
		if src.EnvironmentID != from || present[src.ModelID] {
			continue
		}
		src.ID = src.ID + "-" + to
		src.EnvironmentID = to
		m.models = append(m.models, src)
		n++
	}
	return n, nil
}

func (m *mockStore) DeleteContentModels(_ context.Context, environmentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.models[:0]
	var n int64
	for i := range m.models {
		if m.models[i].EnvironmentID == environmentID {
			n++
			continue
		}
		kept = append(kept, m.models[i])
	}
	m.models = kept
	return n, nil
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

// mockDataManager records calls to datamanager.Manager.
type mockDataManager struct {
	copies  [][2]string
	deletes []string

	copyErr   error
	deleteErr error
}

func (d *mockDataManager) CopyEnvironment(_ context.Context, from, to string) error {
	d.copies = append(d.copies, [2]string{from, to})
	return d.copyErr
}

func (d *mockDataManager) DeleteEnvironment(_ context.Context, environmentID string) error {
	d.deletes = append(d.deletes, environmentID)
	return d.deleteErr
}

// mockBroadcaster records broadcast event types.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

// memCache is a map-backed cache.Cache.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.data, key)
	return nil
}

// fakeClock returns a strictly increasing time on every call.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}
