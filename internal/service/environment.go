// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/ContentForge/internal/adapter/otel"
	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/broadcast"
	"github.com/Strob0t/ContentForge/internal/port/cache"
	"github.com/Strob0t/ContentForge/internal/port/database"
	"github.com/Strob0t/ContentForge/internal/port/datamanager"
)

// EnvironmentService enforces the environment lifecycle: creation from a
// source environment, dirty-field updates that touch aliases, and deletion
// guarded by alias references. Content is moved by the data manager.
type EnvironmentService struct {
	store    database.Store
	data     datamanager.Manager
	cache    cache.Cache
	cacheTTL time.Duration
	hub      broadcast.Broadcaster
	metrics  *cfotel.Metrics
	now      func() time.Time
}

// NewEnvironmentService creates a new EnvironmentService.
func NewEnvironmentService(store database.Store, data datamanager.Manager) *EnvironmentService {
	return &EnvironmentService{store: store, data: data, now: time.Now}
}

// SetCache enables the environment read cache.
func (s *EnvironmentService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetBroadcaster sets the optional live event broadcaster.
func (s *EnvironmentService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetMetrics sets the optional metric instruments.
func (s *EnvironmentService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// List returns all environments of the tenant in storage order.
func (s *EnvironmentService) List(ctx context.Context) ([]environment.Environment, error) {
	return s.store.ListEnvironments(ctx)
}

// Get returns an environment by ID.
func (s *EnvironmentService) Get(ctx context.Context, id string) (*environment.Environment, error) {
	if env, ok := s.cached(ctx, id); ok {
		return env, nil
	}
	env, err := s.store.GetEnvironment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get environment %s: %w", id, err)
	}
	s.remember(ctx, env)
	return env, nil
}

// Create validates req and stores a new environment. Unless initial, it is
// cloned from req.CreatedFrom: the content copy runs after the record is
// stored. If the copy fails the stored environment is returned together with
// the error and its status is copy_failed; RetryCopy repairs it.
func (s *EnvironmentService) Create(ctx context.Context, req environment.CreateRequest, createdBy tenant.Ref, initial bool) (*environment.Environment, error) {
	ctx, span := cfotel.StartEnvironmentSpan(ctx, "environment.create", "")
	defer span.End()

	if err := req.Validate(initial); err != nil {
		return nil, err
	}
	slug := req.ResolveSlug()

	existing, err := s.store.ListEnvironments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}

	var source *environment.Environment
	if !initial {
		if len(existing) == 0 {
			return nil, fmt.Errorf("there are no environments in the database: %w", domain.ErrValidation)
		}
		for i := range existing {
			if existing[i].ID == req.CreatedFrom {
				src := existing[i]
				source = &src
				break
			}
		}
		if source == nil {
			return nil, fmt.Errorf("base environment (createdFrom field) not set or environment %q does not exist: %w",
				req.CreatedFrom, domain.ErrValidation)
		}
	}

	for i := range existing {
		if existing[i].Slug == slug {
			return nil, fmt.Errorf("environment with slug %q already exists: %w", slug, domain.ErrValidation)
		}
	}

	env := &environment.Environment{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		CreatedFrom: source,
		CreatedOn:   s.now().UTC(),
		CreatedBy:   createdBy,
		Status:      environment.StatusReady,
	}
	if source != nil {
		env.Status = environment.StatusPending
	}
	span.SetAttributes(cfotel.EnvironmentAttr(env.ID))

	if err := s.store.CreateEnvironment(ctx, env); err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}
	s.count(ctx, "create")
	slog.InfoContext(ctx, "environment created", "environment_id", env.ID, "slug", env.Slug, "created_from", env.CreatedFromID())
	s.broadcast(ctx, broadcast.EventEnvironmentCreated, env)

	if source == nil {
		return env, nil
	}

	if err := s.data.CopyEnvironment(ctx, source.ID, env.ID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "environment content copy failed", "environment_id", env.ID, "from", source.ID, "error", err)
		s.recordCopyFailure(ctx, env, err)
		return env, fmt.Errorf("copy content from %s to %s: %w", source.ID, env.ID, err)
	}
	if fresh, err := s.store.GetEnvironment(ctx, env.ID); err == nil {
		env = fresh
	}
	return env, nil
}

// Update changes name and description. Only fields that differ from the stored
// record are written; when nothing differs the result is empty and nothing is
// written. Otherwise the environment and every alias pointing at it get a new
// changedOn in one transaction.
func (s *EnvironmentService) Update(ctx context.Context, id string, req environment.UpdateRequest) (environment.Changes, error) {
	ctx, span := cfotel.StartEnvironmentSpan(ctx, "environment.update", id)
	defer span.End()

	if err := req.Validate(); err != nil {
		return environment.Changes{}, err
	}
	current, err := s.store.GetEnvironment(ctx, id)
	if err != nil {
		return environment.Changes{}, fmt.Errorf("get environment %s: %w", id, err)
	}

	changes := environment.Diff(current, req)
	if changes.IsEmpty() {
		return environment.Changes{}, nil
	}
	now := s.now().UTC()
	changes.ChangedOn = &now

	touched, err := s.store.UpdateEnvironment(ctx, id, changes)
	if err != nil {
		return environment.Changes{}, fmt.Errorf("update environment %s: %w", id, err)
	}
	s.forget(ctx, id)
	s.count(ctx, "update")
	slog.InfoContext(ctx, "environment updated", "environment_id", id, "aliases_touched", touched)

	updated := changes.Apply(*current)
	s.broadcast(ctx, broadcast.EventEnvironmentUpdated, &updated)
	return changes, nil
}

// Delete removes an environment that no alias points at, then deletes its
// content. A failure of the content delete is returned after the record is
// already gone.
func (s *EnvironmentService) Delete(ctx context.Context, id string) error {
	ctx, span := cfotel.StartEnvironmentSpan(ctx, "environment.delete", id)
	defer span.End()

	env, err := s.store.GetEnvironment(ctx, id)
	if err != nil {
		return fmt.Errorf("get environment %s: %w", id, err)
	}

	aliases, err := s.store.ListAliases(ctx)
	if err != nil {
		return fmt.Errorf("list aliases: %w", err)
	}
	if names := environment.AliasNames(aliases, id); len(names) > 0 {
		return &domain.DetailError{
			Err:     domain.ErrConflict,
			Message: fmt.Sprintf("cannot delete the environment because it's currently linked to the %q environment aliases", strings.Join(names, ", ")),
			Data:    map[string]any{"aliases": names},
		}
	}

	if err := s.store.DeleteEnvironment(ctx, id); err != nil {
		return fmt.Errorf("delete environment %s: %w", id, err)
	}
	s.forget(ctx, id)
	s.count(ctx, "delete")
	slog.InfoContext(ctx, "environment deleted", "environment_id", id, "slug", env.Slug)
	s.broadcast(ctx, broadcast.EventEnvironmentDeleted, env)

	if err := s.data.DeleteEnvironment(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "environment content delete failed", "environment_id", id, "error", err)
		return fmt.Errorf("delete content of %s: %w", id, err)
	}
	return nil
}

// RetryCopy runs the content copy of a cloned environment again. Copying is
// idempotent, so retrying after a partial copy is safe.
func (s *EnvironmentService) RetryCopy(ctx context.Context, id string) (*environment.Environment, error) {
	ctx, span := cfotel.StartEnvironmentSpan(ctx, "environment.retry_copy", id)
	defer span.End()

	env, err := s.store.GetEnvironment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get environment %s: %w", id, err)
	}
	from := env.CreatedFromID()
	if from == "" {
		return nil, fmt.Errorf("environment %s was not created from another environment: %w", id, domain.ErrValidation)
	}
	if _, err := s.store.GetEnvironment(ctx, from); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("source environment %s no longer exists: %w", from, domain.ErrValidation)
		}
		return nil, fmt.Errorf("get environment %s: %w", from, err)
	}

	if err := s.MarkStatus(ctx, id, environment.StatusPending); err != nil {
		return nil, err
	}
	env.Status = environment.StatusPending

	if err := s.data.CopyEnvironment(ctx, from, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.recordCopyFailure(ctx, env, err)
		return env, fmt.Errorf("copy content from %s to %s: %w", from, id, err)
	}
	if fresh, err := s.store.GetEnvironment(ctx, id); err == nil {
		env = fresh
	}
	return env, nil
}

// MarkStatus records the copy status of an environment.
func (s *EnvironmentService) MarkStatus(ctx context.Context, id string, status environment.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown status %q: %w", status, domain.ErrValidation)
	}
	if err := s.store.SetEnvironmentStatus(ctx, id, status); err != nil {
		return fmt.Errorf("set status of %s: %w", id, err)
	}
	s.forget(ctx, id)
	s.broadcast(ctx, broadcast.EventEnvironmentStatus, map[string]string{"id": id, "status": string(status)})
	return nil
}

// recordCopyFailure marks env copy_failed unless the data manager already did.
func (s *EnvironmentService) recordCopyFailure(ctx context.Context, env *environment.Environment, copyErr error) {
	env.Status = environment.StatusCopyFailed
	if statusRecorded(copyErr) {
		return
	}
	if err := s.MarkStatus(ctx, env.ID, environment.StatusCopyFailed); err != nil {
		slog.ErrorContext(ctx, "failed to record copy failure", "environment_id", env.ID, "error", err)
	}
}

func (s *EnvironmentService) count(ctx context.Context, op string) {
	if s.metrics != nil {
		s.metrics.EnvironmentOps.Add(ctx, 1, cfotel.OperationAttrs(op))
	}
}

func (s *EnvironmentService) broadcast(ctx context.Context, eventType string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, eventType, payload)
	}
}

func envCacheKey(ctx context.Context, id string) string {
	return "env:" + middleware.TenantIDFromContext(ctx) + ":" + id
}

func (s *EnvironmentService) cached(ctx context.Context, id string) (*environment.Environment, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, envCacheKey(ctx, id))
	if err != nil || !ok {
		return nil, false
	}
	var env environment.Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return &env, true
}

func (s *EnvironmentService) remember(ctx context.Context, env *environment.Environment) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, envCacheKey(ctx, env.ID), data, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "environment cache set failed", "environment_id", env.ID, "error", err)
	}
}

func (s *EnvironmentService) forget(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, envCacheKey(ctx, id)); err != nil {
		slog.WarnContext(ctx, "environment cache delete failed", "environment_id", id, "error", err)
	}
}
