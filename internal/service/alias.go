package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/port/broadcast"
	"github.com/Strob0t/ContentForge/internal/port/database"
)

// AliasService manages environment aliases.
type AliasService struct {
	store database.Store
	hub   broadcast.Broadcaster
	now   func() time.Time
}

// NewAliasService creates a new AliasService.
func NewAliasService(store database.Store) *AliasService {
	return &AliasService{store: store, now: time.Now}
}

// SetBroadcaster sets the optional live event broadcaster.
func (s *AliasService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// List returns all aliases of the tenant.
func (s *AliasService) List(ctx context.Context) ([]environment.Alias, error) {
	return s.store.ListAliases(ctx)
}

// Get returns an alias by ID.
func (s *AliasService) Get(ctx context.Context, id string) (*environment.Alias, error) {
	a, err := s.store.GetAlias(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get alias %s: %w", id, err)
	}
	return a, nil
}

// Create stores a new alias pointing at an existing environment.
func (s *AliasService) Create(ctx context.Context, req environment.CreateAliasRequest, createdBy tenant.Ref) (*environment.Alias, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireEnvironment(ctx, req.Environment); err != nil {
		return nil, err
	}

	slug := req.ResolveSlug()
	existing, err := s.store.ListAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	for i := range existing {
		if existing[i].Slug == slug {
			return nil, fmt.Errorf("environment alias with slug %q already exists: %w", slug, domain.ErrValidation)
		}
	}

	a := &environment.Alias{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Slug:          slug,
		Description:   req.Description,
		EnvironmentID: req.Environment,
		CreatedOn:     s.now().UTC(),
		CreatedBy:     createdBy,
	}
	if err := s.store.CreateAlias(ctx, a); err != nil {
		return nil, fmt.Errorf("create alias: %w", err)
	}
	slog.InfoContext(ctx, "environment alias created", "alias_id", a.ID, "environment_id", a.EnvironmentID)
	s.broadcast(ctx, a)
	return a, nil
}

// Update changes name, description or target environment. Like environment
// updates, only differing fields are written and an empty result means no write.
func (s *AliasService) Update(ctx context.Context, id string, req environment.UpdateAliasRequest) (environment.AliasChanges, error) {
	if err := req.Validate(); err != nil {
		return environment.AliasChanges{}, err
	}
	current, err := s.store.GetAlias(ctx, id)
	if err != nil {
		return environment.AliasChanges{}, fmt.Errorf("get alias %s: %w", id, err)
	}

	changes := environment.DiffAlias(current, req)
	if changes.IsEmpty() {
		return environment.AliasChanges{}, nil
	}
	if changes.EnvironmentID != nil {
		if err := s.requireEnvironment(ctx, *changes.EnvironmentID); err != nil {
			return environment.AliasChanges{}, err
		}
	}
	now := s.now().UTC()
	changes.ChangedOn = &now

	if err := s.store.UpdateAlias(ctx, id, changes); err != nil {
		return environment.AliasChanges{}, fmt.Errorf("update alias %s: %w", id, err)
	}
	updated := changes.Apply(*current)
	s.broadcast(ctx, &updated)
	return changes, nil
}

// Delete removes an alias.
func (s *AliasService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAlias(ctx, id); err != nil {
		return fmt.Errorf("delete alias %s: %w", id, err)
	}
	slog.InfoContext(ctx, "environment alias deleted", "alias_id", id)
	s.broadcast(ctx, map[string]string{"id": id, "deleted": "true"})
	return nil
}

func (s *AliasService) requireEnvironment(ctx context.Context, id string) error {
	if _, err := s.store.GetEnvironment(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("environment %q does not exist: %w", id, domain.ErrValidation)
		}
		return fmt.Errorf("get environment %s: %w", id, err)
	}
	return nil
}

func (s *AliasService) broadcast(ctx context.Context, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventAliasChanged, payload)
	}
}
