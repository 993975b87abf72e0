package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/port/database"
)

// ContentModelService manages the content models inside an environment.
type ContentModelService struct {
	store database.Store
	now   func() time.Time
}

// NewContentModelService creates a new ContentModelService.
func NewContentModelService(store database.Store) *ContentModelService {
	return &ContentModelService{store: store, now: time.Now}
}

// List returns the content models of an environment.
func (s *ContentModelService) List(ctx context.Context, environmentID string) ([]contentmodel.Model, error) {
	if _, err := s.environment(ctx, environmentID); err != nil {
		return nil, err
	}
	return s.store.ListContentModels(ctx, environmentID)
}

// Create adds a content model to an environment. Environments still waiting
// for their content copy reject writes, the copy would skip the new model's
// source twin otherwise.
func (s *ContentModelService) Create(ctx context.Context, environmentID string, req contentmodel.CreateRequest, createdBy tenant.Ref) (*contentmodel.Model, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := s.environment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	if env.Status == environment.StatusPending {
		return nil, fmt.Errorf("environment %s is still being copied: %w", environmentID, domain.ErrConflict)
	}

	m := &contentmodel.Model{
		ID:            uuid.NewString(),
		ModelID:       req.ResolveModelID(),
		Name:          req.Name,
		Description:   req.Description,
		Fields:        req.Fields,
		EnvironmentID: environmentID,
		CreatedOn:     s.now().UTC(),
		CreatedBy:     createdBy,
	}
	if err := s.store.CreateContentModel(ctx, m); err != nil {
		return nil, fmt.Errorf("create content model: %w", err)
	}
	return m, nil
}

// Get returns the content model modelID of an environment.
func (s *ContentModelService) Get(ctx context.Context, environmentID, modelID string) (*contentmodel.Model, error) {
	models, err := s.List(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ModelID == modelID {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("content model %s: %w", modelID, domain.ErrNotFound)
}

// Delete removes a content model from an environment.
func (s *ContentModelService) Delete(ctx context.Context, environmentID, modelID string) error {
	if err := s.store.DeleteContentModel(ctx, environmentID, modelID); err != nil {
		return fmt.Errorf("delete content model %s: %w", modelID, err)
	}
	return nil
}

func (s *ContentModelService) environment(ctx context.Context, id string) (*environment.Environment, error) {
	env, err := s.store.GetEnvironment(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("environment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get environment %s: %w", id, err)
	}
	return env, nil
}
