package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

const (
	initialEnvironmentName = "Production"
	initialAliasName       = "Production"
)

// Installation is the result of bootstrapping a tenant.
type Installation struct {
	Environment *environment.Environment `json:"environment"`
	Alias       *environment.Alias       `json:"alias"`
}

// Installer bootstraps a tenant with its initial environment and alias.
type Installer struct {
	envs    *EnvironmentService
	aliases *AliasService
}

// NewInstaller creates a new Installer.
func NewInstaller(envs *EnvironmentService, aliases *AliasService) *Installer {
	return &Installer{envs: envs, aliases: aliases}
}

// Install creates the initial environment and an alias pointing at it.
// A tenant that already has environments is rejected.
func (i *Installer) Install(ctx context.Context, createdBy tenant.Ref) (*Installation, error) {
	existing, err := i.envs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("already installed: %w", domain.ErrConflict)
	}

	env, err := i.envs.Create(ctx, environment.CreateRequest{
		Name:        initialEnvironmentName,
		Description: "Initial environment",
	}, createdBy, true)
	if err != nil {
		return nil, fmt.Errorf("create initial environment: %w", err)
	}

	alias, err := i.aliases.Create(ctx, environment.CreateAliasRequest{
		Name:        initialAliasName,
		Environment: env.ID,
	}, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create initial alias: %w", err)
	}

	slog.InfoContext(ctx, "tenant installed", "environment_id", env.ID, "alias_id", alias.ID)
	return &Installation{Environment: env, Alias: alias}, nil
}
