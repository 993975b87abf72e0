// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
)

// Store is the port interface for database operations. Every method is scoped
// to the tenant carried by ctx.
type Store interface {
	// Environments
	ListEnvironments(ctx context.Context) ([]environment.Environment, error)
	GetEnvironment(ctx context.Context, id string) (*environment.Environment, error)
	CreateEnvironment(ctx context.Context, env *environment.Environment) error
	// UpdateEnvironment writes the changed fields and refreshes changedOn on
	// every alias targeting the environment in one transaction. It returns the
	// number of aliases touched.
	UpdateEnvironment(ctx context.Context, id string, changes environment.Changes) (int64, error)
	SetEnvironmentStatus(ctx context.Context, id string, status environment.Status) error
	DeleteEnvironment(ctx context.Context, id string) error

	// Aliases
	ListAliases(ctx context.Context) ([]environment.Alias, error)
	GetAlias(ctx context.Context, id string) (*environment.Alias, error)
	CreateAlias(ctx context.Context, alias *environment.Alias) error
	UpdateAlias(ctx context.Context, id string, changes environment.AliasChanges) error
	DeleteAlias(ctx context.Context, id string) error

	// Content models
	ListContentModels(ctx context.Context, environmentID string) ([]contentmodel.Model, error)
	CreateContentModel(ctx context.Context, m *contentmodel.Model) error
	DeleteContentModel(ctx context.Context, environmentID, modelID string) error
	// CopyContentModels duplicates every model of from into to, skipping
	// models already present in to. It returns the number of rows inserted.
	CopyContentModels(ctx context.Context, from, to string) (int64, error)
	DeleteContentModels(ctx context.Context, environmentID string) (int64, error)

	Ping(ctx context.Context) error
}
