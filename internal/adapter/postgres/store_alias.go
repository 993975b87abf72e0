package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ContentForge/internal/domain/environment"
)

// --- Environment aliases ---

const aliasColumns = `id, name, slug, description, environment_id, created_on, created_by_id, created_by_name, changed_on`

func (s *Store) ListAliases(ctx context.Context) ([]environment.Alias, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+aliasColumns+` FROM environment_aliases WHERE tenant_id = $1 ORDER BY created_on ASC, id ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []environment.Alias
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return orEmpty(aliases), rows.Err()
}

func (s *Store) GetAlias(ctx context.Context, id string) (*environment.Alias, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+aliasColumns+` FROM environment_aliases WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	a, err := scanAlias(row)
	if err != nil {
		return nil, notFoundWrap(err, "get alias %s", id)
	}
	return &a, nil
}

func (s *Store) CreateAlias(ctx context.Context, a *environment.Alias) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO environment_aliases
		   (tenant_id, id, name, slug, description, environment_id, created_on, created_by_id, created_by_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tenantFromCtx(ctx), a.ID, a.Name, a.Slug, a.Description, a.EnvironmentID,
		a.CreatedOn, a.CreatedBy.ID, a.CreatedBy.Name)
	if err != nil {
		return fmt.Errorf("insert alias: %w", mapPgError(err, a.Slug))
	}
	return nil
}

func (s *Store) UpdateAlias(ctx context.Context, id string, changes environment.AliasChanges) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE environment_aliases
		 SET name = COALESCE($3, name),
		     description = COALESCE($4, description),
		     environment_id = COALESCE($5, environment_id),
		     changed_on = $6
		 WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx), changes.Name, changes.Description, changes.EnvironmentID, changes.ChangedOn)
	return execExpectOne(tag, err, "update alias %s", id)
}

func (s *Store) DeleteAlias(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM environment_aliases WHERE id = $1 AND tenant_id = $2`, id, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete alias %s", id)
}

func scanAlias(row scannable) (environment.Alias, error) {
	var a environment.Alias
	err := row.Scan(&a.ID, &a.Name, &a.Slug, &a.Description, &a.EnvironmentID, &a.CreatedOn,
		&a.CreatedBy.ID, &a.CreatedBy.Name, &a.ChangedOn)
	return a, err
}
