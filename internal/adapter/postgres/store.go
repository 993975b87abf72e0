package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ContentForge/internal/domain/environment"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Environments ---

const envColumns = `id, name, slug, description, created_from, created_on, created_by_id, created_by_name, changed_on, status`

func (s *Store) ListEnvironments(ctx context.Context) ([]environment.Environment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+envColumns+` FROM environments WHERE tenant_id = $1 ORDER BY created_on ASC, id ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	defer rows.Close()

	var envs []environment.Environment
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, err
		}
		envs = append(envs, e)
	}
	return orEmpty(envs), rows.Err()
}

func (s *Store) GetEnvironment(ctx context.Context, id string) (*environment.Environment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+envColumns+` FROM environments WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))

	e, err := scanEnvironment(row)
	if err != nil {
		return nil, notFoundWrap(err, "get environment %s", id)
	}
	return &e, nil
}

func (s *Store) CreateEnvironment(ctx context.Context, env *environment.Environment) error {
	var snapshot []byte
	if env.CreatedFrom != nil {
		var err error
		if snapshot, err = json.Marshal(env.CreatedFrom); err != nil {
			return fmt.Errorf("marshal createdFrom: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO environments
		   (tenant_id, id, name, slug, description, created_from_id, created_from, created_on, created_by_id, created_by_name, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tenantFromCtx(ctx), env.ID, env.Name, env.Slug, env.Description,
		nullIfEmpty(env.CreatedFromID()), snapshot, env.CreatedOn,
		env.CreatedBy.ID, env.CreatedBy.Name, string(env.Status))
	if err != nil {
		return fmt.Errorf("insert environment: %w", mapPgError(err, env.Slug))
	}
	return nil
}

// UpdateEnvironment writes the dirty fields and refreshes changed_on of every
// alias targeting the environment in one transaction.
func (s *Store) UpdateEnvironment(ctx context.Context, id string, changes environment.Changes) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tid := tenantFromCtx(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE environments
		 SET name = COALESCE($3, name),
		     description = COALESCE($4, description),
		     changed_on = $5
		 WHERE id = $1 AND tenant_id = $2`,
		id, tid, changes.Name, changes.Description, changes.ChangedOn)
	if err := execExpectOne(tag, err, "update environment %s", id); err != nil {
		return 0, err
	}

	tag, err = tx.Exec(ctx,
		`UPDATE environment_aliases SET changed_on = $3 WHERE environment_id = $1 AND tenant_id = $2`,
		id, tid, changes.ChangedOn)
	if err != nil {
		return 0, fmt.Errorf("touch aliases of %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit environment update: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SetEnvironmentStatus(ctx context.Context, id string, status environment.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE environments SET status = $3 WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx), string(status))
	return execExpectOne(tag, err, "set environment status %s", id)
}

func (s *Store) DeleteEnvironment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM environments WHERE id = $1 AND tenant_id = $2`, id, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete environment %s", id)
}

func scanEnvironment(row scannable) (environment.Environment, error) {
	var (
		e        environment.Environment
		snapshot []byte
		status   string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Slug, &e.Description, &snapshot, &e.CreatedOn,
		&e.CreatedBy.ID, &e.CreatedBy.Name, &e.ChangedOn, &status)
	if err != nil {
		return e, err
	}
	e.Status = environment.Status(status)
	if len(snapshot) > 0 {
		var src environment.Environment
		if err := json.Unmarshal(snapshot, &src); err != nil {
			return e, fmt.Errorf("unmarshal createdFrom of %s: %w", e.ID, err)
		}
		e.CreatedFrom = &src
	}
	return e, nil
}
