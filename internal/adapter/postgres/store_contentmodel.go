package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ContentForge/internal/domain/contentmodel"
)

// --- Content models ---

func (s *Store) ListContentModels(ctx context.Context, environmentID string) ([]contentmodel.Model, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, model_id, name, description, fields, environment_id, created_on, created_by_id, created_by_name
		 FROM content_models WHERE environment_id = $1 AND tenant_id = $2 ORDER BY model_id ASC`,
		environmentID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list content models: %w", err)
	}
	defer rows.Close()

	var models []contentmodel.Model
	for rows.Next() {
		var m contentmodel.Model
		if err := rows.Scan(&m.ID, &m.ModelID, &m.Name, &m.Description, &m.Fields, &m.EnvironmentID,
			&m.CreatedOn, &m.CreatedBy.ID, &m.CreatedBy.Name); err != nil {
			return nil, fmt.Errorf("scan content model: %w", err)
		}
		models = append(models, m)
	}
	return orEmpty(models), rows.Err()
}

func (s *Store) CreateContentModel(ctx context.Context, m *contentmodel.Model) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO content_models
		   (tenant_id, id, model_id, name, description, fields, environment_id, created_on, created_by_id, created_by_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tenantFromCtx(ctx), m.ID, m.ModelID, m.Name, m.Description, []byte(m.Fields),
		m.EnvironmentID, m.CreatedOn, m.CreatedBy.ID, m.CreatedBy.Name)
	if err != nil {
		return fmt.Errorf("insert content model: %w", mapPgError(err, m.ModelID))
	}
	return nil
}

func (s *Store) DeleteContentModel(ctx context.Context, environmentID, modelID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM content_models WHERE environment_id = $1 AND model_id = $2 AND tenant_id = $3`,
		environmentID, modelID, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete content model %s", modelID)
}

// CopyContentModels duplicates every model of from into to with fresh ids.
// Models whose model_id already exists in to are left alone, so a retried
// copy after a partial failure converges instead of failing.
func (s *Store) CopyContentModels(ctx context.Context, from, to string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO content_models
		   (tenant_id, id, model_id, name, description, fields, environment_id, created_on, created_by_id, created_by_name)
		 SELECT tenant_id, gen_random_uuid()::text, model_id, name, description, fields, $2::text, created_on, created_by_id, created_by_name
		 FROM content_models
		 WHERE environment_id = $1 AND tenant_id = $3
		 ON CONFLICT ON CONSTRAINT content_models_environment_model_key DO NOTHING`,
		from, to, tenantFromCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("copy content models %s -> %s: %w", from, to, mapPgError(err, ""))
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteContentModels(ctx context.Context, environmentID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM content_models WHERE environment_id = $1 AND tenant_id = $2`,
		environmentID, tenantFromCtx(ctx))
	if err != nil {
		return 0, fmt.Errorf("delete content models of %s: %w", environmentID, err)
	}
	return tag.RowsAffected(), nil
}
