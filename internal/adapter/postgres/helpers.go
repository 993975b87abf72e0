package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/middleware"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// Constraints whose violations are reported to clients.
const (
	constraintEnvironmentSlug  = "environments_tenant_slug_key"
	constraintAliasSlug        = "environment_aliases_tenant_slug_key"
	constraintModelID          = "content_models_environment_model_key"
	constraintAliasEnvironment = "environment_aliases_environment_fkey"
	tableEnvironments          = "environments"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// tenantFromCtx extracts the tenant ID from the request context.
// All tenant-scoped queries must use this to enforce isolation.
func tenantFromCtx(ctx context.Context) string {
	return middleware.TenantIDFromContext(ctx)
}

// nullIfEmpty returns nil for empty strings (for nullable UUID columns).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// domain.ErrNotFound with the given message. Otherwise it wraps the
// mapped original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, mapPgError(err, ""))
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", mapPgError(err, ""))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", domain.ErrNotFound)
	}
	return nil
}

// mapPgError turns constraint violations into domain errors. A unique or
// foreign key violation means a concurrent writer won; check and syntax
// violations mean the input slipped past validation. value is the key the
// write tried to store and only appears in unique violation messages.
func mapPgError(err error, value string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation, pgForeignKeyViolation:
		return &domain.DetailError{
			Err:     fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict),
			Message: conflictMessage(pgErr, value),
		}
	case pgCheckViolation, pgInvalidText:
		return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrValidation)
	}
	return err
}

// conflictMessage is the client-facing text for a violated constraint.
func conflictMessage(pgErr *pgconn.PgError, value string) string {
	switch pgErr.ConstraintName {
	case constraintEnvironmentSlug:
		return fmt.Sprintf("environment with slug %q already exists", value)
	case constraintAliasSlug:
		return fmt.Sprintf("environment alias with slug %q already exists", value)
	case constraintModelID:
		return fmt.Sprintf("content model %q already exists in this environment", value)
	case constraintAliasEnvironment:
		// Postgres names the table being written: the referenced table on
		// delete, the alias table on insert or update.
		if pgErr.TableName == tableEnvironments {
			return "the environment is linked to environment aliases"
		}
		return "the environment of the alias does not exist"
	}
	return "the record was changed by a concurrent request"
}
