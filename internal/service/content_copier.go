package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/ContentForge/internal/adapter/otel"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/database"
	"github.com/Strob0t/ContentForge/internal/port/messagequeue"
)

// StatusRecorder records the copy status of an environment.
type StatusRecorder interface {
	MarkStatus(ctx context.Context, id string, status environment.Status) error
}

// copyFailedError wraps a copy error whose copy_failed status has already
// been recorded.
type copyFailedError struct {
	err error
}

func (e *copyFailedError) Error() string { return e.err.Error() }
func (e *copyFailedError) Unwrap() error { return e.err }

// statusRecorded reports whether err comes from a copy that already marked
// its target copy_failed.
func statusRecorded(err error) bool {
	var cf *copyFailedError
	return errors.As(err, &cf)
}

// ContentCopier moves content models between environments in the database.
// It implements datamanager.Manager directly and also serves the jobs
// published by the asynchronous NATS data manager.
type ContentCopier struct {
	store    database.Store
	recorder StatusRecorder
	metrics  *cfotel.Metrics
}

// NewContentCopier creates a new ContentCopier.
func NewContentCopier(store database.Store) *ContentCopier {
	return &ContentCopier{store: store}
}

// SetStatusRecorder sets where copy results are recorded. Without one the
// environment status is written to the store directly.
func (c *ContentCopier) SetStatusRecorder(r StatusRecorder) {
	c.recorder = r
}

// SetMetrics sets the optional metric instruments.
func (c *ContentCopier) SetMetrics(m *cfotel.Metrics) {
	c.metrics = m
}

// CopyEnvironment duplicates every content model of from into to. Models
// already present in to are skipped, so a retry never duplicates content.
func (c *ContentCopier) CopyEnvironment(ctx context.Context, from, to string) error {
	ctx, span := cfotel.StartCopySpan(ctx, from, to)
	defer span.End()

	start := time.Now()
	n, err := c.store.CopyContentModels(ctx, from, to)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if c.metrics != nil {
			c.metrics.CopiesFailed.Add(ctx, 1)
		}
		err = fmt.Errorf("copy content models: %w", err)
		if c.mark(ctx, to, environment.StatusCopyFailed) {
			return &copyFailedError{err: err}
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.ModelsCopied.Add(ctx, n)
		c.metrics.CopyDuration.Record(ctx, time.Since(start).Seconds())
	}
	slog.InfoContext(ctx, "environment content copied", "from", from, "to", to, "models", n)
	c.mark(ctx, to, environment.StatusReady)
	return nil
}

// DeleteEnvironment removes every content model tagged with environmentID.
func (c *ContentCopier) DeleteEnvironment(ctx context.Context, environmentID string) error {
	n, err := c.store.DeleteContentModels(ctx, environmentID)
	if err != nil {
		return fmt.Errorf("delete content models: %w", err)
	}
	if c.metrics != nil {
		c.metrics.ModelsDeleted.Add(ctx, n)
	}
	slog.InfoContext(ctx, "environment content deleted", "environment_id", environmentID, "models", n)
	return nil
}

// mark records status on environment id and reports whether it was written.
func (c *ContentCopier) mark(ctx context.Context, id string, status environment.Status) bool {
	var err error
	if c.recorder != nil {
		err = c.recorder.MarkStatus(ctx, id, status)
	} else {
		err = c.store.SetEnvironmentStatus(ctx, id, status)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to record environment status", "environment_id", id, "status", status, "error", err)
		return false
	}
	return true
}

// Subscribe consumes copy and delete jobs from q and runs them in the tenant
// named by each job. The returned function stops both subscriptions.
func (c *ContentCopier) Subscribe(ctx context.Context, q messagequeue.Queue) (func(), error) {
	stopCopy, err := q.Subscribe(ctx, messagequeue.SubjectContentCopy, c.handleCopy)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectContentCopy, err)
	}
	stopDelete, err := q.Subscribe(ctx, messagequeue.SubjectContentDelete, c.handleDelete)
	if err != nil {
		stopCopy()
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectContentDelete, err)
	}
	return func() {
		stopCopy()
		stopDelete()
	}, nil
}

func (c *ContentCopier) handleCopy(ctx context.Context, _ string, data []byte) error {
	var job messagequeue.ContentCopyPayload
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("decode copy job: %w", err)
	}
	return c.CopyEnvironment(jobContext(ctx, job.TenantID), job.From, job.To)
}

func (c *ContentCopier) handleDelete(ctx context.Context, _ string, data []byte) error {
	var job messagequeue.ContentDeletePayload
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("decode delete job: %w", err)
	}
	return c.DeleteEnvironment(jobContext(ctx, job.TenantID), job.EnvironmentID)
}

func jobContext(ctx context.Context, tenantID string) context.Context {
	if tenantID == "" {
		return ctx
	}
	return middleware.WithTenant(ctx, tenant.Ref{ID: tenantID, Name: tenantID})
}
