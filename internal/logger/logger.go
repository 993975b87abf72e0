// Package logger provides structured logging setup for ContentForge.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/ContentForge/internal/config"
)

const (
	asyncBufferSize = 4096
	asyncWorkers    = 2
)

// level is shared by every logger built with New so SetLevel takes effect
// without rebuilding handlers.
var level = new(slog.LevelVar)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record plus
// the request and tenant IDs carried by the record's context. With cfg.Async
// the handler writes from background workers; the returned Flusher drains
// them and reports dropped records.
func New(cfg config.Logging) (*slog.Logger, Flusher) {
	SetLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	var flusher Flusher = syncFlusher{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, asyncBufferSize, asyncWorkers)
		handler, flusher = ah, ah
	}

	return slog.New(&contextHandler{inner: handler}).With("service", cfg.Service), flusher
}

// SetLevel changes the level of every logger created by New.
func SetLevel(s string) {
	level.Set(parseLevel(s))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type fieldsKey struct{}

// fields are the request-scoped values every record logged with the
// context carries.
type fields struct {
	requestID string
	tenantID  string
}

func fieldsFrom(ctx context.Context) fields {
	f, _ := ctx.Value(fieldsKey{}).(fields)
	return f
}

// WithRequestID returns a copy of ctx whose log records carry request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	f := fieldsFrom(ctx)
	f.requestID = id
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithTenantID returns a copy of ctx whose log records carry tenant_id.
func WithTenantID(ctx context.Context, id string) context.Context {
	f := fieldsFrom(ctx)
	f.tenantID = id
	return context.WithValue(ctx, fieldsKey{}, f)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

// TenantID returns the tenant ID stored in ctx for logging, or "".
func TenantID(ctx context.Context) string {
	return fieldsFrom(ctx).tenantID
}

// contextHandler adds request_id and tenant_id from the record's context.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	f := fieldsFrom(ctx)
	if f.requestID != "" {
		rec.AddAttrs(slog.String("request_id", f.requestID))
	}
	if f.tenantID != "" {
		rec.AddAttrs(slog.String("tenant_id", f.tenantID))
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
