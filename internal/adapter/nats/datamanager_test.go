package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/ContentForge/internal/config"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/messagequeue"
	"github.com/Strob0t/ContentForge/internal/resilience"
)

type published struct {
	subject string
	data    []byte
}

// recordingQueue is a messagequeue.Queue that records publishes.
type recordingQueue struct {
	msgs []published
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, published{subject, data})
	return nil
}

func (q *recordingQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (q *recordingQueue) Drain() error      { return nil }
func (q *recordingQueue) Close() error      { return nil }
func (q *recordingQueue) IsConnected() bool { return q.err == nil }

func TestDataManagerPublishesJobs(t *testing.T) {
	q := &recordingQueue{}
	dm := NewDataManager(q, nil)
	ctx := middleware.WithTenant(context.Background(), tenant.Ref{ID: "acme", Name: "Acme"})

	if err := dm.CopyEnvironment(ctx, "A", "B"); err != nil {
		t.Fatal(err)
	}
	if err := dm.DeleteEnvironment(ctx, "B"); err != nil {
		t.Fatal(err)
	}
	if len(q.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(q.msgs))
	}

	if q.msgs[0].subject != messagequeue.SubjectContentCopy {
		t.Errorf("unexpected subject %s", q.msgs[0].subject)
	}
	var cp messagequeue.ContentCopyPayload
	if err := json.Unmarshal(q.msgs[0].data, &cp); err != nil {
		t.Fatal(err)
	}
	if cp != (messagequeue.ContentCopyPayload{TenantID: "acme", From: "A", To: "B"}) {
		t.Errorf("unexpected copy payload %+v", cp)
	}
	if err := messagequeue.Validate(q.msgs[0].subject, q.msgs[0].data); err != nil {
		t.Errorf("copy job fails validation: %v", err)
	}

	var del messagequeue.ContentDeletePayload
	if err := json.Unmarshal(q.msgs[1].data, &del); err != nil {
		t.Fatal(err)
	}
	if del.EnvironmentID != "B" || del.TenantID != "acme" {
		t.Errorf("unexpected delete payload %+v", del)
	}
}

func TestDataManagerBreakerOpens(t *testing.T) {
	q := &recordingQueue{err: errors.New("no responders")}
	b := resilience.NewBreaker("nats", config.Breaker{MaxFailures: 2, Timeout: time.Minute})
	dm := NewDataManager(q, b)

	for range 2 {
		if err := dm.CopyEnvironment(context.Background(), "A", "B"); err == nil {
			t.Fatal("expected publish error")
		}
	}
	err := dm.CopyEnvironment(context.Background(), "A", "B")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestDurableName(t *testing.T) {
	if got := durableName(messagequeue.SubjectContentCopy); got != "contentforge_environments_content_copy" {
		t.Errorf("unexpected durable name %q", got)
	}
}
