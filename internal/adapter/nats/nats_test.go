package nats

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/ContentForge/internal/domain/tenant"
	"github.com/Strob0t/ContentForge/internal/logger"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/messagequeue"
)

func TestMessageContextRestoresTenant(t *testing.T) {
	h := nats.Header{}
	h.Set(headerTenantID, "acme")
	h.Set(headerRequestID, "req-7")

	ctx := messageContext(context.Background(), h)
	if got := middleware.TenantIDFromContext(ctx); got != "acme" {
		t.Errorf("tenant = %q, want acme", got)
	}
	if got := logger.TenantID(ctx); got != "acme" {
		t.Errorf("log tenant = %q, want acme", got)
	}
	if got := logger.RequestID(ctx); got != "req-7" {
		t.Errorf("request id = %q, want req-7", got)
	}
}

func TestMessageContextWithoutHeaders(t *testing.T) {
	ctx := messageContext(context.Background(), nats.Header{})
	if got := middleware.TenantIDFromContext(ctx); got != tenant.DefaultID {
		t.Errorf("tenant = %q, want %q", got, tenant.DefaultID)
	}
	if got := logger.RequestID(ctx); got != "" {
		t.Errorf("unexpected request id %q", got)
	}
}

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	if !q.IsConnected() {
		t.Fatal("not connected after Connect")
	}
	return q
}

// deadLetters consumes new messages on subject's DLQ and returns the first
// one match accepts.
func deadLetters(t *testing.T, q *Queue, subject string, match func([]byte) bool) <-chan jetstream.Msg {
	t.Helper()
	consumer, err := q.js.CreateOrUpdateConsumer(context.Background(), streamName, jetstream.ConsumerConfig{
		FilterSubject: subject + ".dlq",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create dlq consumer: %v", err)
	}
	found := make(chan jetstream.Msg, 1)
	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		_ = msg.Ack()
		if match(msg.Data()) {
			select {
			case found <- msg:
			default:
			}
		}
	})
	if err != nil {
		t.Fatalf("consume dlq: %v", err)
	}
	t.Cleanup(cons.Stop)
	return found
}

func TestContentJobsCarryTenant(t *testing.T) {
	q := testConnect(t)
	source, target := uuid.NewString(), uuid.NewString()

	type job struct {
		tenantID string
		payload  messagequeue.ContentCopyPayload
	}
	copies := make(chan job, 1)
	deletes := make(chan string, 1)

	stopCopy, err := q.Subscribe(context.Background(), messagequeue.SubjectContentCopy, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.ContentCopyPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.To == target {
			copies <- job{tenantID: middleware.TenantIDFromContext(ctx), payload: p}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe copy: %v", err)
	}
	defer stopCopy()

	stopDelete, err := q.Subscribe(context.Background(), messagequeue.SubjectContentDelete, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.ContentDeletePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.EnvironmentID == target {
			deletes <- middleware.TenantIDFromContext(ctx)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe delete: %v", err)
	}
	defer stopDelete()

	ctx := middleware.WithTenant(context.Background(), tenant.Ref{ID: "acme", Name: "Acme"})
	dm := NewDataManager(q, nil)
	if err := dm.CopyEnvironment(ctx, source, target); err != nil {
		t.Fatalf("CopyEnvironment: %v", err)
	}

	select {
	case got := <-copies:
		if got.tenantID != "acme" || got.payload.TenantID != "acme" {
			t.Errorf("copy job tenant = %q (payload %q), want acme", got.tenantID, got.payload.TenantID)
		}
		if got.payload.From != source {
			t.Errorf("copy job from = %q, want %q", got.payload.From, source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for copy job")
	}

	if err := dm.DeleteEnvironment(ctx, target); err != nil {
		t.Fatalf("DeleteEnvironment: %v", err)
	}
	select {
	case got := <-deletes:
		if got != "acme" {
			t.Errorf("delete job tenant = %q, want acme", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delete job")
	}
}

func TestCopyJobWithoutTargetIsDeadLettered(t *testing.T) {
	q := testConnect(t)
	source := uuid.NewString()
	subject := messagequeue.SubjectContentCopy

	dlq := deadLetters(t, q, subject, func(data []byte) bool {
		var p messagequeue.ContentCopyPayload
		return json.Unmarshal(data, &p) == nil && p.From == source
	})

	called := make(chan struct{}, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, data []byte) error {
		var p messagequeue.ContentCopyPayload
		if json.Unmarshal(data, &p) == nil && p.From == source {
			called <- struct{}{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := middleware.WithTenant(context.Background(), tenant.Ref{ID: "acme"})
	data := []byte(`{"tenant_id":"acme","from":"` + source + `"}`)
	if err := q.Publish(ctx, subject, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-dlq:
		if got := msg.Headers().Get(headerTenantID); got != "acme" {
			t.Errorf("dlq tenant header = %q, want acme", got)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for dead letter")
	}
	select {
	case <-called:
		t.Error("handler received a copy job without a target")
	default:
	}
}

func TestFailingDeleteJobIsDeadLettered(t *testing.T) {
	q := testConnect(t)
	envID := uuid.NewString()
	subject := messagequeue.SubjectContentDelete

	dlq := deadLetters(t, q, subject, func(data []byte) bool {
		var p messagequeue.ContentDeletePayload
		return json.Unmarshal(data, &p) == nil && p.EnvironmentID == envID
	})

	errStorage := errors.New("content store unavailable")
	stop, err := q.Subscribe(context.Background(), subject, func(context.Context, string, []byte) error {
		return errStorage
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	// A job that already used up its retries goes straight to the DLQ on
	// the next failure.
	data, _ := json.Marshal(messagequeue.ContentDeletePayload{TenantID: "acme", EnvironmentID: envID})
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(headerTenantID, "acme")
	msg.Header.Set(headerRetryCount, "3")
	if _, err := q.js.PublishMsg(context.Background(), msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	select {
	case got := <-dlq:
		if got.Headers().Get(headerRetryCount) != "3" {
			t.Errorf("retry count = %q, want 3", got.Headers().Get(headerRetryCount))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for dead letter after retries")
	}
}

func TestEnvironmentCacheBucket(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	kv, err := q.KeyValue(ctx, "contentforge-test-environments", time.Minute)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	key := "acme." + uuid.NewString()
	if _, err := kv.Put(ctx, key, []byte(`{"slug":"staging"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != `{"slug":"staging"}` {
		t.Errorf("value = %s", entry.Value())
	}
	if err := kv.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, key); !errors.Is(err, jetstream.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}
