package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/messagequeue"
	"github.com/Strob0t/ContentForge/internal/resilience"
)

// DataManager implements datamanager.Manager by publishing content jobs.
// The copy itself runs in whichever instance consumes the job; its outcome is
// recorded as the environment status.
type DataManager struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
}

// NewDataManager creates a DataManager publishing on q. A nil breaker
// publishes unguarded.
func NewDataManager(q messagequeue.Queue, breaker *resilience.Breaker) *DataManager {
	return &DataManager{queue: q, breaker: breaker}
}

// CopyEnvironment enqueues a copy job from -> to.
func (d *DataManager) CopyEnvironment(ctx context.Context, from, to string) error {
	return d.publish(ctx, messagequeue.SubjectContentCopy, messagequeue.ContentCopyPayload{
		TenantID: middleware.TenantIDFromContext(ctx),
		From:     from,
		To:       to,
	})
}

// DeleteEnvironment enqueues a content delete job.
func (d *DataManager) DeleteEnvironment(ctx context.Context, environmentID string) error {
	return d.publish(ctx, messagequeue.SubjectContentDelete, messagequeue.ContentDeletePayload{
		TenantID:      middleware.TenantIDFromContext(ctx),
		EnvironmentID: environmentID,
	})
}

func (d *DataManager) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s job: %w", subject, err)
	}
	send := func() error { return d.queue.Publish(ctx, subject, data) }
	if d.breaker != nil {
		err = d.breaker.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", subject, err)
	}
	slog.DebugContext(ctx, "content job enqueued", "subject", subject)
	return nil
}
