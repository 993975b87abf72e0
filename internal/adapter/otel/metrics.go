package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "contentforge"

// Metrics holds all ContentForge metric instruments.
type Metrics struct {
	EnvironmentOps metric.Int64Counter
	CopiesFailed   metric.Int64Counter
	ModelsCopied   metric.Int64Counter
	ModelsDeleted  metric.Int64Counter
	CopyDuration   metric.Float64Histogram

	meter metric.Meter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{meter: meter}
	var err error

	m.EnvironmentOps, err = meter.Int64Counter("contentforge.environment.operations",
		metric.WithDescription("Environment create, update and delete operations"))
	if err != nil {
		return nil, err
	}

	m.CopiesFailed, err = meter.Int64Counter("contentforge.content.copies_failed",
		metric.WithDescription("Content copies that failed"))
	if err != nil {
		return nil, err
	}

	m.ModelsCopied, err = meter.Int64Counter("contentforge.content.models_copied",
		metric.WithDescription("Content models inserted by environment copies"))
	if err != nil {
		return nil, err
	}

	m.ModelsDeleted, err = meter.Int64Counter("contentforge.content.models_deleted",
		metric.WithDescription("Content models removed with their environment"))
	if err != nil {
		return nil, err
	}

	m.CopyDuration, err = meter.Float64Histogram("contentforge.content.copy_duration_seconds",
		metric.WithDescription("Environment content copy duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveDroppedLogs exports the number of log records the async logger
// discarded, read from dropped on every collection.
func (m *Metrics) ObserveDroppedLogs(dropped func() int64) error {
	_, err := m.meter.Int64ObservableCounter("contentforge.log.dropped_records",
		metric.WithDescription("Log records discarded because the async buffer was full"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(dropped())
			return nil
		}))
	return err
}

// OperationAttrs labels a measurement with an operation name.
func OperationAttrs(op string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("operation", op))
}
