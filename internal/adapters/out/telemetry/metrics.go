package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the dockyard OTel instruments.
type Metrics struct {
	// Ingestion
	EventsReceived  metric.Int64Counter
	EventsRejected  metric.Int64Counter // attribute: reason
	EventsFailed    metric.Int64Counter
	IngestDuration  metric.Float64Histogram
	ActivityFailure metric.Int64Counter

	// Catalogue
	RepositoriesCreated metric.Int64Counter
	TagsCreated         metric.Int64Counter
	TagsDeleted         metric.Int64Counter
	SyncRuns            metric.Int64Counter // attribute: registry, status
	SyncDuration        metric.Float64Histogram

	// Webhook
	WebhookThrottled metric.Int64Counter
}

// NewMetrics creates and registers all dockyard metric instruments.
// The instruments are noop when no MeterProvider has been installed.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("dockyard")
	m := &Metrics{}
	var err error

	if m.EventsReceived, err = meter.Int64Counter("dockyard.events.received",
		metric.WithDescription("Push events received")); err != nil {
		return nil, err
	}
	if m.EventsRejected, err = meter.Int64Counter("dockyard.events.rejected",
		metric.WithDescription("Push events dropped by validation")); err != nil {
		return nil, err
	}
	if m.EventsFailed, err = meter.Int64Counter("dockyard.events.failed",
		metric.WithDescription("Push events that hit a store error")); err != nil {
		return nil, err
	}
	if m.IngestDuration, err = meter.Float64Histogram("dockyard.events.duration_seconds",
		metric.WithDescription("Push event processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1)); err != nil {
		return nil, err
	}
	if m.ActivityFailure, err = meter.Int64Counter("dockyard.activity.failures",
		metric.WithDescription("Activity records that could not be written")); err != nil {
		return nil, err
	}
	if m.RepositoriesCreated, err = meter.Int64Counter("dockyard.repositories.created",
		metric.WithDescription("Repositories created")); err != nil {
		return nil, err
	}
	if m.TagsCreated, err = meter.Int64Counter("dockyard.tags.created",
		metric.WithDescription("Tags created")); err != nil {
		return nil, err
	}
	if m.TagsDeleted, err = meter.Int64Counter("dockyard.tags.deleted",
		metric.WithDescription("Tags deleted by catalogue reconciliation")); err != nil {
		return nil, err
	}
	if m.SyncRuns, err = meter.Int64Counter("dockyard.sync.runs",
		metric.WithDescription("Catalogue synchronization runs")); err != nil {
		return nil, err
	}
	if m.SyncDuration, err = meter.Float64Histogram("dockyard.sync.duration_seconds",
		metric.WithDescription("Catalogue synchronization duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300)); err != nil {
		return nil, err
	}
	if m.WebhookThrottled, err = meter.Int64Counter("dockyard.webhook.throttled",
		metric.WithDescription("Webhook deliveries rejected by the rate limiter")); err != nil {
		return nil, err
	}

	return m, nil
}
