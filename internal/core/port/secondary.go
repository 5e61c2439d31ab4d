package port

import (
	"context"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// ============================================================================
// SECONDARY PORTS (Driven)
// These interfaces define what the application NEEDS from the outside world.
// They are IMPLEMENTED by adapters (redis, mongo, influx, ...)
// ============================================================================

// HotCache is the low-latency sample store the evaluator reads from.
// Samples are keyed by the (measurement, tags, field) fingerprint and
// ordered by integer-second score.
type HotCache interface {
	// Store writes every field of the sample under its fingerprint key.
	// Backend failures surface as domain.ErrStorageUnavailable.
	Store(ctx context.Context, sample domain.Sample) error

	// Query returns the values recorded for the fingerprint within the
	// last durationSeconds, in ascending score order. Backend failures
	// yield an empty slice, not an error.
	Query(ctx context.Context, metric string, tags map[string]string, field string, durationSeconds int) ([]float64, error)

	// PushIngest appends a sample to the auxiliary ingest list drained by
	// the evaluator's periodic metrics pass.
	PushIngest(ctx context.Context, sample domain.Sample) error

	// PopIngest removes and returns the oldest sample from the ingest
	// list, or nil when the list is empty.
	PopIngest(ctx context.Context) (*domain.Sample, error)
}

// AlertStateStore holds the per-rule TTL markers that carry alert state
// across evaluator ticks and processes. Every operation is a single
// round-trip and idempotent at the key level.
type AlertStateStore interface {
	SetAlert(ctx context.Context, ruleID string, ttlSeconds int) error
	HasAlert(ctx context.Context, ruleID string) (bool, error)
	SetRecovery(ctx context.Context, ruleID string, ttlSeconds int) error
	HasRecovery(ctx context.Context, ruleID string) (bool, error)
}

// RuleRepository persists alert rule documents.
type RuleRepository interface {
	// Create inserts the rule and returns its generated id.
	Create(ctx context.Context, rule *domain.AlertRule) (string, error)
	// FindByID returns domain.ErrRuleNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (*domain.AlertRule, error)
	FindAll(ctx context.Context) ([]*domain.AlertRule, error)
	// Delete returns domain.ErrRuleNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// HistoryRepository appends alert transition events. The backing
// collection expires entries through a 30-day TTL index.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
}

// TimeSeriesWriter ships flushed batches to the durable time-series store.
type TimeSeriesWriter interface {
	WriteSamples(ctx context.Context, samples []domain.Sample) error
	WriteLogs(ctx context.Context, events []domain.LogEvent) error
}

// TimeSeriesReader serves the collector's read passthrough. The query
// string shape is an adapter detail; only the response shape is public.
type TimeSeriesReader interface {
	QueryMetrics(ctx context.Context, q domain.MetricReadQuery) (string, []map[string]any, error)
	QueryLogs(ctx context.Context, q domain.LogReadQuery) ([]map[string]any, error)
}

// Notifier delivers triggered/recovered notifications over the rule's
// configured channels. Transports (SMTP, chat bots) live outside the core.
type Notifier interface {
	Notify(ctx context.Context, rule *domain.AlertRule, status domain.HistoryStatus) error
}
