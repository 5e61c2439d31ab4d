// Package evaluator runs the scheduled alerting core: it loads rules,
// queries the hot cache over each rule's look-back window, and drives the
// per-rule state machine whose durability comes from TTL markers in the
// state store.
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/port"
	"github.com/moniflow/moniflow/pkg/observability"
)

const (
	// DefaultMetricsInterval is the cadence of the residual ingest drain.
	DefaultMetricsInterval = 30 * time.Second
	// DefaultRulesInterval is the cadence of the rule evaluation pass.
	DefaultRulesInterval = 60 * time.Second
)

// Engine wires the evaluator's dependencies together. It holds no state
// of its own; every tick rereads rules and markers, so a lost or
// duplicated tick is harmless.
type Engine struct {
	rules    port.RuleRepository
	history  port.HistoryRepository
	cache    port.HotCache
	state    port.AlertStateStore
	notifier port.Notifier

	metricsInterval time.Duration
	rulesInterval   time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option customizes an Engine.
type Option func(*Engine)

// WithIntervals overrides the two tick cadences. Zero values keep the
// defaults.
func WithIntervals(metricsInterval, rulesInterval time.Duration) Option {
	return func(e *Engine) {
		if metricsInterval > 0 {
			e.metricsInterval = metricsInterval
		}
		if rulesInterval > 0 {
			e.rulesInterval = rulesInterval
		}
	}
}

// NewEngine creates a new evaluator engine
func NewEngine(
	rules port.RuleRepository,
	history port.HistoryRepository,
	cache port.HotCache,
	state port.AlertStateStore,
	notifier port.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		rules:           rules,
		history:         history,
		cache:           cache,
		state:           state,
		notifier:        notifier,
		metricsInterval: DefaultMetricsInterval,
		rulesInterval:   DefaultRulesInterval,
		logger:          logger,
		metrics:         observability.GetMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts both periodic tasks and blocks until the context is
// cancelled. Each task runs on its own ticker so a slow rule pass cannot
// starve the ingest drain.
func (e *Engine) Run(ctx context.Context) {
	metricsTicker := time.NewTicker(e.metricsInterval)
	defer metricsTicker.Stop()
	rulesTicker := time.NewTicker(e.rulesInterval)
	defer rulesTicker.Stop()

	e.logger.Info("evaluator started",
		"metrics_interval", e.metricsInterval, "rules_interval", e.rulesInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evaluator stopped")
			return
		case <-metricsTicker.C:
			e.metrics.EvaluatorTicksTotal.WithLabelValues("process_metrics").Inc()
			e.DrainIngest(ctx)
		case <-rulesTicker.C:
			e.metrics.EvaluatorTicksTotal.WithLabelValues("fetch_alert_rules").Inc()
			e.EvaluateRules(ctx)
		}
	}
}

// DrainIngest moves samples from the residual ingest list into the hot
// cache. Samples that fail to store are logged and dropped.
func (e *Engine) DrainIngest(ctx context.Context) {
	for {
		sample, err := e.cache.PopIngest(ctx)
		if err != nil {
			e.logger.Error("ingest drain failed", "error", err)
			return
		}
		if sample == nil {
			return
		}
		if !sample.IsValid() {
			e.logger.Warn("dropping invalid ingest sample", "measurement", sample.Measurement)
			continue
		}
		if err := e.cache.Store(ctx, *sample); err != nil {
			e.logger.Error("caching ingest sample failed",
				"measurement", sample.Measurement, "error", err)
		}
	}
}

// EvaluateRules runs one alerting pass over every stored rule. Failures
// are per-rule: a bad rule or a flaky round-trip is logged and skipped,
// never halting the tick.
func (e *Engine) EvaluateRules(ctx context.Context) {
	rules, err := e.rules.FindAll(ctx)
	if err != nil {
		e.logger.Error("loading alert rules failed", "error", err)
		return
	}

	for _, rule := range rules {
		if rule.Status == domain.RuleDisabled {
			continue
		}
		if !rule.IsValid() {
			e.metrics.RulesSkippedTotal.Inc()
			e.logger.Error("skipping invalid alert rule", "rule_id", rule.ID)
			continue
		}

		e.metrics.RulesEvaluatedTotal.Inc()
		if err := e.evaluateRule(ctx, rule); err != nil {
			e.logger.Error("rule evaluation failed", "rule_id", rule.ID, "error", err)
		}
	}
}

// evaluateRule runs the state machine for one rule:
//
//	inactive  --fired & no alert marker-->  triggered
//	triggered --not fired & alert marker--> recovered (once per recovery TTL)
//
// A live alert marker suppresses duplicate triggers; a live recovery
// marker suppresses duplicate recoveries. Both expire on their own.
func (e *Engine) evaluateRule(ctx context.Context, rule *domain.AlertRule) error {
	values, err := e.cache.Query(ctx, rule.MetricName, rule.Tags, rule.FieldName, rule.DurationSeconds)
	if err != nil {
		return err
	}

	fired := domain.AllMatch(rule.Comparison, rule.Threshold, values)

	hasAlert, err := e.state.HasAlert(ctx, rule.ID)
	if err != nil {
		return err
	}

	if fired {
		if hasAlert {
			return nil // still triggered, suppress duplicate
		}
		return e.transition(ctx, rule, domain.StatusTriggered)
	}

	if !hasAlert {
		return nil // inactive, nothing to recover
	}

	hasRecovery, err := e.state.HasRecovery(ctx, rule.ID)
	if err != nil {
		return err
	}
	if hasRecovery {
		return nil // recovery already emitted
	}
	return e.transition(ctx, rule, domain.StatusRecovered)
}

// transition writes the state marker, appends history and notifies, in
// that order. Marker first: if the marker write fails nothing else
// happens and the next tick retries; if notify fails the marker still
// prevents a duplicate storm.
func (e *Engine) transition(ctx context.Context, rule *domain.AlertRule, status domain.HistoryStatus) error {
	switch status {
	case domain.StatusTriggered:
		if err := e.state.SetAlert(ctx, rule.ID, rule.DurationSeconds); err != nil {
			return err
		}
		e.metrics.AlertsTriggeredTotal.Inc()
	case domain.StatusRecovered:
		if err := e.state.SetRecovery(ctx, rule.ID, rule.RecoveryTTLSeconds()); err != nil {
			return err
		}
		e.metrics.AlertsRecoveredTotal.Inc()
	}

	entry := &domain.HistoryEntry{
		RuleID:     rule.ID,
		MetricName: rule.MetricName,
		Tags:       rule.Tags,
		FieldName:  rule.FieldName,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
	if err := e.history.Append(ctx, entry); err != nil {
		e.logger.Error("appending alert history failed", "rule_id", rule.ID, "error", err)
	}

	if err := e.notifier.Notify(ctx, rule, status); err != nil {
		e.logger.Error("notification failed",
			"rule_id", rule.ID, "status", status, "error", err)
	}

	e.logger.Info("alert transition",
		"rule_id", rule.ID, "metric", rule.MetricName, "status", status)
	return nil
}
