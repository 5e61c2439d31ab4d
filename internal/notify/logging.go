// Package notify holds the notification delivery adapters. Transports
// (chat bots, SMTP) are external collaborators; this package carries the
// default adapter that records deliveries in the service log.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// LogNotifier implements port.Notifier by writing the notification to the
// structured log. Used wherever no real transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new logging notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the transition with the rule's routing information.
func (n *LogNotifier) Notify(ctx context.Context, rule *domain.AlertRule, status domain.HistoryStatus) error {
	n.logger.Info("alert notification",
		"rule_id", rule.ID,
		"metric", rule.MetricName,
		"field", rule.FieldName,
		"threshold", rule.Threshold,
		"status", status,
		"channels", strings.Join(rule.NotificationChannels, ","),
	)
	return nil
}
