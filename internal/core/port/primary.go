package port

import (
	"context"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// ============================================================================
// PRIMARY PORTS (Driving)
// These interfaces define what the application OFFERS to the outside world.
// They are implemented by services and called by HTTP handlers.
// ============================================================================

// CreateRuleInput is the wire payload for rule creation. Durations arrive
// as (value, unit) pairs and are normalized to seconds before persistence;
// the wire accepts only the >, < and == comparisons.
type CreateRuleInput struct {
	MetricName           string               `json:"metric_name"`
	Tags                 map[string]string    `json:"tags"`
	FieldName            string               `json:"field_name"`
	Threshold            float64              `json:"threshold"`
	DurationValue        int                  `json:"duration_value"`
	DurationUnit         domain.DurationUnit  `json:"duration_unit"`
	Comparison           domain.Comparison    `json:"comparison"`
	NotificationChannels []string             `json:"notification_channels"`
	Recipients           map[string][]string  `json:"recipients"`
	UseRecoveryAlert     bool                 `json:"use_recovery_alert"`
	RecoveryTimeValue    *int                 `json:"recovery_time_value"`
	RecoveryTimeUnit     *domain.DurationUnit `json:"recovery_time_unit"`
}

// RuleService manages the alert rule lifecycle.
type RuleService interface {
	Create(ctx context.Context, input CreateRuleInput) (string, error)
	Get(ctx context.Context, id string) (*domain.AlertRule, error)
	List(ctx context.Context) ([]*domain.AlertRule, error)
	Delete(ctx context.Context, id string) error
}
