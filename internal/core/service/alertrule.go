package service

import (
	"context"
	"time"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/core/port"
	"github.com/moniflow/moniflow/pkg/validation"
)

// RuleService implements port.RuleService. Creation normalizes the wire
// (value, unit) duration pairs into seconds so that everything downstream
// of the store deals with one representation only.
type RuleService struct {
	rules port.RuleRepository
}

// NewRuleService creates a new rule service
func NewRuleService(rules port.RuleRepository) *RuleService {
	return &RuleService{rules: rules}
}

// Create validates the wire payload, normalizes durations and persists
// the rule with status "active" and a server-side creation timestamp.
func (s *RuleService) Create(ctx context.Context, input port.CreateRuleInput) (string, error) {
	if err := validateCreateInput(input); err != nil {
		return "", err
	}

	rule := &domain.AlertRule{
		MetricName:           input.MetricName,
		Tags:                 input.Tags,
		FieldName:            input.FieldName,
		Threshold:            input.Threshold,
		DurationSeconds:      input.DurationUnit.Seconds(input.DurationValue),
		Comparison:           input.Comparison,
		NotificationChannels: input.NotificationChannels,
		Recipients:           input.Recipients,
		UseRecoveryAlert:     input.UseRecoveryAlert,
		Status:               domain.RuleActive,
		CreatedAt:            time.Now().UTC(),
	}

	if rule.NotificationChannels == nil {
		rule.NotificationChannels = []string{"telegram"}
	}
	if rule.Recipients == nil {
		rule.Recipients = map[string][]string{}
	}

	// Recovery settings are stored only when recovery alerts are enabled.
	if input.UseRecoveryAlert && input.RecoveryTimeValue != nil && input.RecoveryTimeUnit != nil {
		recovery := input.RecoveryTimeUnit.Seconds(*input.RecoveryTimeValue)
		rule.RecoverySeconds = &recovery
	} else if input.UseRecoveryAlert {
		zero := 0
		rule.RecoverySeconds = &zero
	}

	return s.rules.Create(ctx, rule)
}

// Get returns a rule by id, or domain.ErrRuleNotFound.
func (s *RuleService) Get(ctx context.Context, id string) (*domain.AlertRule, error) {
	return s.rules.FindByID(ctx, id)
}

// List returns all stored rules.
func (s *RuleService) List(ctx context.Context) ([]*domain.AlertRule, error) {
	return s.rules.FindAll(ctx)
}

// Delete removes a rule by id, or returns domain.ErrRuleNotFound.
func (s *RuleService) Delete(ctx context.Context, id string) error {
	return s.rules.Delete(ctx, id)
}

func validateCreateInput(input port.CreateRuleInput) error {
	v := validation.New()
	v.Required("metric_name", input.MetricName)
	v.Required("field_name", input.FieldName)
	v.NonEmptyMap("tags", input.Tags)
	v.Positive("duration_value", input.DurationValue)
	v.OneOf("duration_unit", string(input.DurationUnit),
		string(domain.UnitSeconds), string(domain.UnitMinutes), string(domain.UnitHours))
	// The wire accepts only the three basic comparisons; stored rules may
	// carry the extended set, which the evaluator honors.
	v.OneOf("comparison", string(input.Comparison),
		string(domain.CompareGt), string(domain.CompareLt), string(domain.CompareEq))

	if input.UseRecoveryAlert {
		if input.RecoveryTimeValue != nil {
			v.NonNegative("recovery_time_value", *input.RecoveryTimeValue)
		}
		if input.RecoveryTimeUnit != nil {
			v.OneOf("recovery_time_unit", string(*input.RecoveryTimeUnit),
				string(domain.UnitSeconds), string(domain.UnitMinutes), string(domain.UnitHours))
		}
	}

	if v.HasErrors() {
		return v.Error()
	}
	return nil
}
