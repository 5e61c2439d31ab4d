package domain

import "time"

// Comparison is the threshold operator of an alert rule. The wire format
// for rule creation accepts the first three; the evaluator additionally
// accepts the remaining ones when present on stored rules.
type Comparison string

const (
	CompareGt Comparison = ">"
	CompareLt Comparison = "<"
	CompareEq Comparison = "=="
	CompareGe Comparison = ">="
	CompareLe Comparison = "<="
	CompareNe Comparison = "!="
)

// IsValid reports whether the operator is one the evaluator understands.
func (c Comparison) IsValid() bool {
	switch c {
	case CompareGt, CompareLt, CompareEq, CompareGe, CompareLe, CompareNe:
		return true
	default:
		return false
	}
}

// Apply evaluates `value c threshold`. Unknown operators fail closed.
func (c Comparison) Apply(value, threshold float64) bool {
	switch c {
	case CompareGt:
		return value > threshold
	case CompareLt:
		return value < threshold
	case CompareEq:
		return value == threshold
	case CompareGe:
		return value >= threshold
	case CompareLe:
		return value <= threshold
	case CompareNe:
		return value != threshold
	default:
		return false
	}
}

// AllMatch reports whether an alert condition holds: the value list is
// non-empty AND every value satisfies `value c threshold`. An empty list
// or an unknown operator never fires.
func AllMatch(c Comparison, threshold float64, values []float64) bool {
	if !c.IsValid() || len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !c.Apply(v, threshold) {
			return false
		}
	}
	return true
}

// DurationUnit is the wire unit for rule durations.
type DurationUnit string

const (
	UnitSeconds DurationUnit = "seconds"
	UnitMinutes DurationUnit = "minutes"
	UnitHours   DurationUnit = "hours"
)

// IsValid checks if the unit is one of seconds/minutes/hours.
func (u DurationUnit) IsValid() bool {
	switch u {
	case UnitSeconds, UnitMinutes, UnitHours:
		return true
	default:
		return false
	}
}

// Seconds converts a (value, unit) pair to seconds. Unknown units count
// as seconds, matching how rules were normalized historically.
func (u DurationUnit) Seconds(value int) int {
	switch u {
	case UnitMinutes:
		return value * 60
	case UnitHours:
		return value * 3600
	default:
		return value
	}
}

// RuleStatus marks whether a rule participates in evaluation.
type RuleStatus string

const (
	RuleActive   RuleStatus = "active"
	RuleDisabled RuleStatus = "disabled"
)

// AlertRule is the persisted form of a rule. Durations are always stored
// normalized to seconds; RecoverySeconds is present iff UseRecoveryAlert.
type AlertRule struct {
	ID                   string              `json:"id"`
	MetricName           string              `json:"metric_name"`
	Tags                 map[string]string   `json:"tags"`
	FieldName            string              `json:"field_name"`
	Threshold            float64             `json:"threshold"`
	DurationSeconds      int                 `json:"duration_seconds"`
	Comparison           Comparison          `json:"comparison"`
	NotificationChannels []string            `json:"notification_channels"`
	Recipients           map[string][]string `json:"recipients"`
	UseRecoveryAlert     bool                `json:"use_recovery_alert"`
	RecoverySeconds      *int                `json:"recovery_seconds,omitempty"`
	Status               RuleStatus          `json:"status"`
	CreatedAt            time.Time           `json:"created_at"`
}

// IsValid checks the invariants of a stored rule before evaluation.
// Rules failing this check are logged and skipped by the evaluator.
func (r *AlertRule) IsValid() bool {
	if r.MetricName == "" || r.FieldName == "" || len(r.Tags) == 0 {
		return false
	}
	if r.DurationSeconds <= 0 || !r.Comparison.IsValid() {
		return false
	}
	if r.UseRecoveryAlert != (r.RecoverySeconds != nil) {
		return false
	}
	return true
}

// RecoveryTTLSeconds returns the recovery-marker TTL input for this rule:
// the normalized recovery duration, or zero when recovery alerts are
// disabled (the state store floors it to its minimum TTL either way).
func (r *AlertRule) RecoveryTTLSeconds() int {
	if r.RecoverySeconds != nil {
		return *r.RecoverySeconds
	}
	return 0
}
