package domain

import "time"

// HistoryStatus is the transition recorded in the alert history.
type HistoryStatus string

const (
	StatusTriggered HistoryStatus = "triggered"
	StatusRecovered HistoryStatus = "recovered"
)

// HistoryEntry is one row of the alert history collection. The collection
// carries a 30-day TTL index on Timestamp, so entries age out on their own.
type HistoryEntry struct {
	RuleID     string            `json:"rule_id"`
	MetricName string            `json:"metric_name"`
	Tags       map[string]string `json:"tags"`
	FieldName  string            `json:"field_name"`
	Status     HistoryStatus     `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
}
