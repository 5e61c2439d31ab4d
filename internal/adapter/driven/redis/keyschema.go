// Package redis implements the hot-cache and alert-state ports on a
// Redis backend.
package redis

import (
	"sort"
	"strings"
)

// Key prefixes shared by every MoniFlow process. The formats are
// wire-visible in the KV store, so they must stay byte-for-byte stable
// across releases.
const (
	metricKeyPrefix   = "moniflow:metrics:"
	alertStatePrefix  = "moniflow:alert_state:"
	recoveryPrefix    = "moniflow:recovery_state:"
	ingestListKey     = "moniflow:metrics"
)

// MetricKey builds the fingerprint key for one (measurement, tags, field)
// series:
//
//	moniflow:metrics:{measurement}:{k1=v1,k2=v2,...}:{field}
//
// Tag pairs are sorted byte-wise by key so identical inputs produce
// identical keys in every process.
func MetricKey(measurement string, tags map[string]string, field string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+tags[k])
	}

	var b strings.Builder
	b.WriteString(metricKeyPrefix)
	b.WriteString(measurement)
	b.WriteByte(':')
	b.WriteString(strings.Join(pairs, ","))
	b.WriteByte(':')
	b.WriteString(field)
	return b.String()
}

// AlertStateKey builds the key whose existence marks a rule as currently
// triggered.
func AlertStateKey(ruleID string) string {
	return alertStatePrefix + ruleID
}

// RecoveryStateKey builds the key whose existence marks a rule's recovery
// notification as already emitted.
func RecoveryStateKey(ruleID string) string {
	return recoveryPrefix + ruleID
}
