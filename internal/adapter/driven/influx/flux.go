package influx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// rangeBound renders a range() argument. Relative offsets ("-1h") and
// now() go in bare; absolute timestamps are quoted so Flux parses them
// as strings.
func rangeBound(value, fallback string) string {
	if value == "" {
		return fallback
	}
	if strings.HasPrefix(value, "-") || value == "now()" {
		return value
	}
	return fmt.Sprintf("%q", value)
}

// BuildLogQuery generates the Flux query for the log read endpoint.
// Level and service filters apply only when set.
func BuildLogQuery(bucket string, q domain.LogReadQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "from(bucket: %q) |> range(start: %s, stop: %s)",
		bucket, rangeBound(q.Start, `"-1h"`), rangeBound(q.End, "now()"))
	b.WriteString(` |> filter(fn: (r) => r["_measurement"] == "logs")`)

	if q.Level != "" {
		fmt.Fprintf(&b, ` |> filter(fn: (r) => r["level"] == %q)`, q.Level)
	}
	if q.Service != "" {
		fmt.Fprintf(&b, ` |> filter(fn: (r) => r["service"] == %q)`, q.Service)
	}

	b.WriteString(` |> keep(columns: ["_time", "level", "service", "_value"])`)
	return b.String()
}

// BuildMetricQuery generates the Flux query for the metric read endpoint.
// Tag filters apply per pair; aggregation applies only when an aggregate
// function is named.
func BuildMetricQuery(bucket string, q domain.MetricReadQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "from(bucket: %q) |> range(start: %s, stop: %s)",
		bucket, rangeBound(q.Start, `"-1h"`), rangeBound(q.End, "now()"))
	fmt.Fprintf(&b, ` |> filter(fn: (r) => r["_measurement"] == %q)`, q.Measurement)

	for _, key := range sortedKeys(q.Tags) {
		fmt.Fprintf(&b, ` |> filter(fn: (r) => r[%q] == %q)`, key, q.Tags[key])
	}

	if q.Aggregate != "" {
		window := q.AggregateWindow
		if window == "" {
			window = "1m"
		}
		fmt.Fprintf(&b, ` |> aggregateWindow(every: %s, fn: %s, createEmpty: false)`, window, q.Aggregate)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	fmt.Fprintf(&b, ` |> limit(n: %d)`, limit)
	return b.String()
}

// GroupLogsByService buckets parsed log records by their service tag.
func GroupLogsByService(logs []map[string]any) map[string][]map[string]any {
	grouped := make(map[string][]map[string]any)
	for _, log := range logs {
		service, _ := log["service"].(string)
		grouped[service] = append(grouped[service], log)
	}
	return grouped
}

// GroupLogsByServiceAndLevel buckets parsed log records first by service,
// then by level within each service.
func GroupLogsByServiceAndLevel(logs []map[string]any) map[string]map[string][]map[string]any {
	grouped := make(map[string]map[string][]map[string]any)
	for _, log := range logs {
		service, _ := log["service"].(string)
		level, _ := log["level"].(string)
		if grouped[service] == nil {
			grouped[service] = make(map[string][]map[string]any)
		}
		grouped[service][level] = append(grouped[service][level], log)
	}
	return grouped
}

// sortedKeys keeps tag filter order deterministic for logging and tests.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
