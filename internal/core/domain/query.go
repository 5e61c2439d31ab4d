package domain

// MetricReadQuery carries the collector's metric read-passthrough filters.
// Start and End accept either relative offsets ("-1h") or absolute ISO
// timestamps; the store adapter decides how to quote them.
type MetricReadQuery struct {
	Measurement     string
	Start           string
	End             string
	Tags            map[string]string
	Aggregate       string
	AggregateWindow string
	Limit           int
}

// LogReadQuery carries the collector's log read filters. Grouping of the
// results happens above the store adapter.
type LogReadQuery struct {
	Start   string
	End     string
	Level   string
	Service string
}
