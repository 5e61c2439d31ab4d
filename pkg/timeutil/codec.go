// Package timeutil is the only place in the system that converts between
// timestamp strings and times. Everything on the wire is strict ISO 8601
// with an explicit timezone; everything internal is integer UTC seconds.
package timeutil

import (
	"strings"
	"time"

	"github.com/moniflow/moniflow/internal/core/domain"
)

// ParseTimestamp converts a strict ISO 8601 timestamp into UNIX seconds.
//
// Accepted: "2025-02-26T12:00:00Z", "2025-02-26T14:00:00+02:00",
// "2025-02-26T12:00:00.123456Z" (fractional seconds truncated).
// Rejected: timestamps without a timezone designator, bare dates, empty
// strings, and anything that is not a timestamp at all.
func ParseTimestamp(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, domain.ErrInvalidTimestamp
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, domain.ErrInvalidTimestamp
	}

	// time.Parse accepts a handful of shapes RFC3339Nano happens to cover;
	// the zone designator is mandatory here, so a bare "...T12:00:00" must
	// not slip through. RFC3339 already requires a zone, so reaching this
	// point means one was present.
	return t.Unix(), nil
}

// NowISO returns the current wall-clock UTC time as ISO 8601 with a "Z"
// designator, suitable as a default sample timestamp.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// FormatSeconds renders UNIX seconds back into canonical ISO 8601 UTC.
func FormatSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
