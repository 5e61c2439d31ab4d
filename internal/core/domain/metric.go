package domain

// Sample represents a single metric submission: one measurement with a
// non-empty tag set and one or more numeric fields. Integer field values
// widen to float64 during JSON decoding, which is also what the
// time-series store expects.
type Sample struct {
	Measurement string             `json:"measurement"`
	Tags        map[string]string  `json:"tags"`
	Fields      map[string]float64 `json:"fields"`
	// Timestamp is strict ISO 8601 with an explicit timezone. Empty means
	// the ingress layer defaults it to wall-clock UTC at receipt.
	Timestamp string `json:"timestamp,omitempty"`
}

// IsValid checks the sample invariants: a named measurement and non-empty
// tags and fields. Timestamp strictness is enforced by the timestamp
// codec, not here.
func (s *Sample) IsValid() bool {
	return s.Measurement != "" && len(s.Tags) > 0 && len(s.Fields) > 0
}

// LogLevel is the five-level severity enum for log events.
type LogLevel string

const (
	LevelDebug    LogLevel = "DEBUG"
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// IsValid checks if the level is one of the five enum values.
func (l LogLevel) IsValid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	default:
		return false
	}
}

// LogEvent represents a structured log submission.
type LogEvent struct {
	Message   string            `json:"message"`
	Level     LogLevel          `json:"level"`
	Tags      map[string]string `json:"tags"`
	Timestamp string            `json:"timestamp,omitempty"`
}
