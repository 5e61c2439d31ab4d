package domain

import "errors"

// Domain errors - these are business logic errors. Adapters wrap these so
// callers can branch with errors.Is without importing store client packages.
var (
	// Timestamp errors
	ErrInvalidTimestamp = errors.New("invalid timestamp: explicit timezone required")

	// Hot-cache errors
	ErrInvalidQuery       = errors.New("invalid metric query")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Ingest errors
	ErrQueueFull    = errors.New("ingest queue full")
	ErrQueueClosed  = errors.New("ingest queue closed")
	ErrInvalidLevel = errors.New("invalid log level")

	// AlertRule errors
	ErrRuleNotFound        = errors.New("alert rule not found")
	ErrInvalidComparison   = errors.New("invalid comparison operator")
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrInvalidDurationUnit = errors.New("invalid duration unit")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)
