package monitor

import "errors"

// Sentinel errors returned by monitor operations.
var (
	// ErrConditionNotFound is returned when enabling, disabling, or
	// removing a condition name that was never added.
	ErrConditionNotFound = errors.New("monitor: condition not found")

	// ErrInvalidPattern is returned when a condition's regex fails to
	// compile.
	ErrInvalidPattern = errors.New("monitor: invalid pattern")
)
