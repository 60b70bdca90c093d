package campaign

import "errors"

// Sentinel errors returned by campaign operations.
var (
	// ErrInvalidParams indicates sweep parameters that fail validation.
	ErrInvalidParams = errors.New("campaign: invalid parameters")
)
