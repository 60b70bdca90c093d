package detect

import "errors"

// Domain errors for the detect package.
var (
	// ErrEnumerationFailed is returned when the underlying bus enumeration
	// fails outright. Individual unopenable devices are skipped with a log
	// line instead.
	ErrEnumerationFailed = errors.New("detect: enumeration failed")
)
