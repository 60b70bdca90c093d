package backend

import "errors"

// Domain errors for the backend package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, backend.ErrUnknownDeviceType) {
//	    // caller programming error: register the type during bootstrap
//	}
var (
	// ErrUnknownDeviceType is returned by New when no constructor is
	// registered for the descriptor's type. This is a caller programming
	// error: it fails loudly and is never retried.
	ErrUnknownDeviceType = errors.New("backend: unknown device type")

	// ErrNotConnected is returned when an operation requires an active
	// connection.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrCapabilityUnsupported is returned when an adapter is asked for an
	// operation outside its capability set.
	ErrCapabilityUnsupported = errors.New("backend: capability not supported")
)
