package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrIO) {
//	    // transient hardware failure, count it, do not destroy the entry
//	}
var (
	// ErrIO is the transient-hardware error class: an I/O timeout,
	// disconnect, or malformed reply from an instrument. Backends wrap
	// their failures with it; the pool counts occurrences per entry and
	// never destroys an entry because of them.
	ErrIO = errors.New("device: i/o error")

	// ErrInvalidDescriptor is returned when descriptor validation fails.
	ErrInvalidDescriptor = errors.New("device: invalid descriptor")

	// ErrInvalidRole is returned when a role value is not recognised.
	ErrInvalidRole = errors.New("device: invalid role")

	// ErrInvalidCapability is returned when a capability is not recognised.
	ErrInvalidCapability = errors.New("device: invalid capability")
)
