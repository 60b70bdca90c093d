package pool

import "errors"

// Sentinel errors returned by pool operations.
var (
	// ErrDeviceNotFound indicates a device id with no pool entry.
	ErrDeviceNotFound = errors.New("pool: device not found")

	// ErrDeviceClaimed indicates an exclusive claim is already held by
	// another workflow.
	ErrDeviceClaimed = errors.New("pool: device already claimed")

	// ErrRoleCapabilityMismatch indicates a coordinated workflow asked a
	// device to fill a role whose required capabilities the device does
	// not declare.
	ErrRoleCapabilityMismatch = errors.New("pool: role capability mismatch")

	// ErrNoSuitableDevice indicates no pool entry can satisfy an
	// auto-selection request.
	ErrNoSuitableDevice = errors.New("pool: no suitable device")
)
