// Package device defines the shared vocabulary for attached instruments.
//
// A Descriptor is the immutable identity of one physical instrument as seen
// during detection: USB identity (vendor, product, serial), the ports it
// exposes, its symbolic device type, and the capability set it declares.
// Descriptors are produced by the detect package, consumed by the backend
// registry to construct adapters, and tracked by the pool.
//
// # Key Types
//
//   - Descriptor: identity of one detected instrument (wholly replaced on rescan)
//   - DeviceType: symbolic type key ("buspirate", "stlink", "bolt", ...)
//   - Capability: what an instrument can do (spi, uart, fault_inject, ...)
//   - Role: advisory workflow tag (glitcher, monitor, flasher, primary)
//   - HealthStatus: pool-maintained health classification
//   - ThroughputClass: declared speed class used for recommendation ranking
//
// # Thread Safety
//
// All types in this package are plain values. A Descriptor is never mutated
// after detection; use Clone when a caller needs an independent copy.
package device
