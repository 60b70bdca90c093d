// Package backend defines the capability contracts that normalise
// heterogeneous instruments and the process-wide registry that maps a
// symbolic device type to a backend constructor.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        backend package                        │
//	│                                                               │
//	│  ┌───────────────┐   ┌────────────────┐   ┌───────────────┐  │
//	│  │   Backend     │   │  Capabilities  │   │   Registry    │  │
//	│  │ (lifecycle)   │   │ Stream / Bus / │   │ type → ctor   │  │
//	│  │ Connect/      │   │ FaultInjector  │   │ Register/New  │  │
//	│  │ Disconnect    │   │                │   │               │  │
//	│  └───────────────┘   └────────────────┘   └───────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// A backend adapter binds one physical device type to one or more capability
// interfaces. Callers never switch on device type: they ask "does this
// instance implement capability X" with a type assertion, so new device
// types require no change to pool or campaign code:
//
//	if inj, ok := b.(backend.FaultInjector); ok {
//	    inj.ConfigureGlitch(cfg)
//	}
//
// # Registry lifecycle
//
// The registry is process-wide state, written only during an explicit
// bootstrap phase (init or early main) and read-only during operation.
// Re-registering a type replaces the prior constructor, which is what test
// doubles rely on. Late registration during an active campaign is disallowed
// by design, not by locking.
package backend
