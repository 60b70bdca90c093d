// Package pool owns the live backend instances for every detected
// instrument and coordinates their use across workflows.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                           Device Pool                            │
//	│                                                                  │
//	│  ┌──────────────┐   ┌────────────────┐   ┌───────────────────┐  │
//	│  │    Scan      │   │  Recommend /   │   │    Coordinate     │  │
//	│  │ detect, diff,│   │  AutoSelect    │   │ validate → claim  │  │
//	│  │ lazy backends│   │ keyword→caps   │   │ → connect → run   │  │
//	│  └──────────────┘   └────────────────┘   └───────────────────┘  │
//	│          │                                        │              │
//	│          ▼                                        ▼              │
//	│  ┌───────────────────────────────────────────────────────────┐  │
//	│  │ Entry {descriptor, backend, role, health, claim}          │  │
//	│  │ one per physical instrument, serialized by per-entry lock │  │
//	│  └───────────────────────────────────────────────────────────┘  │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Invariants
//
//   - One backend is exclusively owned by at most one entry.
//   - One entry is claimed by at most one active workflow; Coordinate
//     acquires claims on every device it assigns and releases them on
//     every exit path, including failure and cancellation.
//   - Coordinate validates every role's capability requirements before any
//     hardware I/O: partially armed hardware is a worse failure mode than
//     refusing to start.
//   - Scan marks vanished instruments stale instead of destroying their
//     entries, tolerating transient enumeration glitches.
//   - I/O failures are counted per entry; an entry past the consecutive
//     failure threshold is marked unhealthy but never auto-destroyed.
package pool
