// Package campaign sweeps glitch parameters across a fault injector and
// scores each attempt against serial-output conditions.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                      Campaign Engine                        │
//	│                                                             │
//	│  Params ──► sweep (offset outer, width inner)               │
//	│                │                                            │
//	│                ▼  per attempt                               │
//	│  ConfigureGlitch → Arm → Fire → settle → score via Oracle   │
//	│                │                                            │
//	│                ├── success  → record, optionally stop       │
//	│                ├── overshoot → refine last-changed param    │
//	│                └── progress callback                        │
//	└────────────────────────────────────────────────────────────┘
//
// # Invariants
//
//   - Ranges are inclusive of Max; the planned attempt count is fixed up
//     front and only recomputed when refinement changes a step.
//   - The progress fraction is monotonic non-decreasing and ends at 1.0
//     when the sweep runs to exhaustion.
//   - Cancellation is checked at the top of every attempt and returns the
//     partial result with Cancelled set, not an error.
//   - Arm/Fire failures are logged and counted, never fatal: a flaky
//     injector wastes attempts, it does not abort the campaign.
package campaign
