// Package monitor watches a backend byte stream for regex-defined
// conditions and fires their actions when output matches.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                     Condition Monitor                     │
//	│                                                           │
//	│  Stream ──► reader goroutine ──► rolling buffer (capped)  │
//	│                                        │                  │
//	│                          ticker ──► check cycle           │
//	│                                        │                  │
//	│                conditions (ordered) ── matches ── trim    │
//	│                                        │                  │
//	│                          actions (own goroutine, recover) │
//	│                          match history ring               │
//	└──────────────────────────────────────────────────────────┘
//
// # Invariants
//
//   - Conditions are evaluated in registration order; re-adding a name
//     replaces the condition in place without changing its position.
//   - Each check cycle fires at most one match per enabled condition:
//     the earliest match in the buffer.
//   - Matched text is consumed: after a cycle the buffer is trimmed past
//     the furthest match end, so one burst of output cannot re-fire.
//   - A panicking action is recovered and logged; it never takes down
//     the monitor.
package monitor
