package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/riglab-core/internal/backend"
	"github.com/nerrad567/riglab-core/internal/device"
)

// failureThreshold is the number of consecutive I/O failures after which
// an entry is marked unhealthy. A single success resets the count.
const failureThreshold = 3

// Entry tracks one detected instrument: its descriptor, its lazily
// constructed backend, and the bookkeeping the pool keeps about it.
//
// Thread Safety: all exported methods lock the entry's own mutex. The
// pool never holds its registry lock while calling into a backend.
type Entry struct {
	mu sync.Mutex

	id         string
	descriptor device.Descriptor
	backend    backend.Backend

	role       device.Role
	stale      bool
	claimedBy  string

	consecutiveFailures int
	totalFailures       int
	health              device.HealthStatus
	lastActivity        time.Time
}

// EntryStatus is a point-in-time snapshot of an entry, safe to hand out
// without aliasing pool-internal state.
type EntryStatus struct {
	ID                  string
	Descriptor          device.Descriptor
	Role                device.Role
	Stale               bool
	Claimed             bool
	Health              device.HealthStatus
	ConsecutiveFailures int
	TotalFailures       int
	LastActivity        time.Time
}

// ID returns the pool key this entry was registered under.
func (e *Entry) ID() string {
	return e.id
}

// Descriptor returns a copy of the entry's current descriptor.
func (e *Entry) Descriptor() device.Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.descriptor.Clone()
}

// Backend returns the entry's backend. It may be nil when no constructor
// is registered for the device type.
func (e *Entry) Backend() backend.Backend {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend
}

// Status returns a snapshot of the entry.
func (e *Entry) Status() EntryStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EntryStatus{
		ID:                  e.id,
		Descriptor:          e.descriptor.Clone(),
		Role:                e.role,
		Stale:               e.stale,
		Claimed:             e.claimedBy != "",
		Health:              e.health,
		ConsecutiveFailures: e.consecutiveFailures,
		TotalFailures:       e.totalFailures,
		LastActivity:        e.lastActivity,
	}
}

// RecordResult feeds an I/O outcome into the entry's health tracking.
// A nil err counts as success and resets the consecutive failure count.
func (e *Entry) RecordResult(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActivity = time.Now()
	if err == nil {
		e.consecutiveFailures = 0
		e.health = device.HealthHealthy
		return
	}
	e.consecutiveFailures++
	e.totalFailures++
	if e.consecutiveFailures >= failureThreshold {
		e.health = device.HealthUnhealthy
	} else {
		e.health = device.HealthDegraded
	}
}

// refresh replaces the descriptor after a rescan saw the device again.
func (e *Entry) refresh(desc device.Descriptor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptor = desc.Clone()
	e.stale = false
}

func (e *Entry) markStale() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = true
}

func (e *Entry) isStale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stale
}

func (e *Entry) setRole(role device.Role) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.role = role
}

// claim takes the exclusive claim for the given owner token.
func (e *Entry) claim(owner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimedBy != "" && e.claimedBy != owner {
		return fmt.Errorf("%w: %s held by %s", ErrDeviceClaimed, e.id, e.claimedBy)
	}
	e.claimedBy = owner
	return nil
}

// release drops the claim if it is held by owner, and clears any role
// assigned during the claim.
func (e *Entry) release(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimedBy == owner {
		e.claimedBy = ""
		e.role = ""
	}
}
