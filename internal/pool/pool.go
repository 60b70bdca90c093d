package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/riglab-core/internal/backend"
	"github.com/nerrad567/riglab-core/internal/device"
)

// Detector is the slice of the USB detector the pool depends on.
type Detector interface {
	Detect(ctx context.Context) (map[string]device.Descriptor, error)
}

// Logger is the minimal logging interface the pool writes to.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// ScanSummary reports what a single Scan changed.
type ScanSummary struct {
	Added     []string
	Refreshed []string
	Stale     []string
}

// Pool maintains one Entry per detected instrument.
//
// Thread Safety: the pool's registry map is guarded by p.mu; per-entry
// state is guarded by each entry's own lock. Backends are constructed
// lazily at scan time but never connected until Coordinate needs them.
type Pool struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    []string
	detector Detector
	logger   Logger
}

// New creates an empty pool backed by the given detector.
func New(detector Detector) *Pool {
	return &Pool{
		entries:  make(map[string]*Entry),
		order:    nil,
		detector: detector,
		logger:   noopLogger{},
	}
}

// SetLogger installs a logger. Passing nil restores the no-op logger.
func (p *Pool) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	p.mu.Lock()
	p.logger = l
	p.mu.Unlock()
}

// Scan runs detection and reconciles the pool against the result.
// Newly seen devices get an entry with a lazily constructed backend;
// devices already known get their descriptor refreshed; devices that
// vanished are marked stale but kept, so a transient enumeration glitch
// does not destroy claim and health state.
func (p *Pool) Scan(ctx context.Context) (ScanSummary, error) {
	detected, err := p.detector.Detect(ctx)
	if err != nil {
		return ScanSummary{}, fmt.Errorf("pool: scan: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var summary ScanSummary

	ids := make([]string, 0, len(detected))
	for id := range detected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		desc := detected[id]
		if entry, ok := p.entries[id]; ok {
			entry.refresh(desc)
			summary.Refreshed = append(summary.Refreshed, id)
			continue
		}
		b, err := backend.New(desc)
		if err != nil {
			p.logger.Warn("no backend for device, tracking without one",
				"device", id, "type", desc.Type, "error", err)
			b = nil
		}
		p.entries[id] = &Entry{
			id:           id,
			descriptor:   desc.Clone(),
			backend:      b,
			health:       device.HealthUnknown,
			lastActivity: time.Now(),
		}
		p.order = append(p.order, id)
		summary.Added = append(summary.Added, id)
	}

	for _, id := range p.order {
		if _, ok := detected[id]; ok {
			continue
		}
		entry := p.entries[id]
		if !entry.isStale() {
			entry.markStale()
			summary.Stale = append(summary.Stale, id)
		}
	}

	p.logger.Info("pool scan complete",
		"added", len(summary.Added),
		"refreshed", len(summary.Refreshed),
		"stale", len(summary.Stale))
	return summary, nil
}

// Get returns the entry for a device id.
func (p *Pool) Get(id string) (*Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return entry, nil
}

// Devices returns status snapshots for every entry, in the order the
// devices were first seen.
func (p *Pool) Devices() []EntryStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]EntryStatus, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.entries[id].Status())
	}
	return out
}

// AssignRole tags a device with a role outside of any coordinated
// workflow, for operator-driven setups.
func (p *Pool) AssignRole(id string, role device.Role) error {
	if err := device.ValidateRole(role); err != nil {
		return err
	}
	entry, err := p.Get(id)
	if err != nil {
		return err
	}
	entry.setRole(role)
	return nil
}

// RecordResult feeds an I/O outcome into the health tracking for id.
// Unknown ids are ignored: callers report results from long-running
// workflows and the entry may have been rescanned away.
func (p *Pool) RecordResult(id string, ioErr error) {
	entry, err := p.Get(id)
	if err != nil {
		return
	}
	entry.RecordResult(ioErr)
	if ioErr != nil && entry.Status().Health == device.HealthUnhealthy {
		p.mu.RLock()
		logger := p.logger
		p.mu.RUnlock()
		logger.Warn("device marked unhealthy", "device", id, "error", ioErr)
	}
}
