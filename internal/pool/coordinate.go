package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/riglab-core/internal/backend"
	"github.com/nerrad567/riglab-core/internal/device"
)

// Workflow is a multi-device procedure run under coordinated claims.
// Roles declares, per role, the capabilities the assigned device must
// have; Run receives a session with one connected backend per role.
type Workflow interface {
	Name() string
	Roles() map[device.Role][]device.Capability
	Run(ctx context.Context, session *Session) error
}

// Session hands a running workflow its connected backends by role.
type Session struct {
	backends map[device.Role]backend.Backend
}

// Backend returns the backend filling a role, or nil if the role was
// not part of the coordination.
func (s *Session) Backend(role device.Role) backend.Backend {
	return s.backends[role]
}

// Stream returns the role's backend as a byte stream, if it is one.
func (s *Session) Stream(role device.Role) (backend.Stream, bool) {
	st, ok := s.backends[role].(backend.Stream)
	return st, ok
}

// Injector returns the role's backend as a fault injector, if it is one.
func (s *Session) Injector(role device.Role) (backend.FaultInjector, bool) {
	inj, ok := s.backends[role].(backend.FaultInjector)
	return inj, ok
}

// Coordinate runs a workflow against an explicit role→device assignment.
//
// Every role requirement is validated against the assigned device's
// declared capabilities before any claim is taken or any backend is
// touched; a mismatch fails the whole call with zero hardware I/O.
// Claims are then acquired in sorted device-id order, backends connected
// in parallel, and the workflow run. Claims, role tags, and connections
// are released on every exit path.
func (p *Pool) Coordinate(ctx context.Context, wf Workflow, assignments map[device.Role]string) error {
	roles := wf.Roles()

	p.mu.RLock()
	logger := p.logger
	p.mu.RUnlock()

	type binding struct {
		role  device.Role
		id    string
		entry *Entry
	}
	bindings := make([]binding, 0, len(roles))

	for role, caps := range roles {
		id, ok := assignments[role]
		if !ok {
			return fmt.Errorf("%w: workflow %q: no device assigned to role %q",
				ErrRoleCapabilityMismatch, wf.Name(), role)
		}
		entry, err := p.Get(id)
		if err != nil {
			return fmt.Errorf("workflow %q: role %q: %w", wf.Name(), role, err)
		}
		desc := entry.Descriptor()
		if !desc.HasCapabilities(caps) {
			return fmt.Errorf("%w: workflow %q: device %q cannot fill role %q (has %v, needs %v)",
				ErrRoleCapabilityMismatch, wf.Name(), id, role, desc.Capabilities, caps)
		}
		if entry.Backend() == nil {
			return fmt.Errorf("%w: workflow %q: device %q for role %q has no backend",
				ErrRoleCapabilityMismatch, wf.Name(), id, role)
		}
		bindings = append(bindings, binding{role: role, id: id, entry: entry})
	}

	sort.Slice(bindings, func(i, j int) bool { return bindings[i].id < bindings[j].id })

	owner := uuid.NewString()
	claimed := make([]*Entry, 0, len(bindings))
	defer func() {
		for _, e := range claimed {
			e.release(owner)
		}
	}()

	for _, b := range bindings {
		if err := b.entry.claim(owner); err != nil {
			return fmt.Errorf("workflow %q: role %q: %w", wf.Name(), b.role, err)
		}
		claimed = append(claimed, b.entry)
		b.entry.setRole(b.role)
	}

	connected := make([]*Entry, 0, len(bindings))
	defer func() {
		for _, e := range connected {
			if err := e.Backend().Disconnect(); err != nil {
				logger.Warn("disconnect failed", "device", e.ID(), "error", err)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	var connectedMu sync.Mutex
	for _, b := range bindings {
		b := b
		g.Go(func() error {
			err := b.entry.Backend().Connect(gctx)
			b.entry.RecordResult(err)
			if err != nil {
				return fmt.Errorf("connecting %q for role %q: %w", b.id, b.role, err)
			}
			connectedMu.Lock()
			connected = append(connected, b.entry)
			connectedMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("workflow %q: %w", wf.Name(), err)
	}

	session := &Session{backends: make(map[device.Role]backend.Backend, len(bindings))}
	for _, b := range bindings {
		session.backends[b.role] = b.entry.Backend()
	}

	logger.Info("workflow starting", "workflow", wf.Name(), "devices", len(bindings))
	if err := wf.Run(ctx, session); err != nil {
		return fmt.Errorf("workflow %q: %w", wf.Name(), err)
	}
	return nil
}
