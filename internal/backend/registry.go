package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/riglab-core/internal/device"
)

// Constructor builds a backend instance bound to one descriptor.
// Constructors must not perform I/O; Connect does that later.
type Constructor func(desc device.Descriptor) (Backend, error)

// registry is the process-wide device type → constructor map.
//
// It is populated during bootstrap (init functions or early main) and
// read-only during operation. The mutex exists so test doubles can swap
// constructors without racing lookups, not to support concurrent
// registration during a campaign.
var (
	registryMu   sync.RWMutex
	constructors = make(map[device.DeviceType]Constructor)
)

// Register binds a constructor to a device type.
//
// Registration is idempotent-additive: re-registering a type replaces the
// prior constructor. Tests rely on this to install doubles.
func Register(t device.DeviceType, c Constructor) {
	if t == "" || c == nil {
		return
	}
	registryMu.Lock()
	constructors[t] = c
	registryMu.Unlock()
}

// New instantiates the registered constructor for the descriptor's type.
//
// Returns ErrUnknownDeviceType (wrapped with the type) when nothing is
// registered for it.
func New(desc device.Descriptor) (Backend, error) {
	registryMu.RLock()
	c, ok := constructors[desc.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, desc.Type)
	}
	return c(desc)
}

// Registered reports whether a constructor exists for the type.
func Registered(t device.DeviceType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := constructors[t]
	return ok
}

// Types returns the registered device types in sorted order.
func Types() []device.DeviceType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]device.DeviceType, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Reset clears the registry. Test helper; production code never unregisters.
func Reset() {
	registryMu.Lock()
	constructors = make(map[device.DeviceType]Constructor)
	registryMu.Unlock()
}
