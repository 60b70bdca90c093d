// Package sim provides a simulated instrument backend.
//
// The simulator implements every capability contract (Stream, Bus,
// FaultInjector) against an in-memory model of a glitchable target: it
// emits boot chatter on its stream, accepts bus transfers, and reacts to
// glitch pulses according to a configured timing window. It exists so the
// orchestration core can be exercised end to end, from pool coordination
// through full campaigns, with no hardware attached, and it
// is the reference for what a real adapter must implement.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/riglab-core/internal/backend"
	"github.com/nerrad567/riglab-core/internal/device"
)

// Type is the device type key the simulator registers under.
const Type device.DeviceType = "sim"

// Window is the timing region in which a glitch pulse lands.
type Window struct {
	OffsetMin, OffsetMax int
	WidthMin, WidthMax   int
}

// Contains reports whether the configured pulse falls inside the window.
func (w Window) Contains(offset, width int) bool {
	return offset >= w.OffsetMin && offset <= w.OffsetMax &&
		width >= w.WidthMin && width <= w.WidthMax
}

// Config shapes the simulated target's behaviour.
type Config struct {
	// BootBanner is emitted on the stream when the backend connects.
	BootBanner string

	// LoopText is emitted after every miss, imitating the target's normal
	// output so monitors have something to chew on.
	LoopText string

	// SuccessText is emitted when a pulse lands inside the window.
	SuccessText string

	// OvershootText is emitted when the pulse width exceeds the window's
	// maximum (the target browns out instead of skipping an instruction).
	OvershootText string

	// Window is the region in which a glitch succeeds.
	Window Window
}

// DefaultConfig returns a target with a narrow window and CTF-style output.
func DefaultConfig() Config {
	return Config{
		BootBanner:    "riglab sim target v1\r\n",
		LoopText:      "loop ok\r\n",
		SuccessText:   "ctf{simulated-flag}\r\n",
		OvershootText: "brownout reset\r\n",
		Window:        Window{OffsetMin: 100, OffsetMax: 200, WidthMin: 40, WidthMax: 80},
	}
}

// Simulator is a backend adapter for the in-memory target.
//
// Thread Safety: all methods are safe for concurrent use; the stream
// buffer and injector state share one mutex.
type Simulator struct {
	desc device.Descriptor
	cfg  Config

	mu         sync.Mutex
	connected  bool
	streamOpen bool
	rx         []byte
	glitch     backend.GlitchConfig
	armed      bool
	fired      int
	lastFault  string
}

// New constructs a simulator bound to the descriptor, with default target
// behaviour. It satisfies backend.Constructor.
func New(desc device.Descriptor) (backend.Backend, error) {
	return NewWithConfig(desc, DefaultConfig()), nil
}

// NewWithConfig constructs a simulator with explicit target behaviour.
func NewWithConfig(desc device.Descriptor, cfg Config) *Simulator {
	return &Simulator{desc: desc, cfg: cfg, glitch: backend.DefaultGlitchConfig()}
}

// Register installs the simulator constructor in the backend registry.
// Call during bootstrap alongside real adapter registrations.
func Register() {
	backend.Register(Type, New)
}

// Descriptor returns the bound descriptor.
func (s *Simulator) Descriptor() device.Descriptor { return s.desc }

// Capabilities reports every contract the simulator implements.
func (s *Simulator) Capabilities() []device.Capability {
	return []device.Capability{
		device.CapUART, device.CapSPI, device.CapI2C,
		device.CapFaultInject, device.CapGPIO,
	}
}

// Connect activates the simulated target and queues its boot banner.
// Idempotent.
func (s *Simulator) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	s.connected = true
	s.rx = append(s.rx, []byte(s.cfg.BootBanner)...)
	return nil
}

// Disconnect deactivates the target and clears pending output. Idempotent.
func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.streamOpen = false
	s.armed = false
	s.rx = nil
	return nil
}

// Connected reports the lifecycle state.
func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// OpenStream marks the stream readable.
func (s *Simulator) OpenStream(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.ErrNotConnected
	}
	s.streamOpen = true
	return nil
}

// CloseStream marks the stream closed. Idempotent.
func (s *Simulator) CloseStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamOpen = false
	return nil
}

// ReadStream drains pending target output. When nothing is pending it
// waits out the timeout and returns an empty slice with a nil error:
// a timeout is a normal "no data yet" outcome, not an I/O failure.
func (s *Simulator) ReadStream(ctx context.Context, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if !s.streamOpen {
			s.mu.Unlock()
			return nil, backend.ErrNotConnected
		}
		if len(s.rx) > 0 {
			out := s.rx
			s.rx = nil
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// WriteStream accepts input; the simulated target echoes it back.
func (s *Simulator) WriteStream(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streamOpen {
		return backend.ErrNotConnected
	}
	s.rx = append(s.rx, data...)
	return nil
}

// ConfigureSPI accepts any SPI setup.
func (s *Simulator) ConfigureSPI(_ context.Context, _ backend.SPIConfig) error {
	return s.requireConnected()
}

// ConfigureI2C accepts any I2C setup.
func (s *Simulator) ConfigureI2C(_ context.Context, _ backend.I2CConfig) error {
	return s.requireConnected()
}

// ConfigureUART accepts any UART setup.
func (s *Simulator) ConfigureUART(_ context.Context, _ backend.UARTConfig) error {
	return s.requireConnected()
}

// Transfer returns zero-filled reads, enough for flash-ID style probes.
func (s *Simulator) Transfer(_ context.Context, _ []byte, readLen int) ([]byte, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return make([]byte, readLen), nil
}

// ScanI2C reports a single simulated peripheral at 0x50.
func (s *Simulator) ScanI2C(_ context.Context) ([]byte, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return []byte{0x50}, nil
}

// ConfigureGlitch stores the pulse parameters for subsequent Fire calls.
func (s *Simulator) ConfigureGlitch(_ context.Context, cfg backend.GlitchConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.ErrNotConnected
	}
	s.glitch = cfg
	return nil
}

// Arm readies the injector.
func (s *Simulator) Arm(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.ErrNotConnected
	}
	s.armed = true
	return nil
}

// Fire emits one pulse and queues the target's reaction on the stream:
// success text inside the window, overshoot text past the window's maximum
// width, loop chatter otherwise.
func (s *Simulator) Fire(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.ErrNotConnected
	}
	if !s.armed {
		s.lastFault = "fire while disarmed"
		return fmt.Errorf("%w: injector not armed", device.ErrIO)
	}
	s.fired++
	s.armed = false

	switch {
	case s.cfg.Window.Contains(s.glitch.Offset, s.glitch.Width):
		s.rx = append(s.rx, []byte(s.cfg.SuccessText)...)
	case s.glitch.Width > s.cfg.Window.WidthMax:
		s.rx = append(s.rx, []byte(s.cfg.OvershootText)...)
	default:
		s.rx = append(s.rx, []byte(s.cfg.LoopText)...)
	}
	return nil
}

// Status reports injector state.
func (s *Simulator) Status(_ context.Context) (backend.InjectorStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.InjectorStatus{}, backend.ErrNotConnected
	}
	return backend.InjectorStatus{
		Armed:      s.armed,
		FiredCount: s.fired,
		LastError:  s.lastFault,
	}, nil
}

func (s *Simulator) requireConnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return backend.ErrNotConnected
	}
	return nil
}
