package backend

import (
	"context"
	"time"

	"github.com/nerrad567/riglab-core/internal/device"
)

// Backend is the lifecycle contract every adapter implements.
//
// Lifecycle: constructed → Connect() → active → Disconnect(), or → errored
// on I/O failure. An errored backend requires an explicit Reconnect
// (Disconnect then Connect); it never self-heals.
//
// Connect and Disconnect are idempotent: calling Connect on an already
// connected backend causes no observable change and no error.
//
// Capabilities must be reportable before Connect so the pool can validate a
// workflow's role assignments without touching hardware.
type Backend interface {
	// Descriptor returns the identity this backend was constructed for.
	Descriptor() device.Descriptor

	// Capabilities reports the capability set, valid before Connect.
	Capabilities() []device.Capability

	// Connect opens the instrument. Idempotent.
	Connect(ctx context.Context) error

	// Disconnect closes the instrument and releases resources. Idempotent.
	Disconnect() error

	// Connected reports whether the backend is currently active.
	Connected() bool
}

// Stream is the capability contract for an asynchronous byte stream,
// typically a UART channel on the target or an instrument's console.
type Stream interface {
	// OpenStream prepares the stream for reading and writing.
	OpenStream(ctx context.Context) error

	// CloseStream releases the stream. Idempotent.
	CloseStream() error

	// ReadStream returns bytes that arrived within the timeout. A timeout
	// with no data is a normal outcome: it returns an empty slice and a
	// nil error, never an I/O error.
	ReadStream(ctx context.Context, timeout time.Duration) ([]byte, error)

	// WriteStream sends bytes to the stream.
	WriteStream(ctx context.Context, data []byte) error
}

// Bus is the capability contract for configurable protocol bridges
// (SPI, I2C, UART bridging).
type Bus interface {
	// ConfigureSPI sets up the bus for SPI transfers.
	ConfigureSPI(ctx context.Context, cfg SPIConfig) error

	// ConfigureI2C sets up the bus for I2C transfers.
	ConfigureI2C(ctx context.Context, cfg I2CConfig) error

	// ConfigureUART sets up the bus as a UART bridge.
	ConfigureUART(ctx context.Context, cfg UARTConfig) error

	// Transfer performs one write-then-read transaction on the configured
	// bus and returns the bytes read.
	Transfer(ctx context.Context, write []byte, readLen int) ([]byte, error)

	// ScanI2C probes the I2C address space and returns responding addresses.
	ScanI2C(ctx context.Context) ([]byte, error)
}

// FaultInjector is the capability contract for fault-injection generators
// (voltage glitchers, EM pulse boards).
type FaultInjector interface {
	// ConfigureGlitch sets the timing parameters for subsequent pulses.
	ConfigureGlitch(ctx context.Context, cfg GlitchConfig) error

	// Arm readies the injector. On triggered setups this waits for the
	// configured edge; on untriggered setups it is a no-op before Fire.
	Arm(ctx context.Context) error

	// Fire emits one glitch pulse with the configured parameters.
	Fire(ctx context.Context) error

	// Status returns the injector's current state.
	Status(ctx context.Context) (InjectorStatus, error)
}

// InjectorStatus describes a fault injector's current state.
type InjectorStatus struct {
	Armed      bool
	FiredCount int

	// LastError holds the most recent hardware-reported fault, if any.
	LastError string
}

// TriggerEdge selects the signal edge a triggered injector arms on.
type TriggerEdge string

// Trigger edges.
const (
	EdgeRising  TriggerEdge = "rising"
	EdgeFalling TriggerEdge = "falling"
)
