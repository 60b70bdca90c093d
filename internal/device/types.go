package device

import "time"

// DeviceType is the symbolic type key an instrument is registered under.
// The backend registry maps a DeviceType to a constructor.
type DeviceType string

// Known device types. The detect package assigns these from its USB identity
// table; anything unmatched becomes TypeUnknown until probed.
const (
	TypeBusPirate   DeviceType = "buspirate"
	TypeSTLink      DeviceType = "stlink"
	TypeTigard      DeviceType = "tigard"
	TypeCuriousBolt DeviceType = "bolt"
	TypeFaultyCat   DeviceType = "faultycat"

	// TypeRP2040Unknown marks boards that share the generic RP2040 USB
	// identity and need a serial probe to disambiguate.
	TypeRP2040Unknown DeviceType = "rp2040-unknown"

	// TypeUnknown marks enumerated hardware with no table match.
	TypeUnknown DeviceType = "unknown"
)

// Capability identifies one device-agnostic contract an instrument supports.
type Capability string

// Capabilities declared by instruments. These are advisory labels on the
// Descriptor; whether a backend actually implements the matching interface
// is checked with a type assertion at coordination time.
const (
	CapSPI         Capability = "spi"
	CapI2C         Capability = "i2c"
	CapUART        Capability = "uart"
	CapJTAG        Capability = "jtag"
	CapSWD         Capability = "swd"
	CapGPIO        Capability = "gpio"
	CapPower       Capability = "power"
	CapFaultInject Capability = "fault_inject"
)

// Role is an advisory tag assigned to a device for one workflow.
// Nothing enforces exclusivity of use; recommendation and coordination
// logic consult it.
type Role string

// Workflow roles.
const (
	RoleGlitcher Role = "glitcher"
	RoleMonitor  Role = "monitor"
	RoleFlasher  Role = "flasher"
	RolePrimary  Role = "primary"
)

// HealthStatus classifies an instrument's recent I/O behaviour.
type HealthStatus string

// Health states maintained by the pool from I/O success/failure counters.
const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ThroughputClass is the declared speed class of an instrument, used to
// rank recommendation candidates before detection order.
type ThroughputClass string

// Throughput classes, fastest first.
const (
	ThroughputHigh   ThroughputClass = "high"
	ThroughputMedium ThroughputClass = "medium"
	ThroughputLow    ThroughputClass = "low"
)

// Rank returns an ordering value for recommendation sorting.
// Lower is better; unrecognised classes sort last.
func (t ThroughputClass) Rank() int {
	switch t {
	case ThroughputHigh:
		return 0
	case ThroughputMedium:
		return 1
	case ThroughputLow:
		return 2
	default:
		return 3
	}
}

// Descriptor is the identity of one detected physical instrument.
//
// A physical device exposing several logical ports collapses to exactly one
// Descriptor listing all ports, keyed by (VendorID, ProductID, Serial),
// never by port path, since paths are unstable across replug.
//
// Descriptors are immutable once detected and wholly replaced on rescan.
type Descriptor struct {
	// Label is the human-readable instrument name from the identity table
	// (for example "Bus Pirate 5").
	Label string `json:"label"`

	// Type is the symbolic device type used for backend registry lookups.
	Type DeviceType `json:"type"`

	// USB identity. Serial may be empty when the device does not report one.
	VendorID  uint16 `json:"vendor_id"`
	ProductID uint16 `json:"product_id"`
	Serial    string `json:"serial,omitempty"`

	// Ports lists every logical port the physical device exposes, in
	// enumeration order. For multi-port devices (Tigard, Bus Pirate) the
	// first port is conventionally the control channel.
	Ports []string `json:"ports"`

	// Capabilities the instrument declares. Populated from the identity
	// table or a probe reply, before any backend is constructed.
	Capabilities []Capability `json:"capabilities"`

	// Throughput is the declared speed class for recommendation ranking.
	Throughput ThroughputClass `json:"throughput"`

	// DetectedAt records when this descriptor was produced.
	DetectedAt time.Time `json:"detected_at"`
}

// HasCapability reports whether the descriptor declares the capability.
func (d Descriptor) HasCapability(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// HasCapabilities reports whether the descriptor declares every capability
// in the list. An empty list is trivially satisfied.
func (d Descriptor) HasCapabilities(caps []Capability) bool {
	for _, c := range caps {
		if !d.HasCapability(c) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the descriptor. Slice fields are
// duplicated so the copy can outlive a rescan.
func (d Descriptor) Clone() Descriptor {
	cpy := d
	if d.Ports != nil {
		cpy.Ports = make([]string, len(d.Ports))
		copy(cpy.Ports, d.Ports)
	}
	if d.Capabilities != nil {
		cpy.Capabilities = make([]Capability, len(d.Capabilities))
		copy(cpy.Capabilities, d.Capabilities)
	}
	return cpy
}

// Identity returns the dedup key (vendor, product, serial) as a comparable
// value. Two enumerated port entries with equal Identity describe the same
// physical device.
func (d Descriptor) Identity() Identity {
	return Identity{VendorID: d.VendorID, ProductID: d.ProductID, Serial: d.Serial}
}

// Identity is the (vendor id, product id, serial number) triple that
// uniquely identifies a physical device across its logical ports.
type Identity struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}
