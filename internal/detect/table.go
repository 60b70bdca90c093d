package detect

import "github.com/nerrad567/riglab-core/internal/device"

// usbID is the (vendor, product) pair used for identity table lookups.
type usbID struct {
	vendor  uint16
	product uint16
}

// knownDevice is one identity table entry.
type knownDevice struct {
	label        string
	deviceType   device.DeviceType
	capabilities []device.Capability
	throughput   device.ThroughputClass
}

// knownUSBDevices maps USB identities to instrument types.
//
// RP2040-based boards (Curious Bolt, FaultyCat) ship with the Raspberry Pi
// vendor id; boards still presenting the generic CDC identity are entered
// as rp2040-unknown and resolved by probing.
var knownUSBDevices = map[usbID]knownDevice{
	// Bus Pirate 5 (1209 is pid.codes open-source allocation)
	{0x1209, 0x7331}: {
		label:        "Bus Pirate 5",
		deviceType:   device.TypeBusPirate,
		capabilities: []device.Capability{device.CapSPI, device.CapI2C, device.CapUART, device.CapGPIO, device.CapPower},
		throughput:   device.ThroughputMedium,
	},
	// Bus Pirate v3/v4 (legacy)
	{0x2047, 0x0900}: {
		label:        "Bus Pirate",
		deviceType:   device.TypeBusPirate,
		capabilities: []device.Capability{device.CapSPI, device.CapI2C, device.CapUART},
		throughput:   device.ThroughputLow,
	},
	// ST-Link V2
	{0x0483, 0x3748}: {
		label:        "ST-Link V2",
		deviceType:   device.TypeSTLink,
		capabilities: []device.Capability{device.CapSWD, device.CapJTAG},
		throughput:   device.ThroughputMedium,
	},
	// Tigard (FTDI FT2232H)
	{0x0403, 0x6010}: {
		label:        "Tigard",
		deviceType:   device.TypeTigard,
		capabilities: []device.Capability{device.CapSPI, device.CapI2C, device.CapUART, device.CapJTAG, device.CapSWD},
		throughput:   device.ThroughputHigh,
	},
	// Curious Bolt (dedicated pid)
	{0x2E8A, 0x1063}: {
		label:        "Curious Bolt",
		deviceType:   device.TypeCuriousBolt,
		capabilities: []device.Capability{device.CapFaultInject, device.CapGPIO},
		throughput:   device.ThroughputMedium,
	},
	// Generic RP2040 CDC identity: needs a probe to tell boards apart.
	{0x2E8A, 0x000A}: {
		label:      "RP2040 device",
		deviceType: device.TypeRP2040Unknown,
		throughput: device.ThroughputLow,
	},
}

// probeSignature maps a substring of a probe reply to a resolved identity.
type probeSignature struct {
	marker       string
	label        string
	deviceType   device.DeviceType
	capabilities []device.Capability
	throughput   device.ThroughputClass
}

// probeSignatures resolve rp2040-unknown boards from their banner reply.
// Checked in order; first match wins.
var probeSignatures = []probeSignature{
	{
		marker:       "Curious Bolt",
		label:        "Curious Bolt",
		deviceType:   device.TypeCuriousBolt,
		capabilities: []device.Capability{device.CapFaultInject, device.CapGPIO},
		throughput:   device.ThroughputMedium,
	},
	{
		marker:       "FaultyCat",
		label:        "FaultyCat",
		deviceType:   device.TypeFaultyCat,
		capabilities: []device.Capability{device.CapFaultInject},
		throughput:   device.ThroughputLow,
	},
}
