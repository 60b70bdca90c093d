package detect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/riglab-core/internal/device"
)

// Logger defines the logging interface used by the Detector.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RawDevice is one enumerated logical port before matching and dedup.
type RawDevice struct {
	VendorID    uint16
	ProductID   uint16
	Serial      string
	Port        string
	Description string
}

// Enumerator lists attached hardware, one record per logical port.
// Production uses the gousb-backed USBEnumerator; tests supply fakes.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]RawDevice, error)
}

// ProbeFunc sends a benign identification request to a port and returns
// the reply text. Used to disambiguate boards sharing a generic identity.
type ProbeFunc func(ctx context.Context, port string) (string, error)

// Detector turns enumeration output into keyed device descriptors.
//
// Thread Safety: Detect may be called concurrently; the detector itself
// holds no mutable state between calls.
type Detector struct {
	enum   Enumerator
	probe  ProbeFunc
	logger Logger
}

// NewDetector creates a detector over the given enumerator.
func NewDetector(enum Enumerator) *Detector {
	return &Detector{enum: enum, logger: noopLogger{}}
}

// SetLogger sets the logger for the detector.
func (d *Detector) SetLogger(logger Logger) {
	d.logger = logger
}

// SetProbe installs the identification probe used for rp2040-unknown
// boards. Without one, such boards stay unresolved (not an error).
func (d *Detector) SetProbe(p ProbeFunc) {
	d.probe = p
}

// Detect enumerates, matches, deduplicates, and probes.
//
// The result maps a stable key to each descriptor: the device type for the
// first instrument of a type, "type-2", "type-3"… for further ones, in
// enumeration order. Unmatched identities are excluded; call List to see
// them. An empty map is a valid result.
func (d *Detector) Detect(ctx context.Context) (map[string]device.Descriptor, error) {
	descriptors, err := d.list(ctx)
	if err != nil {
		return nil, err
	}

	keyed := make(map[string]device.Descriptor, len(descriptors))
	counts := make(map[device.DeviceType]int)
	for _, desc := range descriptors {
		if desc.Type == device.TypeUnknown {
			continue
		}
		counts[desc.Type]++
		key := string(desc.Type)
		if n := counts[desc.Type]; n > 1 {
			key = fmt.Sprintf("%s-%d", desc.Type, n)
		}
		keyed[key] = desc
	}

	d.logger.Info("detection complete", "found", len(keyed))
	return keyed, nil
}

// List returns every deduplicated descriptor in enumeration order,
// optionally including unmatched (unknown) hardware.
func (d *Detector) List(ctx context.Context, includeUnknown bool) ([]device.Descriptor, error) {
	descriptors, err := d.list(ctx)
	if err != nil {
		return nil, err
	}
	if includeUnknown {
		return descriptors, nil
	}

	known := descriptors[:0]
	for _, desc := range descriptors {
		if desc.Type != device.TypeUnknown {
			known = append(known, desc)
		}
	}
	return known, nil
}

// list runs the full pipeline: enumerate, match, dedupe, probe.
func (d *Detector) list(ctx context.Context) ([]device.Descriptor, error) {
	raw, err := d.enum.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerationFailed, err)
	}

	now := time.Now().UTC()
	matched := make([]device.Descriptor, 0, len(raw))
	for _, r := range raw {
		matched = append(matched, d.match(r, now))
	}

	deduped := deduplicate(matched)

	for i := range deduped {
		if deduped[i].Type != device.TypeRP2040Unknown {
			continue
		}
		deduped[i] = d.identify(ctx, deduped[i])
	}

	return deduped, nil
}

// match builds a single-port descriptor from one enumeration record.
func (d *Detector) match(r RawDevice, now time.Time) device.Descriptor {
	desc := device.Descriptor{
		VendorID:   r.VendorID,
		ProductID:  r.ProductID,
		Serial:     r.Serial,
		Ports:      []string{r.Port},
		DetectedAt: now,
	}

	if known, ok := knownUSBDevices[usbID{r.VendorID, r.ProductID}]; ok {
		desc.Label = known.label
		desc.Type = known.deviceType
		desc.Capabilities = append([]device.Capability(nil), known.capabilities...)
		desc.Throughput = known.throughput
		return desc
	}

	desc.Type = device.TypeUnknown
	desc.Label = r.Description
	if desc.Label == "" {
		desc.Label = fmt.Sprintf("USB %04x:%04x", r.VendorID, r.ProductID)
	}
	desc.Throughput = device.ThroughputLow
	return desc
}

// deduplicate collapses logical ports of one physical device into a single
// descriptor, keyed by (vendor id, product id, serial number). Ports are
// merged in enumeration order; the first record's metadata wins.
func deduplicate(descriptors []device.Descriptor) []device.Descriptor {
	byIdentity := make(map[device.Identity]int)
	out := make([]device.Descriptor, 0, len(descriptors))

	for _, desc := range descriptors {
		id := desc.Identity()
		if i, seen := byIdentity[id]; seen {
			out[i].Ports = append(out[i].Ports, desc.Ports...)
			continue
		}
		byIdentity[id] = len(out)
		out = append(out, desc.Clone())
	}
	return out
}

// identify resolves an rp2040-unknown board via the benign probe.
// Probe failures leave the descriptor untouched: an unidentified board is
// a normal condition, not a detection error.
func (d *Detector) identify(ctx context.Context, desc device.Descriptor) device.Descriptor {
	if d.probe == nil || len(desc.Ports) == 0 {
		return desc
	}

	reply, err := d.probe(ctx, desc.Ports[0])
	if err != nil {
		d.logger.Debug("identification probe failed", "port", desc.Ports[0], "error", err)
		return desc
	}

	for _, sig := range probeSignatures {
		if !strings.Contains(reply, sig.marker) {
			continue
		}
		desc.Label = sig.label
		desc.Type = sig.deviceType
		desc.Capabilities = append([]device.Capability(nil), sig.capabilities...)
		desc.Throughput = sig.throughput
		d.logger.Info("probe identified device", "type", desc.Type, "port", desc.Ports[0])
		return desc
	}

	d.logger.Debug("probe reply unrecognised", "port", desc.Ports[0])
	return desc
}
