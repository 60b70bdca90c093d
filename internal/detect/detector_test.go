package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/riglab-core/internal/device"
)

// fakeEnumerator returns a fixed set of raw devices.
type fakeEnumerator struct {
	devices []RawDevice
	err     error
}

func (f *fakeEnumerator) Enumerate(_ context.Context) ([]RawDevice, error) {
	return f.devices, f.err
}

func TestDetectEmptyResultIsValid(t *testing.T) {
	d := NewDetector(&fakeEnumerator{})

	devices, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("expected empty map, got %d entries", len(devices))
	}
}

func TestDetectEnumerationFailure(t *testing.T) {
	d := NewDetector(&fakeEnumerator{err: errors.New("libusb broke")})

	_, err := d.Detect(context.Background())
	if !errors.Is(err, ErrEnumerationFailed) {
		t.Fatalf("got %v, want ErrEnumerationFailed", err)
	}
}

func TestDeduplicateMultiPortDevice(t *testing.T) {
	// Two enumerated ports of one physical Bus Pirate 5.
	d := NewDetector(&fakeEnumerator{devices: []RawDevice{
		{VendorID: 0x1209, ProductID: 0x7331, Serial: "6buspirate", Port: "A"},
		{VendorID: 0x1209, ProductID: 0x7331, Serial: "6buspirate", Port: "B"},
	}})

	devices, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected exactly one descriptor, got %d", len(devices))
	}

	desc, ok := devices["buspirate"]
	if !ok {
		t.Fatalf("expected key %q, got %v", "buspirate", devices)
	}
	if len(desc.Ports) != 2 || desc.Ports[0] != "A" || desc.Ports[1] != "B" {
		t.Errorf("Ports = %v, want [A B]", desc.Ports)
	}
}

func TestDeduplicateDistinctSerials(t *testing.T) {
	d := NewDetector(&fakeEnumerator{devices: []RawDevice{
		{VendorID: 0x1209, ProductID: 0x7331, Serial: "pirate-1", Port: "A"},
		{VendorID: 0x1209, ProductID: 0x7331, Serial: "pirate-2", Port: "B"},
	}})

	devices, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected two descriptors, got %d", len(devices))
	}
	if _, ok := devices["buspirate"]; !ok {
		t.Error("first instance should use the bare type key")
	}
	if _, ok := devices["buspirate-2"]; !ok {
		t.Error("second instance should use a numbered key")
	}
}

func TestUnknownIdentityTaggedAndExcluded(t *testing.T) {
	enum := &fakeEnumerator{devices: []RawDevice{
		{VendorID: 0xDEAD, ProductID: 0xBEEF, Port: "X", Description: "Mystery Gadget"},
		{VendorID: 0x0483, ProductID: 0x3748, Serial: "stl", Port: "Y"},
	}}
	d := NewDetector(enum)
	ctx := context.Background()

	devices, err := d.Detect(ctx)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("unknown identity must be excluded from Detect, got %v", devices)
	}

	all, err := d.List(ctx, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List(includeUnknown) should return both, got %d", len(all))
	}

	var unknown device.Descriptor
	for _, desc := range all {
		if desc.Type == device.TypeUnknown {
			unknown = desc
		}
	}
	if unknown.Label != "Mystery Gadget" {
		t.Errorf("unknown descriptor label = %q, want description text", unknown.Label)
	}
}

func TestProbeResolvesRP2040Board(t *testing.T) {
	d := NewDetector(&fakeEnumerator{devices: []RawDevice{
		{VendorID: 0x2E8A, ProductID: 0x000A, Serial: "rp1", Port: "P0"},
	}})
	d.SetProbe(func(_ context.Context, port string) (string, error) {
		if port != "P0" {
			t.Errorf("probe sent to %q, want first port P0", port)
		}
		return "Curious Bolt glitcher v2.1", nil
	})

	devices, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	desc, ok := devices["bolt"]
	if !ok {
		t.Fatalf("expected probe to resolve the board to %q, got %v", "bolt", devices)
	}
	if !desc.HasCapability(device.CapFaultInject) {
		t.Error("resolved Curious Bolt must declare fault_inject")
	}
}

func TestProbeFailureLeavesBoardUnresolved(t *testing.T) {
	d := NewDetector(&fakeEnumerator{devices: []RawDevice{
		{VendorID: 0x2E8A, ProductID: 0x000A, Serial: "rp1", Port: "P0"},
	}})
	d.SetProbe(func(context.Context, string) (string, error) {
		return "", errors.New("port busy")
	})

	devices, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("probe failure must not fail detection: %v", err)
	}
	if _, ok := devices["rp2040-unknown"]; !ok {
		t.Errorf("board should stay rp2040-unknown, got %v", devices)
	}
}

func TestKnownDeviceTable(t *testing.T) {
	tests := []struct {
		vid, pid uint16
		wantType device.DeviceType
		wantCap  device.Capability
	}{
		{0x1209, 0x7331, device.TypeBusPirate, device.CapSPI},
		{0x2047, 0x0900, device.TypeBusPirate, device.CapSPI},
		{0x0483, 0x3748, device.TypeSTLink, device.CapSWD},
		{0x0403, 0x6010, device.TypeTigard, device.CapJTAG},
		{0x2E8A, 0x1063, device.TypeCuriousBolt, device.CapFaultInject},
	}

	for _, tt := range tests {
		known, ok := knownUSBDevices[usbID{tt.vid, tt.pid}]
		if !ok {
			t.Errorf("%04x:%04x missing from identity table", tt.vid, tt.pid)
			continue
		}
		if known.deviceType != tt.wantType {
			t.Errorf("%04x:%04x type = %q, want %q", tt.vid, tt.pid, known.deviceType, tt.wantType)
		}
		found := false
		for _, c := range known.capabilities {
			if c == tt.wantCap {
				found = true
			}
		}
		if !found {
			t.Errorf("%04x:%04x missing capability %q", tt.vid, tt.pid, tt.wantCap)
		}
	}
}
