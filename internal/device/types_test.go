package device

import (
	"errors"
	"testing"
	"time"
)

func TestDescriptorHasCapability(t *testing.T) {
	d := Descriptor{
		Label:        "Bus Pirate 5",
		Type:         TypeBusPirate,
		Capabilities: []Capability{CapSPI, CapI2C, CapUART},
	}

	if !d.HasCapability(CapSPI) {
		t.Error("expected spi capability")
	}
	if d.HasCapability(CapFaultInject) {
		t.Error("did not expect fault_inject capability")
	}
}

func TestDescriptorHasCapabilities(t *testing.T) {
	d := Descriptor{
		Capabilities: []Capability{CapSPI, CapI2C, CapUART},
	}

	tests := []struct {
		name string
		caps []Capability
		want bool
	}{
		{"empty list trivially satisfied", nil, true},
		{"subset", []Capability{CapSPI, CapUART}, true},
		{"missing one", []Capability{CapSPI, CapSWD}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.HasCapabilities(tt.caps); got != tt.want {
				t.Errorf("HasCapabilities(%v) = %v, want %v", tt.caps, got, tt.want)
			}
		})
	}
}

func TestDescriptorClone(t *testing.T) {
	orig := Descriptor{
		Label:        "Tigard",
		Type:         TypeTigard,
		VendorID:     0x0403,
		ProductID:    0x6010,
		Serial:       "TG1234",
		Ports:        []string{"/dev/ttyUSB0", "/dev/ttyUSB1"},
		Capabilities: []Capability{CapSPI, CapJTAG},
		DetectedAt:   time.Now().UTC(),
	}

	cpy := orig.Clone()
	cpy.Ports[0] = "/dev/ttyUSB9"
	cpy.Capabilities[0] = CapUART

	if orig.Ports[0] != "/dev/ttyUSB0" {
		t.Error("Clone shares Ports backing array with original")
	}
	if orig.Capabilities[0] != CapSPI {
		t.Error("Clone shares Capabilities backing array with original")
	}
}

func TestDescriptorIdentity(t *testing.T) {
	a := Descriptor{VendorID: 0x1209, ProductID: 0x7331, Serial: "6buspirate", Ports: []string{"A"}}
	b := Descriptor{VendorID: 0x1209, ProductID: 0x7331, Serial: "6buspirate", Ports: []string{"B"}}
	c := Descriptor{VendorID: 0x1209, ProductID: 0x7331, Serial: "other"}

	if a.Identity() != b.Identity() {
		t.Error("same (vid, pid, serial) must yield equal identity regardless of ports")
	}
	if a.Identity() == c.Identity() {
		t.Error("different serials must yield distinct identities")
	}
}

func TestThroughputClassRank(t *testing.T) {
	if !(ThroughputHigh.Rank() < ThroughputMedium.Rank() &&
		ThroughputMedium.Rank() < ThroughputLow.Rank()) {
		t.Error("throughput ranking must order high < medium < low")
	}
	if ThroughputClass("bogus").Rank() <= ThroughputLow.Rank() {
		t.Error("unrecognised classes must sort last")
	}
}

func TestValidateDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		wantErr error
	}{
		{
			name: "valid",
			desc: Descriptor{Label: "Curious Bolt", Type: TypeCuriousBolt,
				Capabilities: []Capability{CapFaultInject, CapGPIO}},
			wantErr: nil,
		},
		{
			name:    "missing type",
			desc:    Descriptor{Label: "x"},
			wantErr: ErrInvalidDescriptor,
		},
		{
			name:    "missing label",
			desc:    Descriptor{Type: TypeUnknown},
			wantErr: ErrInvalidDescriptor,
		},
		{
			name: "bad capability",
			desc: Descriptor{Label: "x", Type: TypeUnknown,
				Capabilities: []Capability{"teleport"}},
			wantErr: ErrInvalidCapability,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescriptor(tt.desc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	for _, r := range []Role{RoleGlitcher, RoleMonitor, RoleFlasher, RolePrimary} {
		if err := ValidateRole(r); err != nil {
			t.Errorf("ValidateRole(%q) = %v, want nil", r, err)
		}
	}
	if err := ValidateRole("driver"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("got %v, want ErrInvalidRole", err)
	}
}
