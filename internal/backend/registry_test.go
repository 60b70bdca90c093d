package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/riglab-core/internal/device"
)

// stubBackend is a minimal Backend for registry tests.
type stubBackend struct {
	desc      device.Descriptor
	connected bool
	connects  int
}

func newStubBackend(desc device.Descriptor) (Backend, error) {
	return &stubBackend{desc: desc}, nil
}

func (s *stubBackend) Descriptor() device.Descriptor       { return s.desc }
func (s *stubBackend) Capabilities() []device.Capability   { return s.desc.Capabilities }
func (s *stubBackend) Connected() bool                     { return s.connected }
func (s *stubBackend) Disconnect() error                   { s.connected = false; return nil }
func (s *stubBackend) Connect(_ context.Context) error {
	if s.connected {
		return nil
	}
	s.connected = true
	s.connects++
	return nil
}

func TestRegisterAndNewRoundTrip(t *testing.T) {
	Reset()
	defer Reset()

	Register("stub", newStubBackend)

	desc := device.Descriptor{Label: "Stub", Type: "stub"}
	b, err := New(desc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := b.(*stubBackend); !ok {
		t.Fatalf("New returned %T, want *stubBackend", b)
	}
	if b.Descriptor().Label != "Stub" {
		t.Error("backend not bound to the provided descriptor")
	}
}

func TestNewUnknownType(t *testing.T) {
	Reset()
	defer Reset()

	_, err := New(device.Descriptor{Label: "x", Type: "nonexistent"})
	if !errors.Is(err, ErrUnknownDeviceType) {
		t.Fatalf("got %v, want ErrUnknownDeviceType", err)
	}
}

func TestRegisterReplacesPriorConstructor(t *testing.T) {
	Reset()
	defer Reset()

	Register("stub", func(device.Descriptor) (Backend, error) {
		t.Fatal("replaced constructor must not be invoked")
		return nil, nil
	})
	Register("stub", newStubBackend)

	if _, err := New(device.Descriptor{Type: "stub"}); err != nil {
		t.Fatalf("New after re-register: %v", err)
	}
}

func TestConnectIdempotent(t *testing.T) {
	s := &stubBackend{}
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if s.connects != 1 {
		t.Errorf("connect performed %d times, want 1 (idempotent)", s.connects)
	}
	if !s.Connected() {
		t.Error("backend should remain connected")
	}
}

func TestTypesSorted(t *testing.T) {
	Reset()
	defer Reset()

	Register("tigard", newStubBackend)
	Register("bolt", newStubBackend)
	Register("stlink", newStubBackend)

	types := Types()
	want := []device.DeviceType{"bolt", "stlink", "tigard"}
	if len(types) != len(want) {
		t.Fatalf("got %d types, want %d", len(types), len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}
