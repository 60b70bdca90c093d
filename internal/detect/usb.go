package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/gousb"
)

// USBEnumerator lists attached USB devices via libusb.
//
// Each call opens a fresh gousb context, so the enumerator itself carries
// no OS resources between scans. Devices that cannot be opened (permission
// problems, kernel drivers holding the interface) are skipped with a log
// line; enumeration only fails when libusb itself does.
type USBEnumerator struct {
	logger Logger
}

// NewUSBEnumerator creates a libusb-backed enumerator.
func NewUSBEnumerator() *USBEnumerator {
	return &USBEnumerator{logger: noopLogger{}}
}

// SetLogger sets the logger for the enumerator.
func (e *USBEnumerator) SetLogger(logger Logger) {
	e.logger = logger
}

// Enumerate returns one RawDevice per attached USB device.
//
// The port field is the physical bus path (bus:port.port...), which is what
// descriptors carry until an adapter maps it to an OS device node. Serial
// numbers are read from the device when it can be opened.
func (e *USBEnumerator) Enumerate(_ context.Context) ([]RawDevice, error) {
	uctx := gousb.NewContext()
	defer uctx.Close()

	var raw []RawDevice

	devs, err := uctx.OpenDevices(func(_ *gousb.DeviceDesc) bool { return true })
	// OpenDevices can return both opened devices and an error when some
	// devices refuse to open. Keep what we got, log the rest.
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("opening usb devices: %w", err)
	}
	if err != nil {
		e.logger.Warn("some usb devices could not be opened", "error", err)
	}

	for _, dev := range devs {
		desc := dev.Desc

		serial, serr := dev.SerialNumber()
		if serr != nil {
			serial = ""
		}
		product, perr := dev.Product()
		if perr != nil {
			product = ""
		}

		raw = append(raw, RawDevice{
			VendorID:    uint16(desc.Vendor),
			ProductID:   uint16(desc.Product),
			Serial:      serial,
			Port:        busPath(desc),
			Description: product,
		})

		if cerr := dev.Close(); cerr != nil {
			e.logger.Debug("closing usb device", "error", cerr)
		}
	}

	return raw, nil
}

// busPath formats the physical topology path of a device, e.g. "1:3.2".
func busPath(desc *gousb.DeviceDesc) string {
	if len(desc.Path) == 0 {
		return fmt.Sprintf("%d:%d", desc.Bus, desc.Address)
	}
	parts := make([]string, len(desc.Path))
	for i, p := range desc.Path {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return fmt.Sprintf("%d:%s", desc.Bus, strings.Join(parts, "."))
}
