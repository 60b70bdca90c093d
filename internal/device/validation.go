package device

import "fmt"

// validCapabilities is the closed set accepted by ValidateDescriptor.
var validCapabilities = map[Capability]bool{
	CapSPI:         true,
	CapI2C:         true,
	CapUART:        true,
	CapJTAG:        true,
	CapSWD:         true,
	CapGPIO:        true,
	CapPower:       true,
	CapFaultInject: true,
}

// validRoles is the closed set accepted by ValidateRole.
var validRoles = map[Role]bool{
	RoleGlitcher: true,
	RoleMonitor:  true,
	RoleFlasher:  true,
	RolePrimary:  true,
}

// ValidateDescriptor checks a descriptor for structural errors.
//
// A descriptor must carry a type and a label, and every declared capability
// must be from the known set. Zero vendor/product ids and an empty serial
// are allowed: unknown hardware legitimately reports neither.
func ValidateDescriptor(d Descriptor) error {
	if d.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidDescriptor)
	}
	if d.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidDescriptor)
	}
	for _, c := range d.Capabilities {
		if !validCapabilities[c] {
			return fmt.Errorf("%w: %q", ErrInvalidCapability, c)
		}
	}
	return nil
}

// ValidateRole checks a role against the known set.
func ValidateRole(r Role) error {
	if !validRoles[r] {
		return fmt.Errorf("%w: %q", ErrInvalidRole, r)
	}
	return nil
}
