package backend

// Default bus speeds, matching what the supported instruments negotiate
// out of the box.
const (
	defaultSPISpeedHz  = 1_000_000
	defaultI2CSpeedHz  = 400_000
	defaultUARTBaud    = 115200
	defaultGlitchWidth = 100
)

// SPIConfig holds SPI bus parameters.
type SPIConfig struct {
	SpeedHz     int
	Mode        int // 0-3, clock polarity/phase
	BitsPerWord int
	CSActiveLow bool
}

// DefaultSPIConfig returns the conventional 1 MHz mode-0 setup.
func DefaultSPIConfig() SPIConfig {
	return SPIConfig{
		SpeedHz:     defaultSPISpeedHz,
		Mode:        0,
		BitsPerWord: 8,
		CSActiveLow: true,
	}
}

// I2CConfig holds I2C bus parameters.
type I2CConfig struct {
	SpeedHz     int
	AddressBits int // 7 or 10
}

// DefaultI2CConfig returns the conventional 400 kHz 7-bit setup.
func DefaultI2CConfig() I2CConfig {
	return I2CConfig{
		SpeedHz:     defaultI2CSpeedHz,
		AddressBits: 7,
	}
}

// UARTConfig holds UART parameters.
type UARTConfig struct {
	Baud     int
	DataBits int
	Parity   string // "N", "E", "O"
	StopBits int
}

// DefaultUARTConfig returns 115200 8N1.
func DefaultUARTConfig() UARTConfig {
	return UARTConfig{
		Baud:     defaultUARTBaud,
		DataBits: 8,
		Parity:   "N",
		StopBits: 1,
	}
}

// GlitchConfig holds fault-injection timing parameters.
//
// Width is the pulse length and Offset the delay from trigger (or from Fire
// on untriggered setups), both in the injector's native time unit
// (nanoseconds on the Curious Bolt).
type GlitchConfig struct {
	Width  int
	Offset int
	Repeat int

	// TriggerChannel selects the trigger input; negative means untriggered
	// (Fire emits immediately).
	TriggerChannel int
	TriggerEdge    TriggerEdge
}

// DefaultGlitchConfig returns a minimal untriggered single pulse.
func DefaultGlitchConfig() GlitchConfig {
	return GlitchConfig{
		Width:          defaultGlitchWidth,
		Offset:         0,
		Repeat:         1,
		TriggerChannel: -1,
		TriggerEdge:    EdgeFalling,
	}
}
