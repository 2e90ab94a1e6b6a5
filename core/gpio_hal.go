package core

// GPIOPin identifies a hardware GPIO line
type GPIOPin uint32

// PinMode selects the direction and bias of a digital line
type PinMode uint8

const (
	Input PinMode = iota
	InputPullUp
	InputPullDown
	Output
)

// String returns the mode name used in config files and debug output
func (m PinMode) String() string {
	switch m {
	case Input:
		return "input"
	case InputPullUp:
		return "input_pullup"
	case InputPullDown:
		return "input_pulldown"
	case Output:
		return "output"
	default:
		return "invalid"
	}
}

// Valid reports whether m is one of the defined modes
func (m PinMode) Valid() bool {
	return m <= Output
}

// IsInput reports whether m configures the line for reading
func (m PinMode) IsInput() bool {
	return m == Input || m == InputPullUp || m == InputPullDown
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigurePin sets the direction and bias of a line.
	// Returns error if pin is invalid or the mode is not supported by the hardware.
	ConfigurePin(pin GPIOPin, mode PinMode) error

	// SetPin drives the pin high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}
