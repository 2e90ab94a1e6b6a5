package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is the duty cycle value written to a PWM pin. Its scale is
// whatever the driver accepts (0-255 on most targets).
type PWMValue uint32

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigurePWM prepares a pin for PWM output.
	ConfigurePWM(pin PWMPin) error

	// SetDutyCycle sets the PWM duty cycle for a pin
	// value: 0 (fully off) to MaxValue() (fully on)
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// MaxValue returns the largest duty value the driver accepts
	MaxValue() PWMValue
}
