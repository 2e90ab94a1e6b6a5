package core

// pinOwner tells which registry holds a digital line
type pinOwner uint8

const (
	ownerNone pinOwner = iota
	ownerInput
	ownerOutput
	ownerEncoder
)

func (o pinOwner) String() string {
	switch o {
	case ownerInput:
		return "an input"
	case ownerOutput:
		return "an output"
	case ownerEncoder:
		return "an encoder line"
	default:
		return "unregistered"
	}
}

// ownerOf scans the digital registries in registration order
func (s *Scheduler) ownerOf(pin GPIOPin) pinOwner {
	for i := range s.inputs {
		if s.inputs[i].pin == pin {
			return ownerInput
		}
	}
	for i := range s.outputs {
		if s.outputs[i].pin == pin {
			return ownerOutput
		}
	}
	for i := range s.encoders {
		if s.encoders[i].dataPin == pin || s.encoders[i].clockPin == pin {
			return ownerEncoder
		}
	}
	return ownerNone
}

func (s *Scheduler) pinTaken(pin GPIOPin) bool {
	return s.ownerOf(pin) != ownerNone
}

// missing builds the lookup error for a pin that is not of the wanted kind
func (s *Scheduler) missing(op string, pin GPIOPin) error {
	owner := s.ownerOf(pin)
	if owner == ownerNone {
		return newErr(NotFound, op, "pin "+utoa(uint32(pin)))
	}
	return newErr(NotApplicable, op, "pin "+utoa(uint32(pin))+" is "+owner.String())
}
