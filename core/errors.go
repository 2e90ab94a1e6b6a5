package core

// Code is a stable error identifier returned by registry operations.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	// NotFound: no entity matches the pin, name, handle or class tag.
	NotFound Code = "not_found"
	// NotApplicable: the entity exists but is the wrong kind for the call,
	// e.g. a push-button query on an output line.
	NotApplicable Code = "not_applicable"
	// InvalidParams: registration or control arguments are unusable.
	InvalidParams Code = "invalid_params"
	// PinInUse: the line is already owned by another digital entity.
	PinInUse Code = "pin_in_use"
	// Unsupported: the scheduler was built without the needed driver.
	Unsupported Code = "unsupported"
)

// E keeps the operation and an optional cause next to a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := e.Op + ": " + string(e.C)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against a bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

func newErr(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

func wrapErr(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// CodeOf extracts a Code from an error. A nil error yields "" and an error
// carrying no code yields "error".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return CodeOf(u.Unwrap())
	}
	return "error"
}
