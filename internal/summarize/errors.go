package summarize

import "errors"

// Kind groups failures by how a caller should react to them.
type Kind int

const (
	// KindInvalidInput means the caller sent nothing to summarize.
	KindInvalidInput Kind = iota + 1
	// KindTimeout means the backend did not answer within its deadline.
	KindTimeout
	// KindBackend means the backend answered with a non-success status.
	KindBackend
	// KindUnexpected covers connectivity and decoding failures.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindTimeout:
		return "timeout"
	case KindBackend:
		return "backend_error"
	case KindUnexpected:
		return "unexpected_error"
	default:
		return "unknown"
	}
}

// ErrNoInput is the cause of KindInvalidInput errors.
var ErrNoInput = errors.New("there is no input")

// Error is returned by Service.Summarize.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
