package sink

import "fmt"

// Error wraps a sink-backend failure with a Transient flag, grounded on
// tonimelisma/onedrive-go's internal/graph/errors.go classifyStatus/
// isRetryable split between sentinel errors for 5xx/429 (retryable) and
// 4xx (authoritative rejection). Backends set Transient for timeouts,
// connection resets, and 5xx/429-equivalent responses; everything else
// (auth failure, not-found on delete of a required object, disk full) is
// permanent.
type Error struct {
	Op        string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}

	return fmt.Sprintf("sink: %s (%s): %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Transient(op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, Transient: true, Err: err}
}

func Permanent(op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, Transient: false, Err: err}
}

// IsTransient reports whether err is a transient sink error.
func IsTransient(err error) bool {
	se, ok := err.(*Error)
	return ok && se.Transient
}
