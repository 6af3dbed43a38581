package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into the taxonomy of spec.md §7.
type Kind int

const (
	// KindInvalidInput: the submission itself is malformed.
	KindInvalidInput Kind = iota
	// KindResolveFailure: archive expansion or manifest dereference failed.
	KindResolveFailure
	// KindCheckFailure: one or more files failed validation. Expected, not a
	// system error.
	KindCheckFailure
	// KindHandlerHookError: a user-supplied hook raised.
	KindHandlerHookError
	// KindSinkTransient: an I/O-level failure presumed retryable.
	KindSinkTransient
	// KindSinkPermanent: an authoritative rejection, or a transient error
	// whose retries were exhausted.
	KindSinkPermanent
	// KindInvariantViolation: internal state corruption. Fatal.
	KindInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindResolveFailure:
		return "resolve_failure"
	case KindCheckFailure:
		return "check_failure"
	case KindHandlerHookError:
		return "handler_hook_error"
	case KindSinkTransient:
		return "sink_transient"
	case KindSinkPermanent:
		return "sink_permanent"
	case KindInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a taxonomy Kind and the operation
// name it occurred in, so callers can branch on Kind while still getting
// errors.Is/errors.As composition with the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and KindInvariantViolation otherwise — an unclassified error
// reaching the runtime is itself an invariant violation.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return KindInvariantViolation
}

// Sentinel errors for conditions that do not carry additional context.
var (
	ErrDuplicateFile            = errors.New("duplicate file")
	ErrPathTraversal            = errors.New("path traversal in archive entry")
	ErrAlreadyExecuted          = errors.New("handler instance already executed")
	ErrHandlerNotRegistered     = errors.New("handler not registered")
	ErrHarvestNotRollbackable   = errors.New("harvester does not support removal; stale catalog entry left in place")
	ErrDestPathRequired         = errors.New("dest_path must be set before a store-class action executes")
	ErrCheckFailedCannotPublish = errors.New("file with failed check cannot execute any publish action")
	ErrLateDeletionRequired     = errors.New("upload+delete together requires LateDeletion and a DeleteTarget, else the delete targets the file just uploaded")
)
