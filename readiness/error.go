package readiness

import (
	"errors"
)

// UnrecoverableError stops Repeat at once. Used for failures that no amount
// of waiting fixes, such as a rejected backend password.
type UnrecoverableError struct {
	err error
}

func (e *UnrecoverableError) Error() string {
	return "unrecoverable: " + e.err.Error()
}

func (e *UnrecoverableError) Unwrap() error {
	return e.err
}

// NewUnrecoverableError marks err as not worth retrying.
func NewUnrecoverableError(err error) error {
	return &UnrecoverableError{err: err}
}

// IsUnrecoverable reports whether err, or anything it wraps, was marked by
// NewUnrecoverableError.
func IsUnrecoverable(err error) bool {
	var e *UnrecoverableError
	return errors.As(err, &e)
}
