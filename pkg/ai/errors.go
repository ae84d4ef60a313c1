package ai

import "errors"

// TransientError marks a failure worth retrying (network, 429, 5xx).
type TransientError struct{ err error }

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

func NewTransientError(err error) error { return &TransientError{err: err} }

// FatalError marks a failure that retrying will not fix (auth, bad request,
// unparseable reply).
type FatalError struct{ err error }

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

func NewFatalError(err error) error { return &FatalError{err: err} }

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
