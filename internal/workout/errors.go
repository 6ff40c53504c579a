package workout

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("state conflict")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("persistence unavailable")
)

// Error is a classified failure. Kind is one of the Err* sentinels.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is lets errors.Is match the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf reports bad input.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf reports a lifecycle violation.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrStateConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing or archived entity.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Transient wraps a persistence failure the caller may retry.
func Transient(err error, msg string) error {
	return &Error{Kind: ErrTransient, Msg: msg, Err: err}
}
