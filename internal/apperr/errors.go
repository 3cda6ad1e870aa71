// Package apperr defines the error kinds surfaced by the reference store.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrIO         = errors.New("i/o failure")
)

// ValidationError reports a required field that is missing or invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IOError wraps a file system failure of the data file or its directory.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) match.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NotFound returns an error wrapping ErrNotFound for the given id.
func NotFound(id string) error {
	return fmt.Errorf("reference %q: %w", id, ErrNotFound)
}
