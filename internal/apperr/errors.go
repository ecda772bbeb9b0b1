// Package apperr holds the error kinds shared by the stores and the HTTP layer.
package apperr

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFound wraps ErrNotFound with the name of the missing thing, e.g. NotFound("quiz").
func NotFound(what string) error {
	return errors.Wrap(ErrNotFound, what)
}

// Conflict wraps ErrConflict with the name of the duplicated thing.
func Conflict(what string) error {
	return errors.Wrap(ErrConflict, what)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
