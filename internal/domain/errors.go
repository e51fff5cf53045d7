package domain

import "errors"

// Error kinds. Callers classify with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrTenantScope = errors.New("tenant scope violation")
)

// Error carries a user-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error     { return &Error{Kind: ErrValidation, Message: msg} }
func Forbidden(msg string) error      { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) error       { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error       { return &Error{Kind: ErrConflict, Message: msg} }
func ScopeViolation(msg string) error { return &Error{Kind: ErrTenantScope, Message: "tenant scope violation: " + msg} }
