package domain

import "errors"

// Error kinds. Callers wrap these with context via fmt.Errorf("...: %w", ...)
// and the API layer maps them to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicate          = errors.New("already exists")
)

// Specific errors that still match their kind through errors.Is.
var (
	ErrOrderNotFound = &kindError{kind: ErrNotFound, msg: "order not found"}
	ErrUserNotFound  = &kindError{kind: ErrNotFound, msg: "user not found"}
	ErrEmailTaken    = &kindError{kind: ErrDuplicate, msg: "email already exists"}
	ErrStaleOrder    = &kindError{kind: ErrConflict, msg: "order was modified concurrently"}
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// IsPermission reports whether err is one of the permission failures
// (missing identity, bad credentials, expired session or denied action).
func IsPermission(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrForbidden)
}
