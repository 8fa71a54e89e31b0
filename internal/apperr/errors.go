package apperr

import "errors"

// Failure classes used across the service layer. Handlers map these onto
// HTTP statuses; everything else is treated as internal.
var (
	ErrValidation          = errors.New("validation failed")
	ErrAuth                = errors.New("authentication failed")
	ErrNotRegistered       = errors.New("account not registered")
	ErrNotFound            = errors.New("not found")
	ErrTransient           = errors.New("transient failure")
	ErrInvalidParticipants = errors.New("participants do not belong to chat")
	ErrSessionInvalid      = errors.New("session invalidated")
)

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
