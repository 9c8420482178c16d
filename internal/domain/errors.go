package domain

import "errors"

// Error kinds surfaced by the services. Callers wrap them with context using
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrBlocked           = errors.New("blocked")
	ErrMembershipExpired = errors.New("membership expired")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
)

// ErrorCode returns a stable machine readable code for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrMembershipExpired):
		return "membership_expired"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}
