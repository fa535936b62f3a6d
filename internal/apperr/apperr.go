// Package apperr defines the error kinds shared by the ledger, the schedule
// service and the HTTP layer. Errors are plain wrapped sentinels so callers
// classify them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing identifiers or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced task, assignment, completion or member that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermission marks an action attempted by a member lacking the required role.
	ErrPermission = errors.New("permission denied")
	// ErrConflict marks a state transition that is not allowed from the record's current state.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientPoints is returned when a spend exceeds the member's balance.
	ErrInsufficientPoints = errors.New("insufficient points")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

func Permission(action string) error {
	return fmt.Errorf("%w: %s", ErrPermission, action)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Code returns a short machine-readable code for err's kind, or "internal"
// when err does not wrap a known kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermission):
		return "permission"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
