package errors

import (
	"errors"
	"fmt"
)

var (
	// Connection level.
	ErrAuthFailure      = fmt.Errorf("authentication failed")
	ErrDuplicateSession = fmt.Errorf("session id already registered")
	ErrUnknownSession   = fmt.Errorf("unknown session")

	// Request preconditions.
	ErrNotInRoom     = fmt.Errorf("not in any room")
	ErrEmptyMessage  = fmt.Errorf("message cannot be empty")
	ErrInvalidTarget = fmt.Errorf("cannot create a direct message with yourself")

	// Missing entities.
	ErrTargetNotFound  = fmt.Errorf("target user not found")
	ErrDMNotFound      = fmt.Errorf("direct message room not found")
	ErrNotAParticipant = fmt.Errorf("not a participant in this direct message")

	// Accounts.
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Runtime.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// ClientMessage translates an internal error into the text carried by
// an error event. Unknown errors collapse to a generic text so
// internals never leak to clients.
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnknownSession):
		return "User not authenticated"
	case errors.Is(err, ErrNotInRoom):
		return "Not in any room"
	case errors.Is(err, ErrEmptyMessage):
		return "Message cannot be empty"
	case errors.Is(err, ErrInvalidTarget):
		return "Cannot create DM with yourself"
	case errors.Is(err, ErrTargetNotFound):
		return "Target user not found"
	case errors.Is(err, ErrDMNotFound):
		return "DM room not found"
	case errors.Is(err, ErrNotAParticipant):
		return "You are not a participant in this DM"
	case errors.Is(err, ErrAuthFailure):
		return "Invalid authentication token"
	default:
		return "Internal error"
	}
}
