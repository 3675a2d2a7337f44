package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means no persistence path succeeded at all.
	// Callers recover by operating in-memory for the rest of the session.
	ErrStorageUnavailable = errors.New("no storage path available")

	// ErrAuthExpired means the credential is invalid and could not be
	// refreshed. It propagates up to force a logout.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRemoteUnavailable covers network failures and 5xx responses.
	// Best-effort paths swallow it; user-initiated CRUD surfaces it.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrNotFound is returned when a record does not exist. This is a
	// normal outcome for lookups, not a failure.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports invalid caller input caught before any
// network call. The message is surfaced verbatim to the UI.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
