package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers classify with errors.Is.
var (
	ErrConflict     = errors.New("reservation conflicts with the selected dates")
	ErrNotFound     = errors.New("reservation not found")
	ErrPersistence  = errors.New("persisting reservation failed")
	ErrDeletion     = errors.New("deleting reservation failed")
	ErrStoreTimeout = errors.New("store call timed out")
)

// Client-facing messages for the sentinel errors.
const (
	MsgConflict    = "Other reservation conflicts with the selected dates."
	MsgPersistence = "Error on db operation."
	MsgDeletion    = "Error on deleting reservation."
)

// NotFoundMessage is the client-facing message for a missing reservation.
func NotFoundMessage(id string) string {
	return fmt.Sprintf("Reservation not found for id %s.", id)
}

// ValidationError carries every rule violation of a rejected request.
type ValidationError struct {
	Messages []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid reservation request: " + strings.Join(e.Messages, " ")
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
