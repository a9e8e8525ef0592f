package command

import (
	"errors"
	"fmt"
)

// ErrPersistence marks a write that the event store did not accept
var ErrPersistence = errors.New("failed to persist")

// ErrEmailTaken is returned when registering an address already in use
var ErrEmailTaken = errors.New("email already registered")

// ValidationError reports bad input at the command boundary
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
