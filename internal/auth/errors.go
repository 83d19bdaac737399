package auth

import (
	"errors"
	"strings"
)

var (
	ErrRateLimited        = errors.New("too many attempts, please try again later")
	ErrInvalidCredentials = errors.New("Incorrect password. Please try again")
	ErrAccountSuspended   = errors.New("This account has been suspended. Please contact support.")
	ErrAccountInactive    = errors.New("Your account is inactive. Please contact support")
)

// ValidationError carries the accumulated field-level messages from the input
// validator. The UI maps them to inline display text.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "\n")
}

func NewValidationError(messages []string) *ValidationError {
	return &ValidationError{Messages: messages}
}
