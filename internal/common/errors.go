// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Lookup and write errors.
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	// Upstream errors.
	ErrUpstream        = errors.New("upstream service failed")
	ErrUnauthorized    = errors.New("upstream rejected credentials")
	ErrPlaidRateLimit  = errors.New("plaid rate limit exceeded")
	ErrInvalidAccount  = errors.New("invalid account")
	ErrUnknownProvider = errors.New("unknown provider")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// ValidationError describes a malformed input row or field.
type ValidationError struct {
	Err   error
	Field string
	Line  int
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid %s: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError for field at line (0 when not line-based).
func NewValidationError(line int, field string, err error) error {
	return &ValidationError{Line: line, Field: field, Err: err}
}

// PatternError reports a rule whose pattern cannot be compiled.
type PatternError struct {
	Err     error
	RuleID  string
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("rule %s: invalid pattern %q: %v", e.RuleID, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure that aborted an operation.
type StorageError struct {
	Err error
	Op  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UpstreamError reports an external API that was unreachable or refused the request.
type UpstreamError struct {
	Err        error
	Service    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// UserMessage returns the action the user should take.
func (e *UpstreamError) UserMessage() string {
	if errors.Is(e.Err, ErrUnauthorized) {
		return fmt.Sprintf("%s rejected the credentials, check API key", e.Service)
	}
	return fmt.Sprintf("%s is unavailable, try again later", e.Service)
}
