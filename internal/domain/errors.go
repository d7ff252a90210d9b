package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoDecisions     = errors.New("no decisions for requested period")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidAnchor   = errors.New("cycle anchor day must be between 1 and 28")
)

// ValidationError is returned for malformed submissions. Nothing is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ParseError identifies a malformed statement line. It aborts the whole batch.
type ParseError struct {
	Line  int // 1-based
	Raw   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d %q: %v", e.Line, e.Raw, e.Err)
	}
	return fmt.Sprintf("line %d %q: bad %s: %v", e.Line, e.Raw, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
