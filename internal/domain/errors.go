package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput categorizes every validation failure raised by the domain and the engines.
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound             = errors.New("not found")
	ErrIneligible           = errors.New("offer is not eligible for need")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyApproved      = errors.New("match already approved")
	ErrInsufficientQuantity = errors.New("insufficient offer quantity")
	ErrStopStateFinal       = errors.New("stop state already recorded")
)

// ValidationError names the offending field of a rejected record.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
