package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrEmptyExport = errors.New("no subscriptions to export")
)

// Reason enumerates why a field was rejected.
type Reason string

const (
	ReasonMissing      Reason = "missing"
	ReasonMalformed    Reason = "malformed"
	ReasonNegative     Reason = "negative"
	ReasonUnknownValue Reason = "unknown_value"
	ReasonTooLong      Reason = "too_long"
)

// ValidationError reports the first field of an input that failed to parse or validate.
type ValidationError struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
	Value  string `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is returned when an id does not match any stored record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("subscription %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CorruptDataError describes a persisted value that could not be decoded.
// It is logged by the stores and never returned to callers.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt data under key %q: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}
