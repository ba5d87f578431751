// Package midi models the note/rest event sequences that the bridge
// uploads to the playback device, including validation and normalization
// of caller-supplied input.
package midi

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when a tool is invoked before the device
// bridge has been constructed. This is an ordering bug in the hosting
// process, not a runtime condition worth retrying.
var ErrNotInitialized = errors.New("device bridge has not been initialised")

// ValidationKind classifies why caller input was rejected.
type ValidationKind string

const (
	ValidationMissingField ValidationKind = "missing_required_field"
	ValidationOutOfRange   ValidationKind = "out_of_range"
	ValidationEmpty        ValidationKind = "empty_collection"
	ValidationTooMany      ValidationKind = "too_many_items"
	ValidationUnknownValue ValidationKind = "unknown_value"
)

// ValidationError describes a rejected field in caller-supplied sequence
// input. Index is the offending event's position in the sequence, or -1
// when the error is not scoped to a single event.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Index   int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sequence[%d]: %s", e.Index, e.Message)
	}
	return e.Message
}

func missingRequiredField(field string) *ValidationError {
	return &ValidationError{
		Kind:    ValidationMissingField,
		Field:   field,
		Index:   -1,
		Message: fmt.Sprintf("'%s' is required when type is 'note'", field),
	}
}

func outOfRange(field string, got any, low, high int) *ValidationError {
	return &ValidationError{
		Kind:    ValidationOutOfRange,
		Field:   field,
		Index:   -1,
		Message: fmt.Sprintf("'%s' must be between %d and %d, got %v", field, low, high, got),
	}
}

func emptyCollection(field string) *ValidationError {
	return &ValidationError{
		Kind:    ValidationEmpty,
		Field:   field,
		Index:   -1,
		Message: fmt.Sprintf("'%s' must contain at least one event", field),
	}
}

func tooManyItems(field string, max int) *ValidationError {
	return &ValidationError{
		Kind:    ValidationTooMany,
		Field:   field,
		Index:   -1,
		Message: fmt.Sprintf("'%s' must contain at most %d events", field, max),
	}
}
