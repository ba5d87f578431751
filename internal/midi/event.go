package midi

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
)

// EventKind is the kind of a sequence step: a sounding note or a rest.
type EventKind string

const (
	KindNote EventKind = "note"
	KindRest EventKind = "rest"
)

func ValidEventKinds() []EventKind {
	return []EventKind{KindNote, KindRest}
}

const (
	// DefaultVelocity is applied to note events that omit a velocity.
	DefaultVelocity = 100
	// TicksPerQuarterNote is the device clock resolution.
	TicksPerQuarterNote = 24

	MinNote     = 0
	MaxNote     = 127
	MinVelocity = 1
	MaxVelocity = 127
)

// Event is a single step in a monophonic sequence. Note and Velocity are
// pointers so that "absent" survives into the wire payload as an omitted
// key rather than a zero value; the device distinguishes the two.
type Event struct {
	Type     string `json:"type" validate:"required,oneof=note rest"`
	Ticks    int    `json:"ticks" validate:"gt=0"`
	Note     *int   `json:"note,omitempty" validate:"omitempty,min=0,max=127"`
	Velocity *int   `json:"velocity,omitempty" validate:"omitempty,min=1,max=127"`
}

var validate = validator.New()

// NormalizeEvent validates raw event input and returns its normalized form.
// Normalization is part of validation, not a separate pass: note events get
// a default velocity, and rest events have stray note fields cleared rather
// than rejected. The one unrecoverable case is a note without a note number,
// which has no meaningful default.
func NormalizeEvent(e Event) (Event, error) {
	if err := validate.Struct(e); err != nil {
		return Event{}, translateFieldError(e, err)
	}

	switch EventKind(e.Type) {
	case KindNote:
		if e.Note == nil {
			return Event{}, missingRequiredField("note")
		}
		if e.Velocity == nil {
			velocity := DefaultVelocity
			e.Velocity = &velocity
		}
	case KindRest:
		// Ignore note-specific fields for rests
		e.Note = nil
		e.Velocity = nil
	}

	return e, nil
}

// translateFieldError converts validator's field errors into the domain
// validation taxonomy, keeping only the first failure.
func translateFieldError(e Event, err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return &ValidationError{Kind: ValidationUnknownValue, Index: -1, Message: err.Error()}
	}

	fe := fieldErrors[0]
	switch fe.StructField() {
	case "Type":
		return unknownEventKind(e.Type)
	case "Ticks":
		return &ValidationError{
			Kind:    ValidationOutOfRange,
			Field:   "ticks",
			Index:   -1,
			Message: fmt.Sprintf("'ticks' must be a positive number of clock ticks, got %d", e.Ticks),
		}
	case "Note":
		return outOfRange("note", fe.Value(), MinNote, MaxNote)
	case "Velocity":
		return outOfRange("velocity", fe.Value(), MinVelocity, MaxVelocity)
	default:
		return &ValidationError{Kind: ValidationUnknownValue, Index: -1, Message: fe.Error()}
	}
}

// unknownEventKind builds the error for an unrecognized event type,
// suggesting the closest valid kind when the input looks like a typo.
func unknownEventKind(got string) *ValidationError {
	message := fmt.Sprintf("unknown event type %q (valid types: note, rest)", got)
	if suggestion := suggestKind(got); suggestion != "" {
		message = fmt.Sprintf("%s, did you mean %q?", message, suggestion)
	}
	return &ValidationError{
		Kind:    ValidationUnknownValue,
		Field:   "type",
		Index:   -1,
		Message: message,
	}
}

func suggestKind(got string) string {
	gotLower := strings.ToLower(got)
	best := ""
	bestDistance := 3 // suggestions beyond this distance are noise

	for _, kind := range ValidEventKinds() {
		distance := levenshtein.ComputeDistance(gotLower, string(kind))
		if distance < bestDistance {
			bestDistance = distance
			best = string(kind)
		}
	}

	return best
}
