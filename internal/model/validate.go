package model

import (
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateBroadcastEvent checks that ev can be broadcast. Only a display
// name is required; every other field has a fallback.
func ValidateBroadcastEvent(ev Event) error {
	var ve ValidationError

	title := ev.DisplayTitle()
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "title or name is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	if ev.Date != "" {
		if _, ok := ParseTimestamp(ev.Date, nil); !ok {
			ve.Errors = append(ve.Errors, FieldError{Field: "date", Message: "is not a recognized timestamp"})
		}
	}
	if ev.StartTime != "" {
		if _, ok := ParseTimestamp(ev.StartTime, nil); !ok {
			ve.Errors = append(ve.Errors, FieldError{Field: "startTime", Message: "is not a recognized timestamp"})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
