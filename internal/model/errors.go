package model

import "fmt"

// ValidationError reports client supplied fields that break a business
// rule. Message is meant to be shown to the operator as is.
type ValidationError struct {
	Field   string // json name of the offending field, empty for cross-field rules
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string // hall, movie, show, user
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError reports a write that collides with existing state, such as
// a duplicate hall name or a show overlapping another one in the same hall.
type ConflictError struct {
	Message string
	Shows   []Show // overlapping shows, when the conflict is a schedule clash
}

func (e *ConflictError) Error() string { return e.Message }

// Invalid is shorthand for a ValidationError on one field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}
