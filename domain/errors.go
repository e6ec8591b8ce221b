package domain

import "errors"

// ErrNotFound indicates that no todo matches the requested identifier.
var ErrNotFound = errors.New("not found")

// ValidationKind classifies a rejected name.
type ValidationKind int

const (
	MissingField ValidationKind = iota + 1
	WrongType
	EmptyValue
)

var validationMessages = map[ValidationKind]string{
	MissingField: "Name is missing",
	WrongType:    "Name should be a string",
	EmptyValue:   "Name should not be empty",
}

func (k ValidationKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case WrongType:
		return "wrong_type"
	case EmptyValue:
		return "empty_value"
	}
	return "unknown"
}

// ValidationError is returned when a request payload carries an unusable name.
// Message is the client-facing text.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func newValidationError(kind ValidationKind) *ValidationError {
	return &ValidationError{Kind: kind, Message: validationMessages[kind]}
}

func (e *ValidationError) Error() string {
	return e.Message
}
