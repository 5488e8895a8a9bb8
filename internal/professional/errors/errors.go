package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrMissingFile         = fmt.Errorf("missing resume file")
	ErrDuplicateIdentifier = fmt.Errorf("duplicate identifier")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrValidation          = fmt.Errorf("validation failed")
)

// Code names a field-level validation problem.
type Code string

const (
	CodeRequired            Code = "Required"
	CodeInvalidEmail        Code = "InvalidEmail"
	CodeInvalidPhone        Code = "InvalidPhone"
	CodeInvalidSource       Code = "InvalidSource"
	CodeMissingIdentifier   Code = "MissingIdentifier"
	CodeDuplicateIdentifier Code = "DuplicateIdentifier"
	CodeTooLong             Code = "TooLong"
	CodeInvalidType         Code = "InvalidType"
)

// FieldError is a single problem found on one field of a candidate record.
type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// ValidationError enumerates every field-level problem of a rejected record.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError holding a single field problem.
func NewValidationError(field string, code Code, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Code: code, Message: message}}}
}

// Add appends a field problem.
func (v *ValidationError) Add(field string, code Code, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Code: code, Message: message})
}

// Empty reports whether no problem was recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// HasCode reports whether any recorded problem carries the given code.
func (v *ValidationError) HasCode(code Code) bool {
	for _, f := range v.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrDuplicateIdentifier:
		return v.HasCode(CodeDuplicateIdentifier)
	}
	return false
}

// AsValidation unwraps err into a ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
