package schema

import (
	"fmt"
)

// ValidationError represents a schema validation failure. The first violation in a
// batch is reported; the batch is rejected as a whole.
type ValidationError struct {
	Schema       string `json:"schema"`
	Version      int    `json:"version"`
	Record       int    `json:"record"` // index of the offending record, -1 for the batch itself
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
	ExpectedType string `json:"expected_type,omitempty"`
	ActualType   string `json:"actual_type,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d: field '%s': %s (schema %s v%d)",
			e.Record, e.Field, e.Message, e.Schema, e.Version)
	}
	if e.Record >= 0 {
		return fmt.Sprintf("record %d: %s (schema %s v%d)", e.Record, e.Message, e.Schema, e.Version)
	}
	return fmt.Sprintf("%s (schema %s v%d)", e.Message, e.Schema, e.Version)
}

// ValidationDetailer surfaces structured validation details for API error responses.
// Consumers extract details without type-asserting against concrete structs.
type ValidationDetailer interface {
	Details() map[string]interface{}
}

// Details returns the structured fields of the violation.
func (e *ValidationError) Details() map[string]interface{} {
	d := map[string]interface{}{"record": e.Record}
	if e.Field != "" {
		d["field"] = e.Field
	}
	if e.ExpectedType != "" {
		d["expected_type"] = e.ExpectedType
	}
	if e.ActualType != "" {
		d["actual_type"] = e.ActualType
	}
	return d
}

// NewTypeMismatchError creates an error for type mismatches.
func NewTypeMismatchError(s *Spec, record int, field, expected, actual string) *ValidationError {
	return &ValidationError{
		Schema:       s.Name,
		Version:      s.Version,
		Record:       record,
		Message:      fmt.Sprintf("expected %s, got %s", expected, actual),
		Field:        field,
		ExpectedType: expected,
		ActualType:   actual,
	}
}

// NewRequiredFieldError creates an error for missing required fields.
func NewRequiredFieldError(s *Spec, record int, field string) *ValidationError {
	return &ValidationError{
		Schema:  s.Name,
		Version: s.Version,
		Record:  record,
		Message: "required field is missing",
		Field:   field,
	}
}
