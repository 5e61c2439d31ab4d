package validation

import (
	"fmt"
	"strings"

	"github.com/moniflow/moniflow/pkg/apperror"
)

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator validates input data
type Validator struct {
	errors []FieldError
}

// New creates a new Validator
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns the validation error as an AppError
func (v *Validator) Error() *apperror.AppError {
	if !v.HasErrors() {
		return nil
	}

	fieldErrors := make(map[string]string)
	for _, e := range v.errors {
		fieldErrors[e.Field] = e.Message
	}

	return apperror.ValidationWithFields(fieldErrors)
}

// Errors returns the validation errors
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, fmt.Sprintf("%s is required", field))
	}
	return v
}

// NonEmptyMap validates that a string mapping has at least one entry
func (v *Validator) NonEmptyMap(field string, value map[string]string) *Validator {
	if len(value) == 0 {
		v.AddError(field, fmt.Sprintf("%s must not be empty", field))
	}
	return v
}

// Positive validates that an integer is strictly greater than zero
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("%s must be a positive integer", field))
	}
	return v
}

// NonNegative validates that an integer is zero or greater
func (v *Validator) NonNegative(field string, value int) *Validator {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("%s must not be negative", field))
	}
	return v
}

// OneOf validates that a string is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
	return v
}
