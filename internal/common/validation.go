package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Validator collects field errors for one request.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field applies rules to value and records every failure.
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage joins all failures with "; ".
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required rejects nil values and blank strings.
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxLength limits a string field to max characters.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// ValidateAndReturnError converts collected failures into an InvalidArgument AppError.
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
