package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag name or a nil func.
	_ = v.RegisterValidation("thoughtid", func(fl validator.FieldLevel) bool {
		return valueobjects.IsValidThoughtID(fl.Field().String())
	})
	_ = v.RegisterValidation("tagid", func(fl validator.FieldLevel) bool {
		_, err := valueobjects.ParseTagID(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateStruct validates a struct based on its validation tags.
// Field failures come back as a single VALIDATION error with one detail
// entry per field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.NewValidationError(err.Error()).WithCause(err)
	}

	messages := make([]string, 0, len(validationErrors))
	appErr := pkgerrors.NewValidationError("")
	for _, e := range validationErrors {
		msg := formatFieldError(e)
		messages = append(messages, msg)
		appErr.WithDetail(strings.ToLower(e.Field()), msg)
	}
	appErr.Message = strings.Join(messages, "; ")
	return appErr
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "thoughtid":
		return fmt.Sprintf("%s must contain only letters, digits, '-' and '_'", field)
	case "tagid":
		return fmt.Sprintf("%s must be a valid tag (letters, digits, _ : . / -)", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
