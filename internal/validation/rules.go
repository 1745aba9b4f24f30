// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/outreach/internal/errors"
)

var (
	// emailRegex is a basic syntactic email validation pattern. Contactability
	// beyond well-formedness is out of scope; the relay reports hard bounces.
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// EmailAddress validates that a string is a syntactically well-formed email address.
var EmailAddress = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_email_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !emailRegex.MatchString(s) {
		return validation.NewError("validation_email", "must be a well-formed email address")
	}
	return nil
})
