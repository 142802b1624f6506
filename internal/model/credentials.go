package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const PasswordMinLen = 4

var validate = validator.New()

// ValidateCredentials checks the registration input format.
func ValidateCredentials(email, password string) error {
	var ve ValidationError
	if err := validate.Var(email, "required,email"); err != nil {
		ve.add("email", fieldMessage("email", err))
	}
	if err := validate.Var(password, fmt.Sprintf("required,min=%d", PasswordMinLen)); err != nil {
		ve.add("password", fieldMessage("password", err))
	}
	return ve.orNil()
}

// ValidateLogin checks that a login carries a well-formed email and a password.
func ValidateLogin(email, password string) error {
	var ve ValidationError
	if err := validate.Var(email, "required,email"); err != nil {
		ve.add("email", fieldMessage("email", err))
	}
	if password == "" {
		ve.add("password", FieldMessage("password", "required", ""))
	}
	return ve.orNil()
}

// NewValidationErrorFrom converts validator errors (as produced by gin binding) into a ValidationError.
func NewValidationErrorFrom(err error) (*ValidationError, bool) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, false
	}
	var ve ValidationError
	for _, fe := range errs {
		field := lowerFirst(fe.Field())
		ve.add(field, FieldMessage(field, fe.Tag(), fe.Param()))
	}
	return &ve, true
}

func fieldMessage(field string, err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return FieldMessage(field, errs[0].Tag(), errs[0].Param())
	}
	return field + " is invalid"
}

// FieldMessage renders a human readable message for a failed validation tag.
func FieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
