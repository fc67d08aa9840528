// Package validation checks struct tags with a shared validator instance.
package validation

import (
	"fmt"
	"strings"

	validatorV10 "github.com/go-playground/validator/v10"
	apperrors "github.com/leeforge/plugincatalog/errors"
)

var validator *validatorV10.Validate

func init() {
	validator = validatorV10.New(validatorV10.WithRequiredStructEnabled())
}

// Struct validates v and reports every failing field in one validation error.
func Struct(v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validatorV10.ValidationErrors)
	if !ok {
		return apperrors.NewValidation(err.Error())
	}

	fields := make(map[string]string, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg := getValidationMessage(fe)
		fields[fe.Namespace()] = msg
		messages = append(messages, fe.Field()+" "+msg)
	}
	return apperrors.NewValidation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}

func getValidationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "hostname_port":
		return "must be a host:port address"
	case "dir":
		return "must be an existing directory"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
