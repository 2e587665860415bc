package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidateStruct validates struct
func ValidateStruct(obj interface{}) error {
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation error
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return NewError(CodeBadRequest, strings.Join(messages, "; "))
	}
	return NewErrorWithErr(CodeBadRequest, "validation failed", err)
}

// getFieldErrorMessage gets field error message
func getFieldErrorMessage(fieldError validator.FieldError) string {
	field := fieldError.Field()
	tag := fieldError.Tag()
	param := fieldError.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ParseID parses a positive integer ID from a path or query parameter
func ParseID(raw string) (uint64, error) {
	if raw == "" {
		return 0, NewError(CodeBadRequest, "ID cannot be empty")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, NewError(CodeBadRequest, "ID must be a valid integer")
	}

	if id == 0 {
		return 0, NewError(CodeBadRequest, "ID must be positive")
	}

	return id, nil
}
