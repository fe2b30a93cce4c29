package errors

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse is one field-level failure in a 400 payload.
type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fieldError.Param() != "" {
			return fmt.Sprintf("Must be at least %s characters", fieldError.Param())
		}
		return "Value is too short or too small"
	case "max":
		if fieldError.Param() != "" {
			return fmt.Sprintf("Must not exceed %s characters", fieldError.Param())
		}
		return "Value is too long or too large"
	case "oneof":
		if fieldError.Param() != "" {
			return fmt.Sprintf("Must be one of: %s", fieldError.Param())
		}
		return "Value must be one of the allowed options"
	default:
		return "Invalid value"
	}
}

// getJSONFieldName resolves the wire name for a struct field so the response
// points at the key the caller actually sent.
func getJSONFieldName(structType reflect.Type, fieldName string) string {
	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return fieldName
	}

	parts := strings.Split(jsonTag, ",")
	return parts[0]
}

// FormatValidationErrors turns binding failures into field-level responses.
// Type mismatches from the JSON decoder are reported the same way as
// validator failures; anything else yields an empty slice and the caller
// falls back to a generic message.
func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	var errorsList []ValidationErrorResponse

	if err == nil {
		return errorsList
	}

	if jsonErr, ok := err.(*json.UnmarshalTypeError); ok {
		return []ValidationErrorResponse{
			{
				Field:   jsonErr.Field,
				Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", jsonErr.Field, jsonErr.Type, jsonErr.Value),
			},
		}
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errorsList
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	errorsList = make([]ValidationErrorResponse, len(validationErrors))

	for i, fieldError := range validationErrors {
		jsonField := fieldError.Field()
		if model != nil {
			jsonField = getJSONFieldName(structType, fieldError.Field())
		}

		errorsList[i] = ValidationErrorResponse{
			Field:   jsonField,
			Message: msgForTag(fieldError),
		}
	}

	return errorsList
}
