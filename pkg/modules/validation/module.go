// Package validation is a built-in module that validates values against
// common formats over the plugin contract.
package validation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?1?[-.\s]?\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})$`)
	urlPattern   = regexp.MustCompile(`^https?://[-\w.]+(?::[0-9]+)?(?:/[\w/_.]*(?:\?[\w&=%.]*)?(?:#[\w.]*)?)?$`)
)

// Module checks values against format validators.
type Module struct{}

// New creates the validation module.
func New() *Module { return &Module{} }

// Process validates data["value"] according to data["validation_type"].
func (m *Module) Process(_ context.Context, data map[string]any, _ []map[string]any) (map[string]any, error) {
	validationType, _ := data["validation_type"].(string)
	if validationType == "" {
		return errResult("Missing required field: validation_type"), nil
	}

	rawValue, ok := data["value"]
	if !ok || rawValue == nil || rawValue == "" {
		return errResult("Missing required field: value"), nil
	}
	value := fmt.Sprintf("%v", rawValue)

	var (
		isValid bool
		details map[string]any
	)
	switch validationType {
	case "email":
		isValid = emailPattern.MatchString(value)
		details = map[string]any{"pattern": "email_format"}
	case "phone":
		isValid = phonePattern.MatchString(value)
		details = map[string]any{"pattern": "phone_format"}
	case "url":
		isValid = urlPattern.MatchString(value)
		details = map[string]any{"pattern": "url_format"}
	case "length":
		minLength := intOption(data, "min_length", 0)
		maxLength := intOption(data, "max_length", 1000)
		length := len(value)
		isValid = length >= minLength && length <= maxLength
		details = map[string]any{
			"actual_length": length,
			"min_length":    minLength,
			"max_length":    maxLength,
		}
	case "numeric":
		_, err := strconv.ParseFloat(value, 64)
		isValid = err == nil
		if isValid {
			details = map[string]any{"type": "numeric"}
		} else {
			details = map[string]any{"type": "non_numeric"}
		}
	default:
		return errResult(fmt.Sprintf("Unsupported validation type: %s", validationType)), nil
	}

	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Validation %s completed successfully", validationType),
		"result": map[string]any{
			"validation_type": validationType,
			"value":           value,
			"is_valid":        isValid,
			"details":         details,
		},
	}, nil
}

// Metadata describes the module.
func (m *Module) Metadata() map[string]any {
	return map[string]any{
		"name":                  "example_validation",
		"version":               "1.0.0",
		"description":           "Data validation module",
		"supported_validations": []string{"email", "phone", "url", "length", "numeric"},
	}
}

func errResult(message string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": message,
		"result":  map[string]any{},
	}
}

func intOption(data map[string]any, key string, def int) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}
