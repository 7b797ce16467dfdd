// Package mathmod is a built-in module implementing basic numeric operations
// over the plugin contract.
package mathmod

import (
	"context"
	"fmt"
	"log/slog"
)

const logPrefix = "modules:mathmod"

// Module performs aggregate operations on a numbers array.
type Module struct{}

// New creates the math module.
func New() *Module { return &Module{} }

// Process computes the requested operation over data["numbers"].
func (m *Module) Process(_ context.Context, data map[string]any, _ []map[string]any) (map[string]any, error) {
	operation, _ := data["operation"].(string)
	if operation == "" {
		return errResult("Missing required field: operation"), nil
	}

	rawNumbers, ok := data["numbers"].([]any)
	if !ok || len(rawNumbers) == 0 {
		return errResult("Missing or invalid numbers array"), nil
	}

	nums := make([]float64, 0, len(rawNumbers))
	for _, raw := range rawNumbers {
		n, ok := toFloat(raw)
		if !ok {
			return errResult("All numbers must be numeric"), nil
		}
		nums = append(nums, n)
	}

	var result float64
	switch operation {
	case "add":
		for _, n := range nums {
			result += n
		}
	case "multiply":
		result = 1
		for _, n := range nums {
			result *= n
		}
	case "average":
		for _, n := range nums {
			result += n
		}
		result /= float64(len(nums))
	case "max":
		result = nums[0]
		for _, n := range nums[1:] {
			if n > result {
				result = n
			}
		}
	case "min":
		result = nums[0]
		for _, n := range nums[1:] {
			if n < result {
				result = n
			}
		}
	default:
		return errResult(fmt.Sprintf("Unsupported operation: %s", operation)), nil
	}

	slog.Debug(fmt.Sprintf("%s - %s over %d inputs", logPrefix, operation, len(nums)))

	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Mathematical %s completed successfully", operation),
		"result": map[string]any{
			"operation":     operation,
			"input_numbers": rawNumbers,
			"result":        result,
		},
	}, nil
}

// Metadata describes the module.
func (m *Module) Metadata() map[string]any {
	return map[string]any{
		"name":                 "example_math",
		"version":              "1.0.0",
		"description":          "Mathematical operations module",
		"supported_operations": []string{"add", "multiply", "average", "max", "min"},
	}
}

func errResult(message string) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": message,
		"result":  map[string]any{},
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
