// Package finance is a built-in stub agent with simple expense summaries.
package finance

import (
	"context"
	"fmt"
)

// Agent summarizes expense lists.
type Agent struct{}

// New creates the finance agent.
func New() *Agent { return &Agent{} }

// HandleRequest supports the analyze intent.
func (a *Agent) HandleRequest(_ context.Context, intent string, data map[string]any, _ []map[string]any) (map[string]any, error) {
	if intent != "analyze" {
		return map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("Unsupported intent: %s", intent),
			"result":  map[string]any{},
		}, nil
	}

	expenses, _ := data["expenses"].([]any)
	var total float64
	count := 0
	for _, raw := range expenses {
		if n, ok := raw.(float64); ok {
			total += n
			count++
		}
	}

	return map[string]any{
		"status":  "success",
		"message": "Expense analysis completed",
		"result": map[string]any{
			"total":   total,
			"count":   count,
			"average": safeAverage(total, count),
		},
	}, nil
}

func safeAverage(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
