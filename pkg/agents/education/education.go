// Package education is a built-in stub agent that drafts study plans.
package education

import (
	"context"
	"fmt"
)

// Agent drafts simple study plans from a subject and available hours.
type Agent struct{}

// New creates the education agent.
func New() *Agent { return &Agent{} }

// HandleRequest supports the generate intent.
func (a *Agent) HandleRequest(_ context.Context, intent string, data map[string]any, history []map[string]any) (map[string]any, error) {
	if intent != "generate" {
		return map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("Unsupported intent: %s", intent),
			"result":  map[string]any{},
		}, nil
	}

	subject, _ := data["subject"].(string)
	if subject == "" {
		return map[string]any{
			"status":  "error",
			"message": "Missing required field: subject",
			"result":  map[string]any{},
		}, nil
	}

	hours := 1.0
	if h, ok := data["hours_per_week"].(float64); ok && h > 0 {
		hours = h
	}

	return map[string]any{
		"status":  "success",
		"message": "Study plan generated",
		"result": map[string]any{
			"subject":        subject,
			"hours_per_week": hours,
			"sessions":       int(hours * 2),
			"prior_sessions": len(history),
		},
	}, nil
}
