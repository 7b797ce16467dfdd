// Package creator is the built-in content-generation agent. Its input is
// enriched before dispatch with related context from the Noopur backend; the
// agent itself assembles the generation response, forwards feedback, and
// surfaces remote history.
package creator

import (
	"context"
	"fmt"

	"github.com/morezero/bridge-gateway/pkg/enrich"
	"github.com/morezero/bridge-gateway/pkg/noopur"
)

// Agent handles the generate, feedback and history intents.
type Agent struct {
	enricher *enrich.Enricher
	client   *noopur.Client
}

// New creates the creator agent.
func New(enricher *enrich.Enricher, client *noopur.Client) *Agent {
	return &Agent{enricher: enricher, client: client}
}

// HandleRequest dispatches on intent.
func (a *Agent) HandleRequest(ctx context.Context, intent string, data map[string]any, history []map[string]any) (map[string]any, error) {
	switch intent {
	case "generate":
		return a.generate(data), nil
	case "feedback":
		return a.feedback(ctx, data), nil
	case "history":
		return a.history(ctx, data)
	default:
		return map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("Unsupported intent: %s", intent),
			"result":  map[string]any{},
		}, nil
	}
}

// generate packages the enriched input into the generation result. The heavy
// lifting (remote lookups, fallbacks) already happened in the enrichment
// step.
func (a *Agent) generate(data map[string]any) map[string]any {
	result := map[string]any{}
	if topic, ok := data["topic"]; ok {
		result["topic"] = topic
	}
	if related, ok := data["related_context"]; ok {
		result["related_context"] = related
	}
	if meta, ok := data["generation_metadata"]; ok {
		result["generation_metadata"] = meta
	}
	if recent, ok := data["recent_history"]; ok {
		result["recent_history"] = recent
	}

	return map[string]any{
		"status":  "success",
		"message": "Generation prepared",
		"result":  result,
	}
}

// feedback forwards the validated canonical payload to the remote backend.
func (a *Agent) feedback(ctx context.Context, data map[string]any) map[string]any {
	if a.enricher == nil {
		return map[string]any{
			"status":  "success",
			"message": "Feedback recorded",
			"result":  map[string]any{"forwarded": false},
		}
	}
	resp := a.enricher.ForwardFeedback(ctx, data)
	return map[string]any{
		"status":  "success",
		"message": "Feedback recorded",
		"result":  map[string]any{"forwarded": true, "remote": resp},
	}
}

// history surfaces recent remote generations, optionally filtered by topic.
func (a *Agent) history(ctx context.Context, data map[string]any) (map[string]any, error) {
	topic, _ := data["topic"].(string)
	if a.client == nil || !a.client.Enabled() {
		return map[string]any{
			"status":  "success",
			"message": "Remote history disabled",
			"result":  map[string]any{"items": []any{}},
		}, nil
	}

	items, err := a.client.History(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}

	mapped := make([]any, 0, len(items))
	for _, it := range items {
		mapped = append(mapped, map[string]any{
			"id":         it.ID,
			"text":       it.Text,
			"score":      it.Score,
			"created_at": it.CreatedAt,
		})
	}
	return map[string]any{
		"status":  "success",
		"message": "History fetched",
		"result":  map[string]any{"items": mapped},
	}, nil
}
