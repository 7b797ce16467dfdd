// Package enrich prepares generation-family requests before dispatch by
// attaching related context fetched from the Noopur backend, with a layered
// fallback onto local memory.
//
// Enrichment is strictly best-effort: every step swallows its own failures
// and the worst case returns the caller's data unmodified. Attach operations
// are set-if-absent so caller-supplied fields are never overwritten.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/bridge-gateway/pkg/memory"
	"github.com/morezero/bridge-gateway/pkg/noopur"
)

const logPrefix = "enrich:enrich"

const (
	// recentHistoryLimit bounds how many remote generations are attached as
	// recent_history.
	recentHistoryLimit = 5
	// defaultGenerationType is assumed when the request does not name one.
	defaultGenerationType = "story"
)

// Enricher augments generation-family input data.
type Enricher struct {
	memory memory.Adapter
	client *noopur.Client
}

// New creates an Enricher. Either collaborator may be nil; the corresponding
// steps are skipped.
func New(mem memory.Adapter, client *noopur.Client) *Enricher {
	return &Enricher{memory: mem, client: client}
}

// Prepare runs the enrichment chain and returns the augmented data. It never
// fails: any error anywhere degrades to the local-memory fallback, and if
// even that fails the original data comes back unmodified.
func (e *Enricher) Prepare(ctx context.Context, userID string, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}

	topic := extractField(data, "topic")
	goal := extractField(data, "goal")
	genType := extractField(data, "type")
	if genType == "" {
		genType = defaultGenerationType
	}

	remote := e.client != nil && e.client.Enabled()

	if remote {
		if items, err := e.client.History(ctx, ""); err == nil && len(items) > 0 {
			recent := items
			if len(recent) > recentHistoryLimit {
				recent = recent[:recentHistoryLimit]
			}
			setDefault(data, "recent_history", historyAsMaps(recent))
		}
	}

	if remote && topic != "" && goal != "" {
		resp, err := e.client.Generate(ctx, &noopur.GenerateRequest{Topic: topic, Goal: goal, Type: genType})
		if err == nil {
			setDefault(data, "related_context", resp.RelatedContext)
			if resp.GeneratedText != "" || resp.GenerationID != nil {
				setDefault(data, "generation_metadata", map[string]any{
					"source":               "external",
					"can_provide_feedback": true,
					"generation_id":        generationID(resp),
				})
			}
			return data
		}
		slog.Warn(fmt.Sprintf("%s - remote generate failed, falling back to local memory: %v", logPrefix, err))
	}

	e.attachLocalContext(ctx, userID, data)
	return data
}

// attachLocalContext is the terminal fallback: up to three recent local
// interactions as related_context.
func (e *Enricher) attachLocalContext(ctx context.Context, userID string, data map[string]any) {
	if e.memory == nil || userID == "" {
		return
	}
	items, err := e.memory.GetContext(ctx, userID, memory.DefaultContextLimit)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - local context fetch failed: %v", logPrefix, err))
		return
	}
	mapped := make([]any, 0, len(items))
	for _, it := range items {
		mapped = append(mapped, it.AsMap())
	}
	setDefault(data, "related_context", mapped)
}

// extractField reads key from the top level or from a nested data mapping.
func extractField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	if nested, ok := data["data"].(map[string]any); ok {
		if s, ok := nested[key].(string); ok {
			return s
		}
	}
	return ""
}

// setDefault attaches value under key only when the key is absent.
func setDefault(data map[string]any, key string, value any) {
	if _, exists := data[key]; !exists {
		data[key] = value
	}
}

func historyAsMaps(items []noopur.HistoryItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"id":         it.ID,
			"text":       it.Text,
			"score":      it.Score,
			"created_at": it.CreatedAt,
		})
	}
	return out
}

func generationID(resp *noopur.GenerateResponse) any {
	if resp.GenerationID == nil {
		return nil
	}
	return *resp.GenerationID
}

// ForwardFeedback normalizes a feedback payload and forwards it to the
// Noopur feedback endpoint. Both the {id, feedback} and the
// {generation_id, command} shapes are accepted; anything else is sent as-is.
func (e *Enricher) ForwardFeedback(ctx context.Context, payload map[string]any) map[string]any {
	if e.client == nil || !e.client.Enabled() {
		return map[string]any{"status": "disabled"}
	}

	var body map[string]any
	switch {
	case hasKeys(payload, "id", "feedback"):
		body = map[string]any{"id": payload["id"], "feedback": payload["feedback"]}
	case hasKeys(payload, "generation_id", "command"):
		body = map[string]any{"generation_id": payload["generation_id"], "command": payload["command"]}
	default:
		body = payload
	}

	resp, err := e.client.Feedback(ctx, body)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - feedback forward failed: %v", logPrefix, err))
		return map[string]any{"status": "error"}
	}
	return resp
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
