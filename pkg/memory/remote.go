package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/morezero/bridge-gateway/pkg/noopur"
)

const remoteLogPrefix = "memory:remote"

// RemoteStore derives history and context from the Noopur "list generations"
// call. It is read-heavy: StoreInteraction forwards a minimal subset of
// generation and feedback interactions for telemetry, best-effort.
//
// Every remote failure (network, timeout, bad schema) yields an empty
// sequence, never an error: the adapter owns degradation so the dispatcher
// does not have to.
type RemoteStore struct {
	client *noopur.Client
}

// NewRemoteStore wraps a Noopur client as a memory adapter.
func NewRemoteStore(client *noopur.Client) *RemoteStore {
	return &RemoteStore{client: client}
}

// StoreInteraction forwards creator generations to the generate endpoint and
// score-bearing responses to the feedback endpoint. Remote errors are
// swallowed; the adapter never raises past its boundary.
func (s *RemoteStore) StoreInteraction(ctx context.Context, userID string, requestData, responseData map[string]any) error {
	if s.client == nil || !s.client.Enabled() {
		return nil
	}

	if module, _ := requestData["module"].(string); module == "creator" {
		data, _ := requestData["data"].(map[string]any)
		prompt, _ := data["prompt"].(string)
		if prompt == "" {
			prompt, _ = data["topic"].(string)
		}
		payload := &noopur.GenerateRequest{Topic: prompt}
		if _, err := s.client.Generate(ctx, payload); err != nil {
			slog.Debug(fmt.Sprintf("%s - generation forward failed: %v", remoteLogPrefix, err))
		}
	}

	result, _ := responseData["result"].(map[string]any)
	intent, _ := requestData["intent"].(string)
	if intent == "feedback" || hasKey(result, "score") {
		fb := map[string]any{}
		if id, ok := result["id"]; ok {
			fb["generation_id"] = id
		}
		if score, ok := result["score"]; ok {
			fb["command"] = fmt.Sprintf("%v", score)
		}
		if len(fb) > 0 {
			if _, err := s.client.Feedback(ctx, fb); err != nil {
				slog.Debug(fmt.Sprintf("%s - feedback forward failed: %v", remoteLogPrefix, err))
			}
		}
	}
	return nil
}

// GetUserHistory maps remote generations into the interaction shape, sorted
// by (timestamp, id) descending.
func (s *RemoteStore) GetUserHistory(ctx context.Context, userID string) ([]Interaction, error) {
	return s.fetch(ctx, 0), nil
}

// GetContext returns the top limit remote generations as context.
func (s *RemoteStore) GetContext(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return s.fetch(ctx, limit), nil
}

func (s *RemoteStore) fetch(ctx context.Context, limit int) []Interaction {
	if s.client == nil || !s.client.Enabled() {
		return []Interaction{}
	}

	items, err := s.client.History(ctx, "")
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - history fetch failed: %v", remoteLogPrefix, err))
		return []Interaction{}
	}

	mapped := make([]Interaction, 0, len(items))
	for _, it := range items {
		ts, _ := time.Parse(time.RFC3339, it.CreatedAt)
		mapped = append(mapped, Interaction{
			ID:        it.ID,
			Module:    "creator",
			Timestamp: ts,
			Request:   map[string]any{"prompt": nil},
			Response: map[string]any{
				"generated_text": it.Text,
				"score":          it.Score,
				"id":             it.ID,
			},
		})
	}

	sort.SliceStable(mapped, func(i, j int) bool {
		if !mapped[i].Timestamp.Equal(mapped[j].Timestamp) {
			return mapped[i].Timestamp.After(mapped[j].Timestamp)
		}
		return mapped[i].ID > mapped[j].ID
	})

	if limit > 0 && len(mapped) > limit {
		mapped = mapped[:limit]
	}
	return mapped
}

func hasKey(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}
