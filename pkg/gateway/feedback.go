package gateway

import (
	"fmt"
	"math"
	"time"
)

// Feedback is the canonical feedback payload routed to feedback-capable
// handlers.
type Feedback struct {
	GenerationID int64     `json:"generation_id"`
	Command      string    `json:"command"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// AsMap renders the validated feedback back into the mapping shape handlers
// consume.
func (f Feedback) AsMap() map[string]any {
	return map[string]any{
		"generation_id": f.GenerationID,
		"command":       f.Command,
		"user_id":       f.UserID,
		"timestamp":     f.Timestamp.UTC().Format(time.RFC3339),
	}
}

// ValidateFeedback checks data against the canonical feedback schema:
// generation_id integer, command string, user_id string, timestamp RFC3339
// (server-assigned when absent). A descriptive error is returned on any
// missing field or type mismatch; the dispatcher converts it into an error
// envelope.
func ValidateFeedback(data map[string]any) (*Feedback, error) {
	genID, err := integerField(data, "generation_id")
	if err != nil {
		return nil, fmt.Errorf("Invalid feedback schema: %w", err)
	}

	command, err := stringField(data, "command")
	if err != nil {
		return nil, fmt.Errorf("Invalid feedback schema: %w", err)
	}

	userID, err := stringField(data, "user_id")
	if err != nil {
		return nil, fmt.Errorf("Invalid feedback schema: %w", err)
	}

	ts := time.Now().UTC()
	if raw, ok := data["timestamp"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("Invalid feedback schema: timestamp must be an RFC3339 string")
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("Invalid feedback schema: timestamp is not valid RFC3339: %w", err)
		}
		ts = parsed
	}

	return &Feedback{
		GenerationID: genID,
		Command:      command,
		UserID:       userID,
		Timestamp:    ts,
	}, nil
}

// integerField accepts the integer encodings JSON decoding can produce.
// Floats with a fractional part are a type mismatch, not a truncation.
func integerField(data map[string]any, key string) (int64, error) {
	raw, ok := data[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("field %q must be an integer", key)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("field %q must be an integer", key)
	}
}

func stringField(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	return s, nil
}
