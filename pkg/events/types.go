// Package events defines event types and publisher interfaces for gateway
// interaction events.
package events

// InteractionEvent is emitted after the gateway has processed a request and
// persisted the interaction. EventID uniquely identifies the emission so
// downstream consumers can deduplicate.
type InteractionEvent struct {
	EventID   string `json:"eventId"`
	Module    string `json:"module"`
	Intent    string `json:"intent,omitempty"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
