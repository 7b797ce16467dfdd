package events

import "context"

// EventPublisher is the interface for publishing interaction events.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, event *InteractionEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage
// without events).
type NoOpPublisher struct{}

// PublishInteraction is a no-op.
func (p *NoOpPublisher) PublishInteraction(_ context.Context, _ *InteractionEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for
// testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *InteractionEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *InteractionEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishInteraction calls the callback.
func (p *CallbackPublisher) PublishInteraction(ctx context.Context, event *InteractionEvent) error {
	return p.callback(ctx, event)
}
