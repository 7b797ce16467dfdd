package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/bridge-gateway/pkg/events"
	"github.com/morezero/bridge-gateway/pkg/memory"
	"github.com/morezero/bridge-gateway/pkg/noopur"
	"github.com/morezero/bridge-gateway/pkg/registry"
)

const logPrefix = "gateway:gateway"

const (
	defaultGenerationModule = "creator"
	intentFeedback          = "feedback"
)

var errInvalidInterface = errors.New("handler exposes no recognized entry point")

// Enricher augments generation-family input data before dispatch. It must
// never fail; the worst case returns the input unmodified.
type Enricher interface {
	Prepare(ctx context.Context, userID string, data map[string]any) map[string]any
}

// Gateway routes requests to registered handlers and normalizes their output
// into the canonical envelope. It is stateless across requests; the registry
// is never mutated after construction, so concurrent dispatches are safe.
type Gateway struct {
	registry         *registry.Registry
	memory           memory.Adapter
	enricher         Enricher
	publisher        events.EventPublisher
	remote           *noopur.Client
	generationModule string
}

// Params holds parameters for New.
type Params struct {
	Registry *registry.Registry
	Memory   memory.Adapter
	Enricher Enricher
	// Publisher receives interaction events after persistence; nil means no
	// events.
	Publisher events.EventPublisher
	// Remote is used for health checks only; dispatch reaches the remote
	// service through the Enricher and the memory adapter.
	Remote *noopur.Client
	// GenerationModule names the handler family that gets pre-dispatch
	// enrichment and feedback validation. Defaults to "creator".
	GenerationModule string
}

// New creates a Gateway.
func New(params Params) *Gateway {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	genModule := params.GenerationModule
	if genModule == "" {
		genModule = defaultGenerationModule
	}
	return &Gateway{
		registry:         params.Registry,
		memory:           params.Memory,
		enricher:         params.Enricher,
		publisher:        pub,
		remote:           params.Remote,
		generationModule: genModule,
	}
}

// ProcessRequest is the gateway's single entry point. It always returns a
// well-formed envelope; no failure along the way escapes as an error.
func (g *Gateway) ProcessRequest(ctx context.Context, module, intent, userID string, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}

	// Feedback requests are validated against the canonical schema before
	// anything else; a validation failure skips invocation entirely.
	if module == g.generationModule && intent == intentFeedback {
		fb, err := ValidateFeedback(data)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - Feedback validation failed: %v", logPrefix, err))
			return errorEnvelope(err.Error())
		}
		data = fb.AsMap()
		slog.Info(fmt.Sprintf("%s - Feedback validated for user %s", logPrefix, userID))
	}

	history := g.fetchContext(ctx, userID)

	slog.Info(fmt.Sprintf("%s - Processing request module=%s intent=%s user=%s", logPrefix, module, intent, userID))

	if module == g.generationModule && g.enricher != nil {
		data = g.enricher.Prepare(ctx, userID, data)
	}

	raw := g.invoke(ctx, module, intent, data, history)
	normalized := Normalize(raw)

	g.persist(ctx, module, intent, userID, data, normalized)

	slog.Info(fmt.Sprintf("%s - Request processed with status %s", logPrefix, normalized.Status))
	return normalized
}

// fetchContext returns bounded recent history for the user, or nil when no
// user is identified. Adapter failures degrade to an empty context.
func (g *Gateway) fetchContext(ctx context.Context, userID string) []map[string]any {
	if userID == "" || g.memory == nil {
		return nil
	}
	items, err := g.memory.GetContext(ctx, userID, memory.DefaultContextLimit)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - Context fetch failed for user %s: %v", logPrefix, userID, err))
		return nil
	}
	history := make([]map[string]any, 0, len(items))
	for _, it := range items {
		history = append(history, it.AsMap())
	}
	return history
}

// invoke resolves and calls the handler, converting every failure mode into
// an envelope-shaped mapping for normalization.
func (g *Gateway) invoke(ctx context.Context, module, intent string, data map[string]any, history []map[string]any) any {
	h, known := g.registry.Resolve(module)
	if !known {
		return map[string]any{
			"status":  StatusError,
			"message": fmt.Sprintf("Unknown module: %s", module),
			"result":  map[string]any{},
		}
	}
	if h == nil {
		return map[string]any{
			"status":  StatusError,
			"message": fmt.Sprintf("Module %s is invalid or failed to load", module),
			"result":  map[string]any{},
		}
	}

	raw, err := g.callHandler(ctx, h, intent, data, history)
	if errors.Is(err, errInvalidInterface) {
		return map[string]any{
			"status":  StatusError,
			"message": fmt.Sprintf("Module %s has invalid interface", module),
			"result":  map[string]any{},
		}
	}
	if err != nil {
		slog.Error(fmt.Sprintf("%s - Agent processing failed for %s: %v", logPrefix, module, err))
		return map[string]any{
			"status":  StatusError,
			"message": fmt.Sprintf("Agent processing failed: %v", err),
			"result":  map[string]any{},
		}
	}
	return raw
}

// callHandler dispatches on the handler contract. A panicking handler is
// treated the same as one returning an error; it must never take down the
// gateway.
func (g *Gateway) callHandler(ctx context.Context, h registry.Handler, intent string, data map[string]any, history []map[string]any) (raw map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	switch v := h.(type) {
	case registry.Module:
		return v.Process(ctx, data, history)
	case registry.Agent:
		return v.HandleRequest(ctx, intent, data, history)
	default:
		return nil, errInvalidInterface
	}
}

// persist stores the interaction and publishes the interaction event, both
// best-effort. Storage failures are logged and discarded, never propagated.
func (g *Gateway) persist(ctx context.Context, module, intent, userID string, data map[string]any, normalized Envelope) {
	if userID == "" || g.memory == nil {
		return
	}

	requestData := map[string]any{
		"module":  module,
		"intent":  intent,
		"user_id": userID,
		"data":    data,
	}
	if err := g.memory.StoreInteraction(ctx, userID, requestData, normalized.AsMap()); err != nil {
		slog.Error(fmt.Sprintf("%s - Failed to store interaction: %v", logPrefix, err))
	}

	event := &events.InteractionEvent{
		EventID:   uuid.NewString(),
		Module:    module,
		Intent:    intent,
		UserID:    userID,
		Status:    normalized.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := g.publisher.PublishInteraction(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - Failed to publish interaction event: %v", logPrefix, err))
	}
}

// UserHistory returns the full stored history for a user, newest first.
func (g *Gateway) UserHistory(ctx context.Context, userID string) ([]map[string]any, error) {
	if g.memory == nil {
		return []map[string]any{}, nil
	}
	items, err := g.memory.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return interactionsAsMaps(items), nil
}

// UserContext returns the bounded recent context for a user.
func (g *Gateway) UserContext(ctx context.Context, userID string) ([]map[string]any, error) {
	if g.memory == nil {
		return []map[string]any{}, nil
	}
	items, err := g.memory.GetContext(ctx, userID, memory.DefaultContextLimit)
	if err != nil {
		return nil, err
	}
	return interactionsAsMaps(items), nil
}

// HealthOutput is the gateway health summary.
type HealthOutput struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Modules    int               `json:"modules"`
	Timestamp  string            `json:"timestamp"`
}

// Health reports component health: the memory backend, the remote generation
// service (when enabled), and the registry size.
func (g *Gateway) Health(ctx context.Context) *HealthOutput {
	components := map[string]string{"gateway": "healthy"}

	if g.memory != nil {
		if _, err := g.memory.GetContext(ctx, "health-probe", 1); err != nil {
			components["database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			components["database"] = "healthy"
		}
	}

	if g.remote != nil && g.remote.Enabled() {
		switch g.remote.HealthCheck(ctx) {
		case "up":
			components["external_service"] = "healthy"
		default:
			components["external_service"] = "unreachable"
		}
	}

	status := "healthy"
	for _, v := range components {
		if v != "healthy" {
			status = "degraded"
			break
		}
	}

	modules := 0
	if g.registry != nil {
		modules = g.registry.Len()
	}

	return &HealthOutput{
		Status:     status,
		Components: components,
		Modules:    modules,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

func interactionsAsMaps(items []memory.Interaction) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.AsMap())
	}
	return out
}
