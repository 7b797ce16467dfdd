package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/bridge-gateway/pkg/gateway"
)

const logPrefix = "dispatcher:dispatch"

// Dispatcher routes COMMS requests to gateway methods.
type Dispatcher struct {
	gw *gateway.Gateway
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(gw *gateway.Gateway) *Dispatcher {
	return &Dispatcher{gw: gw}
}

// Dispatch routes a request to the appropriate gateway method and returns a
// response. The process method always answers Ok: the gateway's envelope
// carries its own status, including handler failures.
func (d *Dispatcher) Dispatch(ctx context.Context, req *CoreRequest) *CoreResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "process":
		return d.handleProcess(ctx, req)
	case "history":
		return d.handleHistory(ctx, req)
	case "context":
		return d.handleContext(ctx, req)
	case "health":
		return d.handleHealth(ctx, req)
	default:
		return &CoreResponse{
			ID: req.ID,
			Ok: false,
			Error: &ErrorDetail{
				Code:      "METHOD_NOT_FOUND",
				Message:   fmt.Sprintf("Unknown method: %s", req.Method),
				Retryable: false,
			},
		}
	}
}

func (d *Dispatcher) handleProcess(ctx context.Context, req *CoreRequest) *CoreResponse {
	var params ProcessParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse process params", false)
	}

	envelope := d.gw.ProcessRequest(ctx, params.Module, params.Intent, params.UserID, params.Data)
	return &CoreResponse{ID: req.ID, Ok: true, Result: envelope}
}

func (d *Dispatcher) handleHistory(ctx context.Context, req *CoreRequest) *CoreResponse {
	var params UserParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse history params", false)
	}
	if params.UserID == "" {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "user_id is required", false)
	}

	history, err := d.gw.UserHistory(ctx, params.UserID)
	if err != nil {
		return errorResponse(req.ID, "INTERNAL_ERROR", err.Error(), true)
	}
	return &CoreResponse{ID: req.ID, Ok: true, Result: history}
}

func (d *Dispatcher) handleContext(ctx context.Context, req *CoreRequest) *CoreResponse {
	var params UserParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse context params", false)
	}
	if params.UserID == "" {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "user_id is required", false)
	}

	items, err := d.gw.UserContext(ctx, params.UserID)
	if err != nil {
		return errorResponse(req.ID, "INTERNAL_ERROR", err.Error(), true)
	}
	return &CoreResponse{ID: req.ID, Ok: true, Result: items}
}

func (d *Dispatcher) handleHealth(ctx context.Context, req *CoreRequest) *CoreResponse {
	result := d.gw.Health(ctx)
	return &CoreResponse{ID: req.ID, Ok: true, Result: result}
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *CoreResponse {
	return &CoreResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
