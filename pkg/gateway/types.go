// Package gateway implements the dispatch and normalization core: it resolves
// a module name to a handler, injects user interaction context, invokes the
// handler, normalizes its raw return into the canonical envelope, and
// persists the interaction best-effort.
package gateway

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the canonical three-field response. Every dispatch returns
// exactly this shape regardless of what the handler produced.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// errorEnvelope builds the standard error shape with an empty result.
func errorEnvelope(message string) Envelope {
	return Envelope{Status: StatusError, Message: message, Result: map[string]any{}}
}

// AsMap renders the envelope as a raw mapping, the shape the memory adapter
// persists.
func (e Envelope) AsMap() map[string]any {
	return map[string]any{
		"status":  e.Status,
		"message": e.Message,
		"result":  e.Result,
	}
}
