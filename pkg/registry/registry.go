// Package registry holds the named handler table the gateway dispatches against.
//
// Handlers come in two shapes: built-in agents (intent-discriminated) and
// modules (single Process entry point plus a Metadata descriptor). The
// registry is built once at startup and is read-only afterwards, so
// concurrent dispatches may resolve against it without locking.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
)

const logPrefix = "registry:registry"

// Module is the contract for dynamically discovered handlers. Process
// receives the request payload and the caller's recent interaction history
// and returns a raw mapping the gateway normalizes into an envelope.
type Module interface {
	Process(ctx context.Context, data map[string]any, history []map[string]any) (map[string]any, error)
	Metadata() map[string]any
}

// Agent is the contract for built-in handlers that discriminate on intent.
type Agent interface {
	HandleRequest(ctx context.Context, intent string, data map[string]any, history []map[string]any) (map[string]any, error)
}

// Handler is either a Module or an Agent. Dispatch type-switches on the
// concrete contract; anything else is rejected at build time.
type Handler any

// Registry maps handler names to instances. A nil entry marks a handler that
// was discovered but failed contract validation, so dispatch can report
// "invalid" rather than "unknown".
type Registry struct {
	handlers map[string]Handler
}

// Build merges built-in handlers with discovered module instances and
// validates the result. Discovery errors are logged as warnings and never
// fail the build. Entries that expose a Process capability but do not satisfy
// the full Module contract, or whose metadata is malformed, are kept as nil.
func Build(builtins map[string]Handler, discovered map[string]Handler, discoveryErrs []error) *Registry {
	handlers := make(map[string]Handler, len(builtins)+len(discovered))
	for name, h := range builtins {
		handlers[name] = h
	}
	for name, h := range discovered {
		if _, exists := handlers[name]; exists {
			slog.Warn(fmt.Sprintf("%s - Discovered module %q shadows a built-in handler, replacing", logPrefix, name))
		}
		handlers[name] = h
	}
	for _, err := range discoveryErrs {
		slog.Warn(fmt.Sprintf("%s - Module loader issue: %v", logPrefix, err))
	}

	for name, h := range handlers {
		if err := validate(h); err != nil {
			slog.Error(fmt.Sprintf("%s - Handler %q failed contract validation, marking invalid: %v", logPrefix, name, err))
			handlers[name] = nil
		}
	}

	return &Registry{handlers: handlers}
}

// validate checks a handler against the capability contracts.
func validate(h Handler) error {
	switch m := h.(type) {
	case Module:
		return validateMetadata(m.Metadata())
	case Agent:
		return nil
	default:
		return fmt.Errorf("handler implements neither the module nor the agent contract")
	}
}

// validateMetadata enforces the structural part of the module contract:
// a name and a parseable semantic version.
func validateMetadata(meta map[string]any) error {
	if meta == nil {
		return fmt.Errorf("metadata() returned nil")
	}
	name, ok := meta["name"].(string)
	if !ok || name == "" {
		return fmt.Errorf("metadata() missing name")
	}
	version, ok := meta["version"].(string)
	if !ok || version == "" {
		return fmt.Errorf("metadata() missing version")
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("metadata() version %q is not valid semver: %w", version, err)
	}
	return nil
}

// Resolve returns the handler registered under name. The second return
// distinguishes "unknown" (false) from "registered but invalid" (true, nil).
func (r *Registry) Resolve(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// All returns the full name -> handler mapping. Callers must not mutate it.
func (r *Registry) All() map[string]Handler {
	return r.handlers
}

// Len returns the number of registered names, invalid entries included.
func (r *Registry) Len() int {
	return len(r.handlers)
}
