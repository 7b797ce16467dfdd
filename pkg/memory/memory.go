// Package memory stores and retrieves user interaction history behind a
// uniform adapter interface with three interchangeable backends: a local
// embedded SQLite store, the remote Noopur service, and a Postgres document
// store.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/bridge-gateway/pkg/noopur"
)

const logPrefix = "memory:memory"

// DefaultContextLimit bounds how many recent interactions are injected into a
// handler's input.
const DefaultContextLimit = 3

// Interaction is one stored request/response pair. Records are append-only
// and never mutated after write.
type Interaction struct {
	ID        int64          `json:"id,omitempty"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Module    string         `json:"module"`
	Intent    string         `json:"intent,omitempty"`
	Request   map[string]any `json:"request"`
	Response  map[string]any `json:"response"`
}

// AsMap renders the interaction in the mapping shape handlers consume as
// context.
func (i Interaction) AsMap() map[string]any {
	return map[string]any{
		"module":    i.Module,
		"intent":    i.Intent,
		"timestamp": i.Timestamp.UTC().Format(time.RFC3339),
		"request":   i.Request,
		"response":  i.Response,
	}
}

// Adapter is the uniform interface over interaction storage backends.
//
// StoreInteraction is best-effort: callers log and discard its error, so the
// contract (never propagates to the requester) is visible in the signature.
// GetContext returns at most limit interactions, most recent first.
type Adapter interface {
	StoreInteraction(ctx context.Context, userID string, requestData, responseData map[string]any) error
	GetUserHistory(ctx context.Context, userID string) ([]Interaction, error)
	GetContext(ctx context.Context, userID string, limit int) ([]Interaction, error)
}

// Config selects and configures a backend.
type Config struct {
	// SQLitePath is the local embedded store location (always the fallback).
	SQLitePath string
	// UseDocStore enables the Postgres document store as the preferred backend.
	UseDocStore bool
	// DatabaseURL is the Postgres connection string for the document store.
	DatabaseURL string
	// UseRemote selects the Noopur-backed adapter when the document store is
	// not in play.
	UseRemote bool
}

// New selects a backend by priority: document store (falling back to SQLite
// on any construction failure), then remote, then SQLite. Construction only
// fails when even the SQLite fallback cannot be opened.
func New(ctx context.Context, cfg Config, remote *noopur.Client) (Adapter, error) {
	if cfg.UseDocStore && cfg.DatabaseURL != "" {
		store, err := NewDocStore(ctx, cfg.DatabaseURL)
		if err == nil {
			slog.Info(fmt.Sprintf("%s - Using document store adapter", logPrefix))
			return store, nil
		}
		slog.Warn(fmt.Sprintf("%s - Document store unavailable, falling back to SQLite: %v", logPrefix, err))
		return NewSQLiteStore(cfg.SQLitePath)
	}
	if cfg.UseRemote {
		slog.Info(fmt.Sprintf("%s - Using remote Noopur adapter", logPrefix))
		return NewRemoteStore(remote), nil
	}
	return NewSQLiteStore(cfg.SQLitePath)
}
