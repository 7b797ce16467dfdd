// Package sampletext is a built-in module that computes simple text
// statistics. It returns a bare payload rather than a full envelope, which
// exercises the gateway's normalization of raw handler output.
package sampletext

import (
	"context"
	"strings"
)

// Module counts words and characters in a text field.
type Module struct{}

// New creates the sample text module.
func New() *Module { return &Module{} }

// Process returns word and character counts for data["text"] as a bare
// payload; the gateway folds it under result.
func (m *Module) Process(_ context.Context, data map[string]any, _ []map[string]any) (map[string]any, error) {
	text, _ := data["text"].(string)
	words := strings.Fields(text)

	return map[string]any{
		"word_count": len(words),
		"char_count": len(text),
	}, nil
}

// Metadata describes the module.
func (m *Module) Metadata() map[string]any {
	return map[string]any{
		"name":        "sample_text",
		"version":     "1.0.0",
		"description": "Text statistics module",
	}
}
