// Package dispatcher routes incoming COMMS messages to gateway methods.
package dispatcher

import "encoding/json"

// CoreRequest is the JSON envelope for incoming COMMS gateway requests.
type CoreRequest struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// CoreResponse is the JSON envelope for COMMS gateway responses.
type CoreResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ProcessParams are the parameters for the process method.
type ProcessParams struct {
	Module string         `json:"module"`
	Intent string         `json:"intent"`
	UserID string         `json:"user_id"`
	Data   map[string]any `json:"data"`
}

// UserParams are the parameters for the history and context methods.
type UserParams struct {
	UserID string `json:"user_id"`
}
