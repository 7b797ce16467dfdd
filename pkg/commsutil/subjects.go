package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectGateway          = "core.gateway.v1"
	SubjectInteractionEvent = "gateway.interaction"
)

// BuildInteractionSubject builds a per-module interaction event subject.
func BuildInteractionSubject(module string) string {
	safe := strings.ReplaceAll(module, ".", "_")
	if safe == "" {
		safe = "unknown"
	}
	return fmt.Sprintf("gateway.interaction.%s", safe)
}
