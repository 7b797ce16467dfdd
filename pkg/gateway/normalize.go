package gateway

// Normalize folds an arbitrary handler return value into the canonical
// envelope. Handlers may return either a full envelope-shaped mapping or a
// bare payload; both normalize identically:
//
//   - a non-mapping value yields the defaults (success, empty message, empty
//     result) rather than an error
//   - status and message are taken from the mapping when present
//   - a present result key is authoritative, whatever its value
//   - otherwise the whole mapping minus the envelope keys becomes the result
func Normalize(raw any) Envelope {
	normalized := Envelope{
		Status:  StatusSuccess,
		Message: "",
		Result:  map[string]any{},
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return normalized
	}

	if status, ok := m["status"].(string); ok {
		normalized.Status = status
	}
	if message, ok := m["message"].(string); ok {
		normalized.Message = message
	}

	if result, ok := m["result"]; ok {
		normalized.Result = result
		return normalized
	}

	payload := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case "status", "message", "result":
		default:
			payload[k] = v
		}
	}
	normalized.Result = payload
	return normalized
}
