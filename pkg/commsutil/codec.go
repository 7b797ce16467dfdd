package commsutil

import "encoding/json"

// EncodePayload serializes a COMMS payload to JSON bytes.
func EncodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes from a COMMS message into the target.
func DecodePayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
