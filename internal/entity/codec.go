package entity

import (
	"encoding/json"
	"fmt"
)

// Encode marshals a record into the JSON document shared by the local store,
// the pending-mutation payloads and the backend adapters.
func Encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	return data, nil
}

// DecodeAll unmarshals a list of JSON documents into typed records.
func DecodeAll[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))

	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}

		out = append(out, v)
	}

	return out, nil
}
