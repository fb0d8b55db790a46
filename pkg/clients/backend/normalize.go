package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NormalizeIdentity renames the backend "_id" key to "id" in every object,
// through nested objects and arrays. Entity comparisons across the shell rely
// on the "id" key.
func NormalizeIdentity(v any) any {
	switch value := v.(type) {
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = NormalizeIdentity(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = item
		}
		if id, ok := out["_id"]; ok && id != nil && id != "" {
			out["id"] = id
			delete(out, "_id")
		}
		for k, item := range out {
			out[k] = NormalizeIdentity(item)
		}
		return out
	default:
		return v
	}
}

// normalizeBody decodes a JSON body, normalizes identities and re-encodes it.
func normalizeBody(body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return body, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out, err := json.Marshal(NormalizeIdentity(raw))
	if err != nil {
		return nil, fmt.Errorf("encode normalized response: %w", err)
	}
	return out, nil
}
