package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON extracts the outermost JSON object from raw and unmarshals it
// into T. Leading or trailing text around the object is ignored, which lets
// it read attribute blobs written by other tools.
func ParseJSON[T any](raw string) (T, error) {
	var zero T

	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 {
		return zero, fmt.Errorf("no JSON object found (missing '{')")
	}
	if end < start {
		return zero, fmt.Errorf("no JSON object found (missing '}')")
	}

	var result T
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// DecodeAttributes reads an attribute map stored as a property. Graph
// stores keep nested maps as JSON strings; a map value is returned as is and
// an empty value yields an empty map.
func DecodeAttributes(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return map[string]any{}, nil
		}
		return ParseJSON[map[string]any](t)
	case []byte:
		return DecodeAttributes(string(t))
	}
	return nil, fmt.Errorf("unsupported attribute encoding %T", v)
}

// EncodeAttributes is the inverse of DecodeAttributes.
func EncodeAttributes(attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return string(b), nil
}
