package template

import "encoding/json"

// Context converts a typed value into the map form lookup descends through,
// using the value's JSON field names as path segments.
func Context(key string, v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{key: map[string]any{}}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{key: map[string]any{}}
	}
	return map[string]any{key: m}
}
