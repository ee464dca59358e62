// Package jsonbridge provides the JSON-path helper functions the evaluator
// delegates to: json_get, json_exists, json_size. It never panics or
// returns a Go error into the evaluator — malformed input simply yields a
// not-found/zero result, matching §4.5's "must never throw" contract for
// evaluator-delegated functions.
package jsonbridge

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Get extracts the value at path from a JSON-bearing source, which may
// already be a parsed value (string, list, map) or a raw JSON string.
func Get(source interface{}, path string) interface{} {
	raw, ok := asJSONText(source)
	if !ok {
		return nil
	}
	result := gjson.Get(raw, path)
	if !result.Exists() {
		return nil
	}
	return resultToGo(result)
}

// Exists reports whether path resolves to a value within source.
func Exists(source interface{}, path string) bool {
	raw, ok := asJSONText(source)
	if !ok {
		return false
	}
	return gjson.Get(raw, path).Exists()
}

// Size returns the element/key count at path: array length, object key
// count, string length, or 0 for scalars/missing paths.
func Size(source interface{}, path string) int {
	raw, ok := asJSONText(source)
	if !ok {
		return 0
	}
	result := gjson.Get(raw, path)
	if !result.Exists() {
		return 0
	}
	if result.IsObject() {
		return len(result.Map())
	}
	if result.IsArray() {
		return len(result.Array())
	}
	if result.Type.String() == "String" {
		return len(result.Str)
	}
	return 0
}

// asJSONText coerces source to a JSON text buffer gjson can query. A raw
// JSON string passes through unchanged; any other already-decoded value
// (map, list, scalar) is re-marshalled.
func asJSONText(source interface{}) (string, bool) {
	if source == nil {
		return "", false
	}
	if s, ok := source.(string); ok {
		return s, true
	}
	b, err := json.Marshal(source)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func resultToGo(r gjson.Result) interface{} {
	switch {
	case r.IsArray():
		items := r.Array()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = resultToGo(item)
		}
		return out
	case r.IsObject():
		out := make(map[string]interface{})
		r.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = resultToGo(value)
			return true
		})
		return out
	case r.Type.String() == "String":
		return r.Str
	case r.Type.String() == "Number":
		return r.Num
	case r.Type.String() == "True", r.Type.String() == "False":
		return r.Bool()
	default:
		return nil
	}
}
