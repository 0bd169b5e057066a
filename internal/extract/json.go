package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Object is one decoded JSON object with tolerant accessors
type Object map[string]any

// Decode parses body as a JSON object
func Decode(body []byte) (Object, error) {
	var o Object
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return o, nil
}

// Objects returns the elements of the array at key that are objects.
// A missing key or non-array value yields nil.
func (o Object) Objects(key string) []Object {
	arr, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Object, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out
}

// Object returns the nested object at key, or nil
func (o Object) Object(key string) Object {
	if m, ok := o[key].(map[string]any); ok {
		return Object(m)
	}
	return nil
}

// String returns the value at key rendered as text, or nil for missing,
// null or blank values. Numbers and booleans are formatted.
func (o Object) String(key string) *string {
	var s string
	switch v := o[key].(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	s = Clean(s)
	if s == "" {
		return nil
	}
	return &s
}

// Strings returns the string elements of the array at key. A plain string
// value is returned as a single element.
func (o Object) Strings(key string) []string {
	switch v := o[key].(type) {
	case string:
		if s := Clean(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				if s = Clean(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

// Int returns the numeric value at key. Numeric strings are accepted.
func (o Object) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}
