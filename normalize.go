package exam2pdf

import "strings"

// NormalizeValues walks a decoded JSON value and replaces the string tokens
// "true", "false" and "null" (any case) with their native values.
// Maps and slices are copied; other values are returned unchanged.
func NormalizeValues(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = NormalizeValues(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = NormalizeValues(val)
		}
		return out
	case string:
		switch strings.ToLower(t) {
		case "false":
			return false
		case "true":
			return true
		case "null":
			return nil
		}
		return t
	}
	return v
}
