package feed

import (
	"encoding/json"
	"fmt"
	"math"
)

// Sanitize converts a value tree into plain primitives: strings, bools,
// int64/float64, and maps/slices of those. Model runtimes hand back their own
// numeric types (float32 tensors, json.Number, typed slices); nothing past the
// stage boundary may carry them. Sanitizing an already-primitive tree returns
// it unchanged.
func Sanitize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return float64(t)
		}
		return int64(t)
	case float32:
		return float64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, val := range t {
			t[k] = Sanitize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = Sanitize(val)
		}
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []float32:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = float64(f)
		}
		return out
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = int64(n)
		}
		return out
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// SanitizeMetadata sanitizes a metadata map in place and returns it.
func SanitizeMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = Sanitize(v)
	}
	return m
}
