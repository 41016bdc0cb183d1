// Package attrs reads values back out of slog-style key/value attribute lists.
package attrs

// Lookup returns the value paired with key in a [k1, v1, k2, v2, ...] list
// when it has type T. Non-string keys and a trailing odd element are skipped.
func Lookup[T any](attrs []any, key string) (T, bool) {
	var zero T
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); !ok || k != key {
			continue
		}
		v, ok := attrs[i+1].(T)
		return v, ok
	}
	return zero, false
}

// FirstString returns the first non-empty string found under keys, in order.
func FirstString(attrs []any, keys ...string) string {
	for _, key := range keys {
		if v, ok := Lookup[string](attrs, key); ok && v != "" {
			return v
		}
	}
	return ""
}
