// Package strings holds string-slice helpers shared by request normalizers.
package strings

import "strings"

// DedupeBy trims every value and keeps the first value for each key(value).
// Empty values are dropped. A nil or empty input is returned as is.
//
//	DedupeBy([]string{" Email", "email", "phone"}, strings.ToLower)
//	// []string{"Email", "phone"}
func DedupeBy(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
