package validation

import "strings"

var angleStripper = strings.NewReplacer("<", "", ">", "")

// SanitizeString trims s and removes angle brackets.
func SanitizeString(s string) string {
	return angleStripper.Replace(strings.TrimSpace(s))
}

// SanitizeMap returns a copy of m with every string, including those in
// nested maps and slices, passed through SanitizeString.
func SanitizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case map[string]interface{}:
		return SanitizeMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sanitizeValue(e)
		}
		return out
	default:
		return v
	}
}
