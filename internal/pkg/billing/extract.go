package billing

import (
	"fmt"
	"strings"
)

// The gateway's JSON is duck-typed: field names vary by endpoint and API
// version. These helpers apply explicit precedence-list extraction over a
// loosely parsed document instead of assuming a fixed schema.

// stringField returns the first non-empty string value among keys. Numeric
// values are stringified, since the gateway is inconsistent about quoting.
func stringField(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return trimFloat(t)
		case int:
			return fmt.Sprintf("%d", t)
		}
	}
	return ""
}

// anyField returns the first present non-nil value among keys.
func anyField(doc map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := doc[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// listField returns the first array-of-objects value among keys.
func listField(doc map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		items, ok := doc[key].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// intValue coerces a JSON number or numeric string to int. ok is false for
// anything else.
func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", f)
}

// digitsOnly strips every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
