package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/krug-analyzer/backend/internal/catalog"
)

// The provider's JSON is untrusted. These accessors read a field if it has a
// usable shape and report false otherwise; they never panic.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := asString(m[k]); ok {
			return s
		}
	}
	return ""
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// nonEmptyStrings keeps trimmed non-empty string elements of v.
func nonEmptyStrings(v any) []string {
	var out []string
	for _, item := range asSlice(v) {
		if s, ok := asString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

// findRawCategory locates a category entry either in a "categories" array
// (matched by id) or in a "categories" object keyed by id. First match wins.
func findRawCategory(raw map[string]any, id catalog.CategoryID) (map[string]any, bool) {
	switch cats := raw["categories"].(type) {
	case []any:
		for _, item := range cats {
			entry, ok := asMap(item)
			if !ok {
				continue
			}
			if rawID, ok := asString(entry["id"]); ok && catalog.CategoryID(strings.ToLower(rawID)) == id {
				return entry, true
			}
		}
	case map[string]any:
		if entry, ok := asMap(cats[string(id)]); ok {
			return entry, true
		}
	}
	return nil, false
}
