package marketplace

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Helpers over decoded JSON (json.Number enabled). The gateway mixes strings
// and numbers for the same field across responses.

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}

func asInt(v interface{}) int {
	return int(asFloat(v))
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// asSlice accepts an array, a single object (treated as one element) or
// nil.
func asSlice(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		return []interface{}{t}
	}
	return nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstValue(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// normalizeURL fixes protocol-relative and schemeless image URLs.
func normalizeURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return u
	case strings.Contains(u, "."):
		return "https://" + strings.TrimPrefix(u, "/")
	}
	return ""
}

// centsToMajor converts a minor-unit amount; the only place source prices
// are rescaled.
func centsToMajor(v interface{}) float64 {
	return asFloat(v) / 100
}

func appendUnique(dst []string, seen map[string]bool, urls ...string) []string {
	for _, u := range urls {
		u = normalizeURL(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		dst = append(dst, u)
	}
	return dst
}
