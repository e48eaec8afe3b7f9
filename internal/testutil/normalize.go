package testutil

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"testing"
)

// volatileFields are dropped before golden comparison.
var volatileFields = map[string]bool{
	"run_id":      true,
	"timestamp":   true,
	"duration":    true,
	"duration_us": true,
	"elapsed":     true,
	"created_at":  true,
	"timings":     true,
}

var tempPath = regexp.MustCompile(`(?:/tmp/|/var/folders/[^/]+/[^/]+/[^/]+/|C:\\Users\\[^\\]+\\|C:/Users/[^/]+/)[^/\\"]+`)

// Normalize deep-copies data through JSON, drops volatile fields and rewrites
// root and temp directory prefixes so golden output is machine independent.
func Normalize(t *testing.T, root string, data any) any {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return normalizeValue(v, root)
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			out[k] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		return out
	case string:
		return NormalizeString(val, root)
	default:
		return v
	}
}

// NormalizeString replaces root with <root>, temp directories with
// <tempdir> and backslashes with forward slashes.
func NormalizeString(s, root string) string {
	if root != "" {
		s = strings.ReplaceAll(s, root, "<root>")
	}
	s = tempPath.ReplaceAllString(s, "<tempdir>")
	return strings.ReplaceAll(s, "\\", "/")
}

// MarshalNormalized normalizes data and marshals it to stable JSON bytes
// with sorted keys, 2-space indentation and a trailing newline.
func MarshalNormalized(t *testing.T, root string, data any) []byte {
	t.Helper()

	out, err := json.MarshalIndent(canonicalizeKeys(Normalize(t, root, data)), "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(out, '\n')
}

// canonicalizeKeys recursively rebuilds maps; encoding/json sorts map keys.
func canonicalizeKeys(data any) any {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(v))
		for _, k := range keys {
			out[k] = canonicalizeKeys(v[k])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = canonicalizeKeys(item)
		}
		return out
	default:
		return v
	}
}
