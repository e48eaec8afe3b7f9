package testutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeString(t *testing.T) {
	got := NormalizeString(`C:\proj\a.go and /tmp/xyz123/b.go`, `C:\proj`)
	if !strings.HasPrefix(got, "<root>/a.go") {
		t.Errorf("root not replaced: %q", got)
	}
	if !strings.Contains(got, "<tempdir>/b.go") {
		t.Errorf("temp dir not replaced: %q", got)
	}
}

func TestMarshalNormalizedDropsVolatile(t *testing.T) {
	in := map[string]any{
		"path":   "/repo/x.py",
		"run_id": "abc",
		"nested": []any{map[string]any{"duration_us": 12, "stage": "parse"}},
	}
	got := string(MarshalNormalized(t, "/repo", in))
	want := "{\n  \"nested\": [\n    {\n      \"stage\": \"parse\"\n    }\n  ],\n  \"path\": \"<root>/x.py\"\n}\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestCompareGoldenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.golden")
	UpdateGolden(t, path, []byte("line one\nline two\n"))
	CompareGolden(t, path, []byte("line one\nline two"))
}

func TestUnifiedDiff(t *testing.T) {
	d := unifiedDiff("a\nb\nc", "a\nx\nc", "f")
	if !strings.Contains(d, "-b") || !strings.Contains(d, "+x") {
		t.Errorf("unexpected diff:\n%s", d)
	}
}
