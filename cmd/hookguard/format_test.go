package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"hookguard/internal/timings"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := &TimingSampleCLI{RunID: "abc", Stage: "parse", DurationUs: 42}
	out, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["stage"] != "parse" {
		t.Errorf("stage = %v", got["stage"])
	}
}

func TestFormatResponse_HumanFallsBackToJSON(t *testing.T) {
	out, err := FormatResponse(&TimingSampleCLI{Stage: "render"}, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON fallback, got %q", out)
	}
}

func TestFormatResponse_Unsupported(t *testing.T) {
	if _, err := FormatResponse(struct{}{}, OutputFormat("xml")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTimingsResponse_Human(t *testing.T) {
	resp := &TimingsResponseCLI{
		Database: "/p/.hookguard/timings.db",
		Total:    2,
		Stages:   []timings.StageSummary{{Stage: "parse", Count: 2, P50: 3 * time.Millisecond, P95: 4 * time.Millisecond, Max: 4 * time.Millisecond}},
		Recent:   []TimingSampleCLI{{RunID: "r1", Stage: "parse", DurationUs: 3000, RecordedAt: "2026-01-02T03:04:05Z"}},
	}
	out := resp.Human()
	for _, want := range []string{
		"Samples: 2",
		"=== TIMINGS ===",
		"- parse: p50 3000us, p95 4000us, max 4000us (n=2)",
		"run r1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
