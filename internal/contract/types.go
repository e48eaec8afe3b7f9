package contract

import (
	"fmt"

	"hookguard/internal/quality"
)

// ChangeKind is the type of contract change
type ChangeKind string

const (
	ParamCountReduced   ChangeKind = "ParamCountReduced"   // Fewer counted parameters
	ParamCountIncreased ChangeKind = "ParamCountIncreased" // More counted parameters
	ReturnChanged       ChangeKind = "ReturnChanged"       // Return annotation or shape changed
	VisibilityLowered   ChangeKind = "VisibilityLowered"   // Less visible than before
	CatchEmptied        ChangeKind = "CatchEmptied"        // Handler body removed
	ResultDiscarded     ChangeKind = "ResultDiscarded"     // Error check replaced by discard or unwrap
	UnreachableInserted ChangeKind = "UnreachableInserted" // New dead code after a terminator
)

// kindOrder fixes the order deltas of one function are listed in.
var kindOrder = map[ChangeKind]int{
	ParamCountReduced:   0,
	ParamCountIncreased: 1,
	ReturnChanged:       2,
	VisibilityLowered:   3,
	CatchEmptied:        4,
	ResultDiscarded:     5,
	UnreachableInserted: 6,
}

// Delta is one contract finding for a function present in both versions.
type Delta struct {
	FunctionID string           `json:"function_id"`
	Change     ChangeKind       `json:"change"`
	Severity   quality.Severity `json:"severity"`
	Line       int              `json:"line"`
	Detail     string           `json:"detail"`
	OldValue   string           `json:"old_value,omitempty"`
	NewValue   string           `json:"new_value,omitempty"`
}

// Reason renders the delta for a deny decision.
func (d Delta) Reason() string {
	return fmt.Sprintf("%s in '%s': %s", d.Change, d.FunctionID, d.Detail)
}

// Summary gives an overview of a delta list
type Summary struct {
	Total    int                      `json:"total"`
	ByKind   map[ChangeKind]int       `json:"by_kind"`
	Highest  quality.Severity         `json:"highest,omitempty"`
	Counts   map[quality.Severity]int `json:"counts"`
	Compared int                      `json:"compared"`
}

// Result holds the deltas of one before/after comparison
type Result struct {
	Deltas  []Delta  `json:"deltas"`
	Summary *Summary `json:"summary"`
}

// HasDeltas returns true if any delta was found
func (r *Result) HasDeltas() bool {
	return r != nil && len(r.Deltas) > 0
}
