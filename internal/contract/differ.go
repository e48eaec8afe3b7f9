// Package contract compares two versions of a file function by function and
// reports signature changes and fake-implementation regressions.
package contract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"hookguard/internal/analyzer"
	"hookguard/internal/lang"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

// Differ parses both versions of a file and diffs their function summaries
type Differ struct {
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// NewDiffer creates a differ backed by a.
func NewDiffer(a *analyzer.Analyzer, logger *slog.Logger) *Differ {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Differ{analyzer: a, logger: logger}
}

// Compare analyzes before and after as l and diffs them. A before version
// that cannot be analyzed yields an empty result: there is no contract to
// break.
func (d *Differ) Compare(ctx context.Context, before, after []byte, l lang.Language, opts analyzer.Options) (*Result, error) {
	stop := opts.Timings.Start("contract")
	defer stop()

	old, err := d.analyzer.Analyze(ctx, before, l, opts)
	if err != nil {
		d.logger.Debug("contract baseline not analyzable", "path", opts.Path, "error", err)
		return Diff(nil, nil), nil
	}
	cur, err := d.analyzer.Analyze(ctx, after, l, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze new version: %w", err)
	}
	return Diff(old.Functions, cur.Functions), nil
}

// Diff compares top-level functions matched by qualified name and overload
// index. Functions present in only one version produce nothing.
func Diff(before, after []analyzer.Function) *Result {
	baseMap := make(map[string]analyzer.Function)
	for _, f := range before {
		if f.TopLevel && f.Qualified != "" {
			baseMap[f.Key()] = f
		}
	}

	deltas := []Delta{}
	compared := 0
	for _, cur := range after {
		if !cur.TopLevel || cur.Qualified == "" {
			continue
		}
		old, exists := baseMap[cur.Key()]
		if !exists {
			continue
		}
		compared++
		deltas = append(deltas, compareFunction(old, cur)...)
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		if deltas[i].Line != deltas[j].Line {
			return deltas[i].Line < deltas[j].Line
		}
		if deltas[i].FunctionID != deltas[j].FunctionID {
			return deltas[i].FunctionID < deltas[j].FunctionID
		}
		return kindOrder[deltas[i].Change] < kindOrder[deltas[j].Change]
	})

	result := &Result{Deltas: deltas}
	result.Summary = computeSummary(deltas)
	result.Summary.Compared = compared
	return result
}

func compareFunction(old, cur analyzer.Function) []Delta {
	var out []Delta
	add := func(kind ChangeKind, sev quality.Severity, detail, oldValue, newValue string) {
		out = append(out, Delta{
			FunctionID: cur.Qualified,
			Change:     kind,
			Severity:   sev,
			Line:       cur.Line,
			Detail:     detail,
			OldValue:   oldValue,
			NewValue:   newValue,
		})
	}

	// Parameter count
	switch {
	case cur.Params < old.Params:
		sev := quality.Major
		if old.Visibility == syntax.VisPublic {
			sev = quality.Critical
		}
		add(ParamCountReduced, sev,
			fmt.Sprintf("parameters reduced from %d to %d", old.Params, cur.Params),
			fmt.Sprint(old.Params), fmt.Sprint(cur.Params))
	case cur.Params > old.Params:
		add(ParamCountIncreased, quality.Minor,
			fmt.Sprintf("parameters increased from %d to %d", old.Params, cur.Params),
			fmt.Sprint(old.Params), fmt.Sprint(cur.Params))
	}

	// Return shape
	switch {
	case old.ReturnType != cur.ReturnType:
		add(ReturnChanged, quality.Major,
			fmt.Sprintf("return type changed from %s to %s", shape(old.ReturnType), shape(cur.ReturnType)),
			old.ReturnType, cur.ReturnType)
	case old.ReturnType == "" && old.ReturnsValue && !cur.ReturnsValue:
		add(ReturnChanged, quality.Major, "function no longer returns a value", "value", "none")
	case old.ReturnType == "" && !old.ReturnsValue && cur.ReturnsValue:
		add(ReturnChanged, quality.Major, "function now returns a value", "none", "value")
	case cur.ConstantReturn && !old.ConstantReturn && old.ControlFlow > 0:
		add(ReturnChanged, quality.Major, "body reduced to constant return", "", "")
	}

	// Visibility
	if cur.Visibility < old.Visibility {
		add(VisibilityLowered, quality.Major,
			fmt.Sprintf("visibility lowered from %s to %s", syntax.VisibilityName(old.Visibility), syntax.VisibilityName(cur.Visibility)),
			syntax.VisibilityName(old.Visibility), syntax.VisibilityName(cur.Visibility))
	}

	// Fake-implementation regressions
	if cur.EmptyCatches > old.EmptyCatches && cur.NonEmptyCatches < old.NonEmptyCatches {
		add(CatchEmptied, quality.Critical, "error handler body was emptied", "", "")
	}
	if old.ErrorChecks > cur.ErrorChecks {
		switch {
		case cur.Discards > old.Discards:
			add(ResultDiscarded, quality.Critical, "error check replaced by a discarded result", "", "")
		case cur.Unwraps > old.Unwraps:
			add(ResultDiscarded, quality.Critical, "error check replaced by .unwrap()", "", "")
		}
	}
	if cur.Unreachable > old.Unreachable {
		add(UnreachableInserted, quality.Major, "unreachable code inserted", "", "")
	}
	return out
}

func shape(t string) string {
	if t == "" {
		return "none"
	}
	return "'" + t + "'"
}

// computeSummary calculates summary statistics
func computeSummary(deltas []Delta) *Summary {
	summary := &Summary{
		Total:  len(deltas),
		ByKind: make(map[ChangeKind]int),
		Counts: make(map[quality.Severity]int),
	}
	for _, d := range deltas {
		summary.ByKind[d.Change]++
		summary.Counts[d.Severity]++
		if d.Severity.Rank() > summary.Highest.Rank() {
			summary.Highest = d.Severity
		}
	}
	return summary
}
