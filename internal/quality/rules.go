package quality

import (
	"sort"
)

// Rule is the static description of a rule id.
type Rule struct {
	ID       string
	Category Category
	Severity Severity
	Title    string
}

// Rule ids. These never change once shipped.
const (
	RuleCredentials      = "SEC001"
	RuleSQL              = "SEC002"
	RuleUnreachable      = "FLW001"
	RuleUnhandledError   = "FLW002"
	RuleDeepNesting      = "CPX001"
	RuleTooManyParams    = "CPX002"
	RuleLongMethod       = "CPX003"
	RuleComplexCondition = "CPX004"
	RuleLongLine         = "STY001"
	RuleConfigParse      = "CFG001"
)

// Rules is the rule registry keyed by id.
var Rules = map[string]Rule{
	RuleCredentials:      {RuleCredentials, HardcodedCredentials, Critical, "Hardcoded credentials"},
	RuleSQL:              {RuleSQL, SqlInjection, Major, "SQL built from strings"},
	RuleUnreachable:      {RuleUnreachable, UnreachableCode, Major, "Unreachable code"},
	RuleUnhandledError:   {RuleUnhandledError, UnhandledError, Major, "Unhandled error"},
	RuleDeepNesting:      {RuleDeepNesting, DeepNesting, Major, "Deep nesting"},
	RuleTooManyParams:    {RuleTooManyParams, TooManyParameters, Major, "Too many parameters"},
	RuleLongMethod:       {RuleLongMethod, LongMethod, Minor, "Long method"},
	RuleComplexCondition: {RuleComplexCondition, ComplexCondition, Minor, "Complex condition"},
	RuleLongLine:         {RuleLongLine, LongLine, Minor, "Long line"},
	RuleConfigParse:      {RuleConfigParse, StyleViolation, Minor, "Configuration parse error"},
}

// NewIssue builds an issue from a registered rule. Severity overrides the
// rule default when non-empty.
func NewIssue(ruleID string, sev Severity, message string, line, column int) Issue {
	r := Rules[ruleID]
	if sev == "" {
		sev = r.Severity
	}
	if line < 1 {
		line = 1
	}
	if column < 1 {
		column = 1
	}
	return Issue{
		RuleID:   ruleID,
		Category: r.Category,
		Severity: sev,
		Message:  message,
		Line:     line,
		Column:   column,
		Points:   sev.Points(),
	}
}

// Normalize sorts issues by (line, column, rule id) and drops duplicates of
// the same (rule id, line, column). The input slice is not modified.
func Normalize(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})

	deduped := out[:0]
	for i, is := range out {
		if i > 0 {
			prev := deduped[len(deduped)-1]
			if prev.RuleID == is.RuleID && prev.Line == is.Line && prev.Column == is.Column {
				continue
			}
		}
		deduped = append(deduped, is)
	}
	return deduped
}

// BySeverity returns a copy ordered Critical first, then by line and rule id.
func BySeverity(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
	return out
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := map[Severity]int{Critical: 0, Major: 0, Minor: 0}
	for _, is := range issues {
		counts[is.Severity]++
	}
	return counts
}

// HighestSeverity returns the most severe severity present, or "" for none.
func HighestSeverity(issues []Issue) Severity {
	var best Severity
	for _, is := range issues {
		if is.Severity.Rank() > best.Rank() {
			best = is.Severity
		}
	}
	return best
}
