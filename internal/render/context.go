// Package render turns engine results into the two payload shapes hooks
// emit: a permission decision and an additional-context block.
package render

import (
	"fmt"
	"sort"
	"strings"

	"hookguard/internal/contract"
	"hookguard/internal/quality"
	"hookguard/internal/timings"
)

// Section titles in rendering order.
const (
	SectionChangeSummary = "CHANGE SUMMARY"
	SectionRiskReport    = "RISK REPORT"
	SectionCodeHealth    = "CODE HEALTH"
	SectionAPIContract   = "API CONTRACT"
	SectionChangeContext = "CHANGE CONTEXT"
	SectionQuickTips     = "QUICK TIPS"
	SectionTimings       = "TIMINGS"
	SectionNextSteps     = "NEXT STEPS"
)

// MaxRiskIssues caps the risk report.
const MaxRiskIssues = 100

// SoftBudgetNote prefixes the change-summary line of a skipped large file.
const SoftBudgetNote = "Skipped AST analysis due to soft budget"

// SoftBudgetSkip is the change-summary note for a file over budget.
func SoftBudgetSkip(size, budget int) string {
	return fmt.Sprintf("%s (%d bytes > %d)", SoftBudgetNote, size, budget)
}

// Header renders a section header.
func Header(title string) string {
	return "=== " + title + " ==="
}

// FileReport is one file's contribution to a context block.
type FileReport struct {
	Path     string
	Language string
	Issues   []quality.Issue
	Metrics  quality.Metrics
	// Score is nil when the file was not analyzed
	Score  *quality.Score
	Deltas []contract.Delta
	// Skipped is a note for files deliberately not analyzed
	Skipped string
	Err     error
	// Source backs change-context snippets
	Source []byte
	// Changed limits snippets to these lines; nil means every line
	Changed map[int]bool
}

// Options control optional sections.
type Options struct {
	QuickTips        bool
	QuickTipsMax     int
	ForceAPIContract bool
	Snippets         bool
	MaxSnippets      int
	DiffContext      int
	// Limit caps the rendered block in characters; zero disables it
	Limit int
}

// Block is a post-tool additional-context block.
type Block struct {
	Files   []FileReport
	Timings []timings.StageSummary
	Opts    Options
}

type located struct {
	path  string
	issue quality.Issue
}

type locatedDelta struct {
	path  string
	delta contract.Delta
}

// Render produces the block. Unused sections are omitted.
func (b *Block) Render() string {
	files := append([]FileReport(nil), b.Files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	issues := collectIssues(files)
	deltas := collectDeltas(files)

	var sections []string
	add := func(title string, lines []string) {
		if len(lines) > 0 {
			sections = append(sections, Header(title)+"\n"+strings.Join(lines, "\n"))
		}
	}
	add(SectionChangeSummary, changeSummary(files))
	add(SectionRiskReport, riskReport(issues))
	add(SectionCodeHealth, codeHealth(files))
	add(SectionAPIContract, apiContract(deltas, b.Opts.ForceAPIContract))
	if b.Opts.Snippets {
		add(SectionChangeContext, changeContext(files, issues, b.Opts.MaxSnippets, b.Opts.DiffContext))
	}
	if b.Opts.QuickTips {
		add(SectionQuickTips, quickTips(issues, len(deltas) > 0, b.Opts.QuickTipsMax))
	}
	add(SectionTimings, TimingLines(b.Timings))
	add(SectionNextSteps, nextSteps(files, issues, deltas))

	out := strings.Join(sections, "\n\n")
	if b.Opts.Limit > 0 {
		out = TruncateUTF8Safe(out, b.Opts.Limit)
	}
	return out
}

// collectIssues orders issues by severity, then file, line, column and rule.
func collectIssues(files []FileReport) []located {
	var out []located
	for _, f := range files {
		for _, is := range f.Issues {
			out = append(out, located{path: f.Path, issue: is})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.issue.Severity.Rank() != b.issue.Severity.Rank() {
			return a.issue.Severity.Rank() > b.issue.Severity.Rank()
		}
		if a.path != b.path {
			return a.path < b.path
		}
		if a.issue.Line != b.issue.Line {
			return a.issue.Line < b.issue.Line
		}
		if a.issue.Column != b.issue.Column {
			return a.issue.Column < b.issue.Column
		}
		return a.issue.RuleID < b.issue.RuleID
	})
	return out
}

func collectDeltas(files []FileReport) []locatedDelta {
	var out []locatedDelta
	for _, f := range files {
		for _, d := range f.Deltas {
			out = append(out, locatedDelta{path: f.Path, delta: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.delta.Severity.Rank() != b.delta.Severity.Rank() {
			return a.delta.Severity.Rank() > b.delta.Severity.Rank()
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.delta.Line < b.delta.Line
	})
	return out
}

func changeSummary(files []FileReport) []string {
	var lines []string
	for _, f := range files {
		switch {
		case f.Err != nil:
			lines = append(lines, SkipLine(f.Path, f.Err))
		case f.Skipped != "":
			lines = append(lines, fmt.Sprintf("- %s: %s", f.Path, f.Skipped))
		case f.Score != nil:
			lines = append(lines, fmt.Sprintf("- %s (%s): %s, score %d/%d",
				f.Path, f.Language, issueCount(f.Issues), f.Score.Total, quality.MaxScore))
		}
	}
	return lines
}

func issueCount(issues []quality.Issue) string {
	if len(issues) == 0 {
		return "no issues"
	}
	counts := quality.CountBySeverity(issues)
	var parts []string
	for _, sev := range []quality.Severity{quality.Critical, quality.Major, quality.Minor} {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
		}
	}
	noun := "issues"
	if len(issues) == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("%d %s (%s)", len(issues), noun, strings.Join(parts, ", "))
}

func riskReport(issues []located) []string {
	var lines []string
	for i, l := range issues {
		if i == MaxRiskIssues {
			lines = append(lines, fmt.Sprintf("%s truncated: showing %d of %d issues", Ellipsis, MaxRiskIssues, len(issues)))
			break
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s %s:%d:%d %s",
			l.issue.Severity, l.issue.RuleID, l.path, l.issue.Line, l.issue.Column, l.issue.Message))
	}
	return lines
}

func codeHealth(files []FileReport) []string {
	var lines []string
	for _, f := range files {
		if f.Score == nil {
			continue
		}
		p := f.Score.Pillars
		lines = append(lines, fmt.Sprintf(
			"- %s: %d/%d (functionality %d/%d, reliability %d/%d, maintainability %d/%d, performance %d/%d, security %d/%d, standards %d/%d)",
			f.Path, f.Score.Total, quality.MaxScore,
			p.Functionality, quality.MaxFunctionality,
			p.Reliability, quality.MaxReliability,
			p.Maintainability, quality.MaxMaintainability,
			p.Performance, quality.MaxPerformance,
			p.Security, quality.MaxSecurity,
			p.Standards, quality.MaxStandards,
		))
		m := f.Metrics
		lines = append(lines, fmt.Sprintf(
			"  lines %d (code %d, comment %d, blank %d), functions %d, max nesting %d, cyclomatic %d, cognitive %d, longest line %d",
			m.TotalLines, m.CodeLines, m.CommentLines, m.BlankLines,
			m.FunctionsCount, m.MaxNesting, m.Cyclomatic, m.Cognitive, m.LongestLine,
		))
	}
	return lines
}

func apiContract(deltas []locatedDelta, force bool) []string {
	if len(deltas) == 0 {
		if force {
			return []string{"- no contract changes detected"}
		}
		return nil
	}
	lines := make([]string, 0, len(deltas))
	for _, d := range deltas {
		lines = append(lines, fmt.Sprintf("- [%s] %s %s:%d '%s': %s",
			d.delta.Severity, d.delta.Change, d.path, d.delta.Line, d.delta.FunctionID, d.delta.Detail))
	}
	return lines
}

const maxSnippetLine = 160

func changeContext(files []FileReport, issues []located, max, context int) []string {
	if max <= 0 {
		return nil
	}
	byPath := make(map[string]FileReport, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}
	type key struct {
		path string
		line int
	}
	seen := make(map[key]bool)
	split := make(map[string][]string)

	var lines []string
	count := 0
	for _, l := range issues {
		if count == max {
			break
		}
		f := byPath[l.path]
		if f.Source == nil {
			continue
		}
		if f.Changed != nil && !f.Changed[l.issue.Line] {
			continue
		}
		k := key{l.path, l.issue.Line}
		if seen[k] {
			continue
		}
		seen[k] = true

		src, ok := split[l.path]
		if !ok {
			src = strings.Split(strings.TrimSuffix(string(f.Source), "\n"), "\n")
			split[l.path] = src
		}
		if l.issue.Line > len(src) {
			continue
		}
		from := l.issue.Line - context
		if from < 1 {
			from = 1
		}
		to := l.issue.Line + context
		if to > len(src) {
			to = len(src)
		}
		lines = append(lines, fmt.Sprintf("--- %s:%d %s", l.path, l.issue.Line, l.issue.RuleID))
		for n := from; n <= to; n++ {
			marker := " "
			if n == l.issue.Line {
				marker = ">"
			}
			text := TruncateUTF8Safe(strings.TrimRight(src[n-1], "\r"), maxSnippetLine)
			lines = append(lines, fmt.Sprintf("%s%4d | %s", marker, n, text))
		}
		count++
	}
	return lines
}

func quickTips(issues []located, hasDeltas bool, max int) []string {
	plain := make([]quality.Issue, 0, len(issues))
	for _, l := range issues {
		plain = append(plain, l.issue)
	}
	var lines []string
	for _, tip := range Tips(plain, hasDeltas, max) {
		lines = append(lines, "- "+tip)
	}
	return lines
}

// TimingLines renders one line per stage summary.
func TimingLines(stages []timings.StageSummary) []string {
	var lines []string
	for _, s := range stages {
		lines = append(lines, fmt.Sprintf("- %s: p50 %dus, p95 %dus, max %dus (n=%d)",
			s.Stage, s.P50.Microseconds(), s.P95.Microseconds(), s.Max.Microseconds(), s.Count))
	}
	return lines
}

func nextSteps(files []FileReport, issues []located, deltas []locatedDelta) []string {
	var lines []string
	var critical, major int
	for _, l := range issues {
		switch l.issue.Severity {
		case quality.Critical:
			critical++
		case quality.Major:
			major++
		}
	}
	if critical > 0 {
		lines = append(lines, fmt.Sprintf("- Fix the %d Critical issue(s) before continuing.", critical))
	}
	if len(deltas) > 0 {
		lines = append(lines, "- Restore the previous function contract or update every caller in this change.")
	}
	if major > 0 {
		lines = append(lines, fmt.Sprintf("- Address the %d Major issue(s) in the changed code.", major))
	}
	for _, f := range files {
		if f.Err != nil {
			lines = append(lines, "- Re-check skipped files; they were not analyzed.")
			break
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "- No blocking issues found.")
	}
	return lines
}
