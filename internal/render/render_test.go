package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookguard/internal/contract"
	asterr "hookguard/internal/errors"
	"hookguard/internal/quality"
	"hookguard/internal/testutil"
	"hookguard/internal/timings"
)

func scored(issues ...quality.Issue) *quality.Score {
	s := quality.Compute(issues)
	return &s
}

func sampleBlock() *Block {
	dbIssues := []quality.Issue{
		quality.NewIssue(quality.RuleCredentials, "", "hardcoded credential in 'password'", 2, 1),
		quality.NewIssue(quality.RuleComplexCondition, "", "complex condition with 4 boolean operators (max 3)", 3, 6),
	}
	apiIssues := []quality.Issue{
		quality.NewIssue(quality.RuleUnhandledError, "", "empty catch handler", 4, 3),
	}
	return &Block{
		Files: []FileReport{
			{
				Path:     "broken.go",
				Language: "go",
				Err:      asterr.NewSyntaxError("go", 3, 7),
			},
			{
				Path:     "app/db.py",
				Language: "python",
				Issues:   dbIssues,
				Score:    scored(dbIssues...),
				Metrics: quality.Metrics{
					TotalLines: 3, CodeLines: 3, Cyclomatic: 1, LongestLine: 30,
				},
				Source: []byte("import os\npassword = \"hunter2\"\nok = a and b and c and d and e\n"),
			},
			{
				Path:    "big.json",
				Skipped: SoftBudgetSkip(2<<20, 512000),
			},
			{
				Path:     "app/api.ts",
				Language: "typescript",
				Issues:   apiIssues,
				Score:    scored(apiIssues...),
				Metrics: quality.Metrics{
					TotalLines: 6, CodeLines: 6, FunctionsCount: 1, MaxNesting: 1,
					Cyclomatic: 2, Cognitive: 1, LongestLine: 40,
				},
				Deltas: []contract.Delta{{
					FunctionID: "<top-level>",
					Change:     contract.CatchEmptied,
					Severity:   quality.Critical,
					Line:       4,
					Detail:     "catch handler emptied",
				}},
			},
		},
		Timings: []timings.StageSummary{
			{Stage: "parse", Count: 2, P50: 1500 * time.Microsecond, P95: 2500 * time.Microsecond, Max: 2500 * time.Microsecond},
			{Stage: "analyze", Count: 2, P50: 800 * time.Microsecond, P95: 900 * time.Microsecond, Max: 900 * time.Microsecond},
		},
		Opts: Options{
			QuickTips:    true,
			QuickTipsMax: 3,
			Snippets:     true,
			MaxSnippets:  3,
			DiffContext:  1,
		},
	}
}

func TestBlockRenderGolden(t *testing.T) {
	got := sampleBlock().Render()
	testutil.CompareGolden(t, filepath.Join("testdata", "context_block.golden"), []byte(got))
}

func TestBlockRenderDeterministic(t *testing.T) {
	a := sampleBlock().Render()
	b := sampleBlock()
	// input order must not matter
	b.Files[0], b.Files[3] = b.Files[3], b.Files[0]
	assert.Equal(t, a, b.Render())
}

func TestBlockOptionalSections(t *testing.T) {
	b := sampleBlock()
	b.Opts.QuickTips = false
	b.Opts.Snippets = false
	b.Timings = nil
	out := b.Render()
	assert.NotContains(t, out, Header(SectionQuickTips))
	assert.NotContains(t, out, Header(SectionChangeContext))
	assert.NotContains(t, out, Header(SectionTimings))
	assert.Contains(t, out, Header(SectionNextSteps))
}

func TestBlockSectionOrder(t *testing.T) {
	out := sampleBlock().Render()
	last := -1
	for _, s := range []string{
		SectionChangeSummary, SectionRiskReport, SectionCodeHealth, SectionAPIContract,
		SectionChangeContext, SectionQuickTips, SectionTimings, SectionNextSteps,
	} {
		idx := strings.Index(out, Header(s))
		require.GreaterOrEqual(t, idx, 0, s)
		assert.Greater(t, idx, last, s)
		last = idx
	}
}

func TestAPIContractForced(t *testing.T) {
	b := &Block{
		Files: []FileReport{{Path: "a.go", Language: "go", Score: scored()}},
		Opts:  Options{ForceAPIContract: true},
	}
	out := b.Render()
	assert.Contains(t, out, Header(SectionAPIContract)+"\n- no contract changes detected")
	assert.Contains(t, out, "- No blocking issues found.")

	b.Opts.ForceAPIContract = false
	assert.NotContains(t, b.Render(), Header(SectionAPIContract))
}

func TestRiskReportCap(t *testing.T) {
	var issues []quality.Issue
	for i := 1; i <= 120; i++ {
		issues = append(issues, quality.NewIssue(quality.RuleLongLine, "", "line is 130 characters (max 120)", i, 121))
	}
	b := &Block{Files: []FileReport{{Path: "x.js", Language: "javascript", Issues: issues, Score: scored(issues...)}}}
	out := b.Render()
	assert.Equal(t, MaxRiskIssues, strings.Count(out, "- [Minor] STY001"))
	assert.Contains(t, out, "… truncated: showing 100 of 120 issues")
}

func TestBlockLimit(t *testing.T) {
	b := sampleBlock()
	b.Opts.Limit = 200
	out := b.Render()
	assert.Equal(t, 200, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, Ellipsis))
}

func TestChangeContextRespectsChangedLines(t *testing.T) {
	b := sampleBlock()
	for i := range b.Files {
		if b.Files[i].Path == "app/db.py" {
			b.Files[i].Changed = map[int]bool{3: true}
		}
	}
	out := b.Render()
	assert.NotContains(t, out, "--- app/db.py:2 SEC001")
	assert.Contains(t, out, "--- app/db.py:3 CPX004")
}

func TestDecide(t *testing.T) {
	t.Run("allow below gate", func(t *testing.T) {
		issues := []quality.Issue{quality.NewIssue(quality.RuleLongLine, "", "long", 1, 121)}
		d := Decide(issues, nil, quality.Major)
		assert.False(t, d.Denied())
		assert.Equal(t, Allow, d.Permission)
	})

	t.Run("deny cites most severe", func(t *testing.T) {
		issues := []quality.Issue{
			quality.NewIssue(quality.RuleSQL, "", "SQL built with interpolation", 5, 9),
			quality.NewIssue(quality.RuleCredentials, "", "hardcoded credential in 'password'", 1, 1),
		}
		d := Decide(issues, nil, quality.Major)
		require.True(t, d.Denied())
		assert.Equal(t,
			"Critical SEC001 at line 1: hardcoded credential in 'password'; Major SEC002 at line 5: SQL built with interpolation",
			d.Reason)
	})

	t.Run("more than three", func(t *testing.T) {
		var issues []quality.Issue
		for i := 1; i <= 5; i++ {
			issues = append(issues, quality.NewIssue(quality.RuleUnreachable, "", "unreachable statement", i, 1))
		}
		d := Decide(issues, nil, quality.Critical)
		assert.False(t, d.Denied())
		d = Decide(issues, nil, quality.Major)
		assert.True(t, strings.HasSuffix(d.Reason, " (+2 more)"), d.Reason)
	})

	t.Run("contract delta always denies", func(t *testing.T) {
		deltas := []contract.Delta{
			{FunctionID: "a.f", Change: contract.ParamCountIncreased, Severity: quality.Minor, Detail: "parameter count 1 -> 2"},
			{FunctionID: "a.g", Change: contract.ReturnChanged, Severity: quality.Major, Detail: "no longer returns a value"},
		}
		d := Decide(nil, deltas, quality.Critical)
		require.True(t, d.Denied())
		assert.Equal(t, "API contract: ParamCountIncreased in 'a.f': parameter count 1 -> 2 (+1 more)", d.Reason)
	})
}

func TestTruncateUTF8Safe(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"ab👨‍👩‍👧cd", 5, "ab…"},
		{"héllo", 3, "hé…"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		got := TruncateUTF8Safe(tt.in, tt.limit)
		assert.Equal(t, tt.want, got, "TruncateUTF8Safe(%q, %d)", tt.in, tt.limit)
		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, utf8.RuneCountInString(got), max(tt.limit, 0))
	}
}

func TestTips(t *testing.T) {
	issues := []quality.Issue{
		quality.NewIssue(quality.RuleLongLine, "", "long", 1, 121),
		quality.NewIssue(quality.RuleLongLine, "", "long", 2, 121),
		quality.NewIssue(quality.RuleSQL, "", "sql", 3, 1),
	}
	tips := Tips(issues, false, 5)
	require.Len(t, tips, 2)
	assert.Equal(t, glossary[quality.SqlInjection], tips[0])
	assert.Equal(t, glossary[quality.LongLine], tips[1])

	assert.Len(t, Tips(issues, true, 1), 1)
	assert.Equal(t, contractTip, Tips(issues, true, 1)[0])
	assert.Empty(t, Tips(issues, true, 0))

	for _, tip := range glossary {
		assert.LessOrEqual(t, utf8.RuneCountInString(tip), MaxTipChars)
	}
}

func TestSkipLine(t *testing.T) {
	assert.Equal(t, "- a.rs: skipped (timeout): analysis exceeded 2.5s",
		SkipLine("a.rs", asterr.NewAnalysisTimeout("rust", 2.5)))
	assert.Equal(t, "- a.py: skipped (validation_failed): file is empty",
		SkipLine("a.py", asterr.NewEmptySource()))
	assert.Equal(t, "- a.py: skipped (response_format): analysis failed",
		SkipLine("a.py", fmt.Errorf("boom at /home/me/secret/path")))
}
