package analyzer

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

// lineMetrics classifies every physical line and checks line length.
func (w *walker) lineMetrics() (quality.Metrics, []quality.Issue) {
	sort.Slice(w.comments, func(i, j int) bool { return w.comments[i].start < w.comments[j].start })
	inComment := func(offset int) bool {
		i := sort.Search(len(w.comments), func(i int) bool { return w.comments[i].end > offset })
		return i < len(w.comments) && w.comments[i].start <= offset
	}

	m, issues := countLines(w.lines, inComment, true)
	m.FunctionsCount = w.funcCount
	m.MaxNesting = w.maxNesting
	m.Cyclomatic = w.cyclomatic
	m.Cognitive = w.cognitive
	return m, issues
}

// countLines fills the line-based metrics. inComment reports whether a byte
// offset lies inside a comment; long lines are reported when checkLength
// is set.
func countLines(li *syntax.LineIndex, inComment func(offset int) bool, checkLength bool) (quality.Metrics, []quality.Issue) {
	var m quality.Metrics
	var issues []quality.Issue

	total := li.Lines()
	m.TotalLines = total
	for n := 1; n <= total; n++ {
		line := li.Line(n)
		width := utf8.RuneCount(line)
		if width > m.LongestLine {
			m.LongestLine = width
		}
		if checkLength && width > maxLineLength {
			issues = append(issues, quality.NewIssue(quality.RuleLongLine, "",
				fmt.Sprintf("line is %d characters (max %d)", width, maxLineLength), n, maxLineLength+1))
		}

		trimmed := bytes.TrimLeft(line, " \t\f\v")
		switch {
		case len(bytes.TrimSpace(trimmed)) == 0:
			m.BlankLines++
		case inComment != nil && inComment(li.LineStart(n)+len(line)-len(trimmed)):
			m.CommentLines++
		default:
			m.CodeLines++
		}
	}
	return m, issues
}

// hashComments treats lines starting with # as comments.
func hashComments(src []byte) func(int) bool {
	return func(offset int) bool {
		return offset < len(src) && src[offset] == '#'
	}
}
