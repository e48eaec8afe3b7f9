package hook

import (
	"errors"
	"strings"
)

var (
	errOldStringNotFound = errors.New("old_string not found in file")
	errAmbiguousRevert   = errors.New("new_string empty, cannot locate edit")
)

// applyEdits replays edits on before the way the editor tool does: each
// edit replaces the first occurrence of its old string, or every occurrence
// with ReplaceAll.
func applyEdits(before string, edits []Edit) (string, error) {
	cur := before
	for _, e := range edits {
		if e.OldString == "" {
			if cur == "" {
				cur = e.NewString
				continue
			}
			return "", errOldStringNotFound
		}
		if !strings.Contains(cur, e.OldString) {
			return "", errOldStringNotFound
		}
		cur = replace(cur, e.OldString, e.NewString, e.ReplaceAll)
	}
	return cur, nil
}

// revertEdits reconstructs the content before edits from the content after
// them, undoing the edits in reverse order.
func revertEdits(after string, edits []Edit) (string, error) {
	cur := after
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if e.NewString == "" {
			return "", errAmbiguousRevert
		}
		if !strings.Contains(cur, e.NewString) {
			return "", errOldStringNotFound
		}
		cur = replace(cur, e.NewString, e.OldString, e.ReplaceAll)
	}
	return cur, nil
}

func replace(s, old, repl string, all bool) string {
	if all {
		return strings.ReplaceAll(s, old, repl)
	}
	return strings.Replace(s, old, repl, 1)
}

// changedLines returns the 1-based lines of after covered by the new
// strings of edits.
func changedLines(after string, edits []Edit) map[int]bool {
	lines := make(map[int]bool)
	for _, e := range edits {
		if e.NewString == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(after[from:], e.NewString)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(e.NewString)
			first := strings.Count(after[:start], "\n") + 1
			last := first + strings.Count(strings.TrimSuffix(e.NewString, "\n"), "\n")
			for l := first; l <= last; l++ {
				lines[l] = true
			}
			if !e.ReplaceAll {
				break
			}
			from = end
		}
	}
	return lines
}
