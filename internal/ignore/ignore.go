// Package ignore decides which project paths the engine skips.
//
// Patterns follow .gitignore conventions: a pattern without a slash matches a
// name at any depth, a leading slash anchors it to the root, a trailing slash
// restricts it to directories, "**" spans any number of segments and a
// leading "!" re-includes a previously ignored path.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"hookguard/internal/paths"
)

// BuiltinDirs are directory names never analyzed.
var BuiltinDirs = []string{
	".git",
	".hg",
	".svn",
	paths.StateDirName,
	"node_modules",
	"target",
	"dist",
	"build",
	"out",
	".venv",
	"venv",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".tox",
	".next",
	".idea",
	".vscode",
	"coverage",
	"vendor",
}

type rule struct {
	parts   []string
	negate  bool
	dirOnly bool
}

// Matcher holds an ordered rule list; the last matching rule wins.
type Matcher struct {
	builtin map[string]struct{}
	rules   []rule
}

// New creates a matcher with the built-in directory list and extra globs.
func New(globs ...string) *Matcher {
	m := &Matcher{builtin: make(map[string]struct{}, len(BuiltinDirs))}
	for _, d := range BuiltinDirs {
		m.builtin[d] = struct{}{}
	}
	m.Add(globs...)
	return m
}

// Add appends patterns. Blank lines and comments are skipped.
func (m *Matcher) Add(patterns ...string) {
	for _, p := range patterns {
		if r, ok := compile(p); ok {
			m.rules = append(m.rules, r)
		}
	}
}

// LoadGitignore appends the rules of <root>/.gitignore. A missing file is not
// an error.
func (m *Matcher) LoadGitignore(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.Add(scanner.Text())
	}
	return scanner.Err()
}

// Match reports whether the root-relative path is ignored. A path is ignored
// when it or any of its parent directories matches.
func (m *Matcher) Match(rel string, isDir bool) bool {
	rel = strings.TrimPrefix(paths.Normalize(rel), "/")
	if rel == "" || rel == "." {
		return false
	}
	segs := strings.Split(rel, "/")

	for i, s := range segs {
		last := i == len(segs)-1
		if _, ok := m.builtin[s]; ok && (!last || isDir) {
			return true
		}
	}

	ignored := false
	for _, r := range m.rules {
		if r.matches(segs, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// MatchFile is Match for a regular file.
func (m *Matcher) MatchFile(rel string) bool {
	return m.Match(rel, false)
}

func (r rule) matches(segs []string, isDir bool) bool {
	// parent directories
	for i := 1; i < len(segs); i++ {
		if matchParts(r.parts, segs[:i]) {
			return true
		}
	}
	if r.dirOnly && !isDir {
		return false
	}
	return matchParts(r.parts, segs)
}

func compile(p string) (rule, bool) {
	p = strings.TrimRight(p, " \t\r")
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false
	}
	var r rule
	if strings.HasPrefix(p, "!") {
		r.negate = true
		p = p[1:]
	}
	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimRight(p, "/")
	}
	p = filepath.ToSlash(p)
	anchored := strings.HasPrefix(p, "/") || strings.Contains(p, "/")
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return rule{}, false
	}
	r.parts = splitPattern(p)
	if !anchored {
		r.parts = append([]string{"**"}, r.parts...)
	}
	return r, true
}

// MatchGlob matches a slash-separated path against a glob supporting "**".
func MatchGlob(pattern, p string) bool {
	if pattern == "**" {
		return true
	}
	p = strings.TrimPrefix(paths.Normalize(p), "/")
	return matchParts(splitPattern(filepath.ToSlash(pattern)), strings.Split(p, "/"))
}

func splitPattern(pattern string) []string {
	var parts []string
	for _, s := range strings.Split(pattern, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func matchParts(pattern, segs []string) bool {
	pi, si := 0, 0

	for pi < len(pattern) && si < len(segs) {
		if pattern[pi] == "**" {
			if pi == len(pattern)-1 {
				return true
			}
			for i := si; i <= len(segs); i++ {
				if matchParts(pattern[pi+1:], segs[i:]) {
					return true
				}
			}
			return false
		}

		matched, _ := path.Match(pattern[pi], segs[si])
		if !matched {
			return false
		}
		pi++
		si++
	}

	// trailing "**" matches nothing as well
	for pi < len(pattern) && pattern[pi] == "**" {
		pi++
	}
	return pi == len(pattern) && si == len(segs)
}
