package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StateDirName is the per-project directory holding caches and timing data.
const StateDirName = ".hookguard"

// Normalize returns a canonical slash-separated form of p.
// - Unicode is normalized to NFC so composed and decomposed names compare equal
// - Backslashes become forward slashes
// - Redundant separators and dot segments are removed
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	p = norm.NFC.String(p)
	p = strings.ReplaceAll(filepath.ToSlash(p), "\\", "/")
	return path.Clean(p)
}

// Relative converts an absolute path to a root-relative canonical path.
// Paths outside root are returned normalized but unchanged.
func Relative(absolutePath, root string) string {
	if root == "" {
		return Normalize(absolutePath)
	}
	resolved := resolve(absolutePath)
	rootResolved := resolve(root)

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil || strings.HasPrefix(filepath.ToSlash(rel), "..") {
		return Normalize(absolutePath)
	}
	return Normalize(rel)
}

// IsWithin checks if a path is within the root directory
func IsWithin(p, root string) bool {
	rel, err := filepath.Rel(resolve(root), resolve(p))
	if err != nil {
		return false
	}
	return !strings.HasPrefix(filepath.ToSlash(rel), "..")
}

// Depth counts the directory segments of a root-relative path.
// A file at the root has depth 0.
func Depth(rel string) int {
	rel = Normalize(rel)
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(strings.Trim(rel, "/"), "/")
}

// StateDir returns <root>/.hookguard
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// EnsureStateDir creates <root>/.hookguard if needed.
func EnsureStateDir(root string) (string, error) {
	dir := StateDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// resolve follows symlinks when the path exists.
func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	return abs
}
