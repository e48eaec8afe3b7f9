package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**", "anything/at/all.go", true},
		{"*.min.js", "app.min.js", true},
		{"*.min.js", "static/app.min.js", false},
		{"**/*.min.js", "static/js/app.min.js", true},
		{"**/generated/**", "src/generated/api.ts", true},
		{"**/generated/**", "src/generated", true},
		{"src/*.py", "src/a.py", true},
		{"src/*.py", "src/pkg/a.py", false},
		{"src/**/*.py", "src/a.py", true},
		{"vendor/**", "vendor\\lib\\x.go", true},
	}
	for _, tt := range tests {
		if got := MatchGlob(tt.pattern, tt.path); got != tt.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestMatcher_Builtin(t *testing.T) {
	m := New()
	ignored := []string{
		"node_modules/react/index.js",
		".git/config",
		"crates/core/target/debug/build.rs",
		".hookguard/project-cache.json",
		"pkg/__pycache__/mod.py",
	}
	for _, p := range ignored {
		if !m.MatchFile(p) {
			t.Errorf("%q should be ignored", p)
		}
	}
	kept := []string{"src/main.rs", "build.gradle", "target.py", "docs/dist.md"}
	for _, p := range kept {
		if m.MatchFile(p) {
			t.Errorf("%q should not be ignored", p)
		}
	}
	if !m.Match("dist", true) {
		t.Error("dist directory should be ignored")
	}
}

func TestMatcher_GitignoreSemantics(t *testing.T) {
	m := New()
	m.Add(
		"# comment",
		"",
		"*.log",
		"/secrets.env",
		"tmp/",
		"generated/*.go",
		"!generated/keep.go",
	)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"logs/app/debug.log", false, true},
		{"secrets.env", false, true},
		{"config/secrets.env", false, false},
		{"tmp", true, true},
		{"tmp/scratch.py", false, true},
		{"src/tmp/scratch.py", false, true},
		{"tmp", false, false},
		{"generated/api.go", false, true},
		{"generated/keep.go", false, false},
		{"src/main.go", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, dir=%v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestMatcher_LoadGitignore(t *testing.T) {
	root := t.TempDir()
	if err := writeGitignore(root); err != nil {
		t.Fatal(err)
	}
	m := New()
	if err := m.LoadGitignore(root); err != nil {
		t.Fatalf("LoadGitignore: %v", err)
	}
	if !m.MatchFile("coverage.out") {
		t.Error("coverage.out should be ignored from .gitignore")
	}
	if !m.MatchFile("fixtures/big.json") {
		t.Error("fixtures/ should be ignored from .gitignore")
	}

	// missing file is fine
	if err := New().LoadGitignore(t.TempDir()); err != nil {
		t.Errorf("missing .gitignore: %v", err)
	}
}

func TestMatcher_ExtraGlobs(t *testing.T) {
	m := New("**/*.pb.go", "legacy/**")
	if !m.MatchFile("api/v1/service.pb.go") {
		t.Error("pb.go should be ignored")
	}
	if !m.MatchFile("legacy/old/code.php") {
		t.Error("legacy tree should be ignored")
	}
	if m.MatchFile("api/v1/service.go") {
		t.Error("service.go should not be ignored")
	}
}

func writeGitignore(root string) error {
	return os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.out\nfixtures/\n"), 0o644)
}
