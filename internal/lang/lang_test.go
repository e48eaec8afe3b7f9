package lang

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		ext  string
		want Language
		ok   bool
	}{
		{".go", Go, true},
		{"go", Go, true},
		{".PY", Python, true},
		{".pyi", Python, true},
		{".mjs", JavaScript, true},
		{".jsx", JavaScript, true},
		{".tsx", TypeScript, true},
		{".Cs", CSharp, true},
		{".h", C, true},
		{".hpp", Cpp, true},
		{".rb", Ruby, true},
		{".php", PHP, true},
		{".rs", Rust, true},
		{".yml", YAML, true},
		{".toml", TOML, true},
		{".json", JSON, true},
		{".kt", "", false},
		{"", "", false},
		{".", "", false},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.ext)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.ext, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolvePath(t *testing.T) {
	if l, ok := ResolvePath("src/app/Main.JAVA"); !ok || l != Java {
		t.Errorf("ResolvePath(Main.JAVA) = %q, %v", l, ok)
	}
	if _, ok := ResolvePath("Makefile"); ok {
		t.Error("ResolvePath(Makefile) should not resolve")
	}
}

func TestUsesTSX(t *testing.T) {
	if !UsesTSX("ui/Button.tsx") {
		t.Error("expected .tsx to use TSX grammar")
	}
	if UsesTSX("ui/button.ts") {
		t.Error("expected .ts to use plain TypeScript grammar")
	}
}

func TestConfigDialects(t *testing.T) {
	for _, l := range All() {
		want := l == JSON || l == YAML || l == TOML
		if got := l.IsConfigDialect(); got != want {
			t.Errorf("%s.IsConfigDialect() = %v, want %v", l, got, want)
		}
	}
}

func TestAllCoversExtensionTable(t *testing.T) {
	if len(All()) != 14 {
		t.Fatalf("All() has %d languages, want 14", len(All()))
	}
	for _, l := range All() {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
		if len(l.Extensions()) == 0 {
			t.Errorf("%s has no extensions", l)
		}
	}
	if Language("kotlin").Valid() {
		t.Error("kotlin should not be a valid tag")
	}
}

func TestGrammarCached(t *testing.T) {
	for _, l := range All() {
		g1 := Grammar(l)
		g2 := Grammar(l)
		if l == JSON {
			if g1 != nil {
				t.Error("JSON has no tree-sitter grammar")
			}
			continue
		}
		if g1 == nil {
			t.Errorf("Grammar(%s) returned nil", l)
			continue
		}
		if g1 != g2 {
			t.Errorf("Grammar(%s) not cached: %p != %p", l, g1, g2)
		}
	}
	if TSXGrammar() == nil || TSXGrammar() != TSXGrammar() {
		t.Error("TSX grammar should be cached and non-nil")
	}
	if Grammar("cobol") != nil {
		t.Error("unknown tag should yield nil grammar")
	}
}
