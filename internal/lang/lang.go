// Package lang maps file extensions to language tags and owns the
// process-wide tree-sitter grammar cache.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Language is a closed set of source languages and configuration dialects.
type Language string

const (
	Rust       Language = "rust"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Java       Language = "java"
	CSharp     Language = "csharp"
	Go         Language = "go"
	C          Language = "c"
	Cpp        Language = "cpp"
	PHP        Language = "php"
	Ruby       Language = "ruby"

	JSON Language = "json"
	YAML Language = "yaml"
	TOML Language = "toml"
)

var extensions = map[string]Language{
	"rs":   Rust,
	"py":   Python,
	"pyi":  Python,
	"js":   JavaScript,
	"mjs":  JavaScript,
	"cjs":  JavaScript,
	"jsx":  JavaScript,
	"ts":   TypeScript,
	"mts":  TypeScript,
	"cts":  TypeScript,
	"tsx":  TypeScript,
	"java": Java,
	"cs":   CSharp,
	"go":   Go,
	"c":    C,
	"h":    C,
	"cpp":  Cpp,
	"cc":   Cpp,
	"cxx":  Cpp,
	"hpp":  Cpp,
	"hxx":  Cpp,
	"hh":   Cpp,
	"php":  PHP,
	"rb":   Ruby,
	"json": JSON,
	"yml":  YAML,
	"yaml": YAML,
	"toml": TOML,
}

// Resolve maps an extension, with or without the leading dot, to a language.
// Matching is case-insensitive; unknown extensions return false.
func Resolve(ext string) (Language, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	l, ok := extensions[ext]
	return l, ok
}

// ResolvePath resolves the language of a file path by its extension.
func ResolvePath(path string) (Language, bool) {
	return Resolve(filepath.Ext(path))
}

// UsesTSX reports whether path must be parsed with the TSX grammar variant.
func UsesTSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsx")
}

// IsConfigDialect reports whether l is JSON, YAML or TOML.
func (l Language) IsConfigDialect() bool {
	return l == JSON || l == YAML || l == TOML
}

// Valid reports whether l is one of the known tags.
func (l Language) Valid() bool {
	_, ok := grammars[l]
	return ok
}

func (l Language) String() string { return string(l) }

// Extensions returns the sorted extensions (without dot) that resolve to l.
func (l Language) Extensions() []string {
	var out []string
	for ext, lang := range extensions {
		if lang == l {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// All returns every language tag in a stable order.
func All() []Language {
	return []Language{Rust, Python, JavaScript, TypeScript, Java, CSharp, Go, C, Cpp, PHP, Ruby, JSON, YAML, TOML}
}

// Grammars are created once per process and shared by all parsers;
// a *sitter.Language is immutable after construction.
var grammars = map[Language]func() *sitter.Language{
	Rust:       sync.OnceValue(rust.GetLanguage),
	Python:     sync.OnceValue(python.GetLanguage),
	JavaScript: sync.OnceValue(javascript.GetLanguage),
	TypeScript: sync.OnceValue(typescript.GetLanguage),
	Java:       sync.OnceValue(java.GetLanguage),
	CSharp:     sync.OnceValue(csharp.GetLanguage),
	Go:         sync.OnceValue(golang.GetLanguage),
	C:          sync.OnceValue(c.GetLanguage),
	Cpp:        sync.OnceValue(cpp.GetLanguage),
	PHP:        sync.OnceValue(php.GetLanguage),
	Ruby:       sync.OnceValue(ruby.GetLanguage),
	YAML:       sync.OnceValue(yaml.GetLanguage),
	TOML:       sync.OnceValue(toml.GetLanguage),
	// No tree-sitter JSON grammar ships with go-tree-sitter; JSON is
	// validated by encoding/json in the analyzer.
	JSON: func() *sitter.Language { return nil },
}

var tsxGrammar = sync.OnceValue(tsx.GetLanguage)

// Grammar returns the cached grammar for l, or nil when l has none (JSON)
// or is not a known tag.
func Grammar(l Language) *sitter.Language {
	g, ok := grammars[l]
	if !ok {
		return nil
	}
	return g()
}

// TSXGrammar returns the cached TSX variant of the TypeScript grammar.
func TSXGrammar() *sitter.Language {
	return tsxGrammar()
}
