// Package analyzer runs the single-pass quality walk over a parsed source
// buffer and produces issues, metrics and per-function summaries.
package analyzer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	asterr "hookguard/internal/errors"
	"hookguard/internal/lang"
	"hookguard/internal/parse"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
	"hookguard/internal/timings"
)

// Policy answers the path and identifier questions the rules depend on.
// *config.Settings implements it.
type Policy interface {
	IsTestContext(path string) bool
	IsAllowlisted(name string) bool
}

type noPolicy struct{}

func (noPolicy) IsTestContext(string) bool { return false }
func (noPolicy) IsAllowlisted(string) bool { return false }

// Options tune one analysis.
type Options struct {
	// Path is the display path of the source. It drives test-context
	// detection and selects the TSX grammar for .tsx files.
	Path string

	// Policy answers test-context and allowlist questions. A nil Policy
	// treats every path as production code and allowlists nothing.
	Policy Policy

	// Timeout bounds the parse. Zero means parse.DefaultTimeout.
	Timeout time.Duration

	// Timings records per-stage durations. It may be nil.
	Timings *timings.Recorder
}

// Function summarizes one function for the API contract differ.
type Function struct {
	Name       string `json:"name"`
	Qualified  string `json:"qualified"`
	Overload   int    `json:"overload"`
	Line       int    `json:"line"`
	Params     int    `json:"params"`
	ReturnType string `json:"return_type,omitempty"`
	Visibility int    `json:"visibility"`
	TopLevel   bool   `json:"top_level"`

	Statements      int  `json:"statements"`
	ReturnsValue    bool `json:"returns_value"`
	ConstantReturn  bool `json:"constant_return"`
	ControlFlow     int  `json:"control_flow"`
	EmptyCatches    int  `json:"empty_catches"`
	NonEmptyCatches int  `json:"non_empty_catches"`
	Discards        int  `json:"discards"`
	Unwraps         int  `json:"unwraps"`
	ErrorChecks     int  `json:"error_checks"`
	Unreachable     int  `json:"unreachable"`
}

// Key identifies a function across two versions of a file.
func (f Function) Key() string {
	if f.Overload == 0 {
		return f.Qualified
	}
	return f.Qualified + "#" + strconv.Itoa(f.Overload)
}

// Breakage is the first error or missing node in a tree.
type Breakage struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Missing bool   `json:"missing"`
	Kind    string `json:"kind,omitempty"`
}

// Result is the output of one analysis.
type Result struct {
	Path      string          `json:"path"`
	Language  lang.Language   `json:"language"`
	Issues    []quality.Issue `json:"issues"`
	Metrics   quality.Metrics `json:"metrics"`
	Functions []Function      `json:"functions"`
	Breakage  *Breakage       `json:"breakage,omitempty"`
}

// SyntaxErr returns the SyntaxError for a broken tree, or nil.
func (r *Result) SyntaxErr() error {
	if r == nil || r.Breakage == nil {
		return nil
	}
	return asterr.NewSyntaxError(string(r.Language), r.Breakage.Line, r.Breakage.Column)
}

// Score computes the quality score of the result's issues.
func (r *Result) Score() quality.Score {
	return quality.Compute(r.Issues)
}

// Report converts the result to its serialized form.
func (r *Result) Report() quality.Report {
	return quality.Report{
		Path:     r.Path,
		Language: string(r.Language),
		Metrics:  r.Metrics,
		Score:    r.Score(),
	}
}

// Analyzer owns a parser pool. It is safe for concurrent use.
type Analyzer struct {
	pool   *parse.Pool
	logger *slog.Logger
}

// New creates an analyzer.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{pool: parse.NewPool(logger), logger: logger}
}

// Pool exposes the parser pool for callers that only need trees.
func (a *Analyzer) Pool() *parse.Pool {
	return a.pool
}

// AnalyzePath resolves the language from the path extension and analyzes
// src.
func (a *Analyzer) AnalyzePath(ctx context.Context, src []byte, opts Options) (*Result, error) {
	l, ok := lang.ResolvePath(opts.Path)
	if !ok {
		return nil, asterr.NewUnsupportedLanguage(filepath.Ext(opts.Path))
	}
	return a.Analyze(ctx, src, l, opts)
}

// Analyze parses src as l and runs every rule in one walk. A tree with
// error nodes still yields a result; its Breakage is set.
func (a *Analyzer) Analyze(ctx context.Context, src []byte, l lang.Language, opts Options) (*Result, error) {
	if err := parse.Validate(src); err != nil {
		return nil, err
	}
	if opts.Policy == nil {
		opts.Policy = noPolicy{}
	}
	if l.IsConfigDialect() {
		return a.analyzeConfig(ctx, src, l, opts)
	}

	stop := opts.Timings.Start("parse")
	tree, err := a.pool.ParseAny(ctx, parse.Request{
		Source:  src,
		Lang:    l,
		TSX:     lang.UsesTSX(opts.Path),
		Timeout: opts.Timeout,
	})
	stop()
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	stop = opts.Timings.Start("analyze")
	defer stop()

	w := newWalker(l, src, opts)
	w.run(tree.Root())

	res := &Result{
		Path:      opts.Path,
		Language:  l,
		Functions: w.functions(),
		Breakage:  w.breakage,
	}
	res.Metrics, res.Issues = w.lineMetrics()
	res.Issues = quality.Normalize(append(w.issues, res.Issues...))

	if res.Breakage != nil {
		a.logger.Debug("tree has syntax errors",
			"path", opts.Path,
			"line", res.Breakage.Line,
			"column", res.Breakage.Column,
		)
	}
	return res, nil
}

// Breakage parses src and reports only its first structural error.
// Configuration dialects and unparseable input return nil.
func (a *Analyzer) Breakage(ctx context.Context, src []byte, l lang.Language, path string, timeout time.Duration) *Breakage {
	if l.IsConfigDialect() || parse.Validate(src) != nil {
		return nil
	}
	tree, err := a.pool.ParseAny(ctx, parse.Request{Source: src, Lang: l, TSX: lang.UsesTSX(path), Timeout: timeout})
	if err != nil {
		return nil
	}
	defer tree.Close()
	if !tree.HasError() {
		return nil
	}
	return firstBreakage(tree.Root(), syntax.NewLineIndex(src))
}

func firstBreakage(root *sitter.Node, li *syntax.LineIndex) *Breakage {
	var found *Breakage
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil || n == nil || !n.HasError() && !n.IsMissing() {
			return
		}
		if n.IsMissing() || n.Type() == "ERROR" {
			line, col := li.NodePosition(n)
			found = &Breakage{Line: line, Column: col, Missing: n.IsMissing(), Kind: n.Type()}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return found
}
