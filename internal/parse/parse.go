// Package parse turns source bytes into tree-sitter trees under a size and
// time budget.
package parse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	asterr "hookguard/internal/errors"
	"hookguard/internal/lang"
)

const (
	// MaxSourceBytes is the hard input cap; larger buffers are rejected
	// before any parsing work.
	MaxSourceBytes = 10 * 1024 * 1024

	// DefaultTimeout bounds a single parse.
	DefaultTimeout = 5 * time.Second
)

// Request describes one parse.
type Request struct {
	Source []byte
	Lang   lang.Language
	// TSX selects the TSX grammar variant for TypeScript.
	TSX bool
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// Tree is a parsed source buffer. Callers must Close it.
type Tree struct {
	Lang   lang.Language
	Source []byte
	tree   *sitter.Tree
}

// Root returns the root node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// HasError reports whether the tree contains ERROR or MISSING nodes.
func (t *Tree) HasError() bool {
	return t.Root().HasError()
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Pool runs parses on worker goroutines so callers can time-box them.
// Every parse gets its own parser: a parser that saw a cancellable context
// keeps its cancellation flag set and fails every later parse.
type Pool struct {
	logger *slog.Logger
}

// NewPool creates a parser pool.
func NewPool(logger *slog.Logger) *Pool {
	return &Pool{logger: logger}
}

// Validate applies the cheap input guards shared by every backend.
func Validate(source []byte) error {
	if len(source) > MaxSourceBytes {
		return asterr.NewSourceTooLarge(len(source))
	}
	if len(bytes.TrimSpace(source)) == 0 {
		return asterr.NewEmptySource()
	}
	return nil
}

// Parse parses non-Rust source. Rust is rejected with RustShouldUseSyn;
// use ParseRust. A tree with error nodes is returned without error: the
// analyzer reports the breakage.
func (p *Pool) Parse(ctx context.Context, req Request) (*Tree, error) {
	if err := Validate(req.Source); err != nil {
		return nil, err
	}
	if req.Lang == lang.Rust {
		return nil, asterr.NewRustShouldUseSyn()
	}
	grammar := lang.Grammar(req.Lang)
	if req.Lang == lang.TypeScript && req.TSX {
		grammar = lang.TSXGrammar()
	}
	if grammar == nil {
		return nil, asterr.NewUnsupportedLanguage(string(req.Lang))
	}
	return p.run(ctx, req, grammar)
}

// ParseRust is the Rust backend. It uses the Rust grammar, whose macro
// invocations stay as token trees that the analyzer inspects by macro name.
func (p *Pool) ParseRust(ctx context.Context, source []byte, timeout time.Duration) (*Tree, error) {
	if err := Validate(source); err != nil {
		return nil, err
	}
	return p.run(ctx, Request{Source: source, Lang: lang.Rust, Timeout: timeout}, lang.Grammar(lang.Rust))
}

// ParseAny dispatches to ParseRust for Rust and Parse otherwise.
func (p *Pool) ParseAny(ctx context.Context, req Request) (*Tree, error) {
	if req.Lang == lang.Rust {
		return p.ParseRust(ctx, req.Source, req.Timeout)
	}
	return p.Parse(ctx, req)
}

type outcome struct {
	tree *sitter.Tree
	err  error
}

func (p *Pool) run(ctx context.Context, req Request, grammar *sitter.Language) (*Tree, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := string(req.Lang)
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: asterr.NewAnalysisThreadFailed(name, fmt.Errorf("panic: %v", r))}
			}
		}()
		parser := sitter.NewParser()
		defer parser.Close()
		parser.SetLanguage(grammar)
		tree, err := parser.ParseCtx(ctx, nil, req.Source)
		if ctx.Err() != nil && tree != nil {
			// Nobody is waiting for this tree any more.
			tree.Close()
			tree = nil
		}
		done <- outcome{tree: tree, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, p.timeout(name, timeout)
			}
			var ae *asterr.AstError
			if errors.As(out.err, &ae) {
				return nil, ae
			}
			return nil, asterr.NewParseFailed(name, out.err)
		}
		if out.tree == nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, p.timeout(name, timeout)
			}
			return nil, asterr.NewParseFailed(name, nil)
		}
		if out.tree.RootNode() == nil {
			out.tree.Close()
			return nil, asterr.NewParseFailed(name, nil)
		}
		return &Tree{Lang: req.Lang, Source: req.Source, tree: out.tree}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, p.timeout(name, timeout)
		}
		return nil, asterr.NewParseFailed(name, ctx.Err())
	}
}

func (p *Pool) timeout(name string, d time.Duration) error {
	if p.logger != nil {
		p.logger.Warn("parse timed out", "lang", name, "timeout", d)
	}
	return asterr.NewAnalysisTimeout(name, d.Seconds())
}
