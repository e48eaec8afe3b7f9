package analyzer

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

// credentialLexemes are matched anywhere in normalized identifier names.
var credentialLexemes = []string{
	"password",
	"passwd",
	"secret",
	"secretkey",
	"apikey",
	"token",
	"accesskey",
	"privatekey",
}

// IsCredentialName reports whether an identifier contains a credential
// lexeme after lowercasing and removing _ - $ @.
func IsCredentialName(name string) bool {
	norm := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '$', '@':
			return -1
		}
		return r
	}, strings.ToLower(name))
	if norm == "" {
		return false
	}
	for _, s := range credentialLexemes {
		if strings.Contains(norm, s) {
			return true
		}
	}
	return false
}

// SEC001
func (w *walker) checkCredentials(n *sitter.Node) {
	if w.testCx {
		return
	}
	lhs, rhs := syntax.AssignmentSides(w.l, n)
	if lhs == nil || rhs == nil {
		return
	}
	name := syntax.TrailingIdent(syntax.Text(lhs, w.src))
	if name == "" || !IsCredentialName(name) {
		return
	}
	if w.opts.Policy.IsAllowlisted(name) {
		return
	}
	if !w.t.IsStringLiteral(rhs, w.src) {
		return
	}
	w.emit(quality.RuleCredentials, "", n, "hardcoded credential assigned to '%s'", name)
}

var sqlPattern = regexp.MustCompile(`(?is)\b(select|insert|update|delete)\b.*\b(from|into|set|where)\b`)

var formatCalls = map[string]bool{
	"format":  true,
	"Format":  true,
	"Sprintf": true,
	"sprintf": true,
	"printf":  true,
	"f":       true,
}

var callKinds = map[string]bool{
	"call":                     true,
	"call_expression":          true,
	"method_invocation":        true,
	"invocation_expression":    true,
	"function_call_expression": true,
	"member_call_expression":   true,
	"macro_invocation":         true,
}

// SEC002
func (w *walker) checkSQL(n *sitter.Node) {
	if w.testCx {
		return
	}
	parent := n.Parent()
	if parent != nil && w.t.Strings.Has(parent.Type()) {
		return
	}
	if !sqlPattern.MatchString(syntax.Text(n, w.src)) {
		return
	}
	var how string
	switch {
	case syntax.HasInterpolation(n):
		how = "string interpolation"
	case isConcatOperand(parent):
		how = "string concatenation"
	case w.isFormatArgument(n, parent):
		how = "string formatting"
	case isAssigned(parent):
		how = "a string assignment"
	default:
		return
	}
	w.emit(quality.RuleSQL, "", n, "SQL statement built from %s; use parameterized queries", how)
}

func isConcatOperand(parent *sitter.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "binary_expression", "binary_operator", "binary":
	default:
		return false
	}
	for i := 0; i < int(parent.ChildCount()); i++ {
		c := parent.Child(i)
		if c == nil || c.IsNamed() {
			continue
		}
		switch c.Type() {
		case "+", ".", "%":
			return true
		}
	}
	return false
}

func (w *walker) isFormatArgument(n, parent *sitter.Node) bool {
	if parent == nil {
		return false
	}
	// Python "...".format(x)
	if parent.Type() == "attribute" && syntax.Same(parent.ChildByFieldName("object"), n) {
		return syntax.FieldText(parent, "attribute", w.src) == "format"
	}
	switch parent.Type() {
	case "argument_list", "arguments", "argument", "token_tree":
	default:
		return false
	}
	call := parent
	if call.Type() == "argument" {
		call = call.Parent()
	}
	if call != nil {
		call = call.Parent()
	}
	if call == nil || !callKinds[call.Type()] {
		return false
	}
	var callee string
	switch call.Type() {
	case "macro_invocation":
		callee = syntax.FieldText(call, "macro", w.src)
	case "method_invocation", "member_call_expression":
		callee = syntax.FieldText(call, "name", w.src)
	case "call":
		callee = syntax.FieldText(call, "method", w.src)
		if callee == "" {
			callee = syntax.FieldText(call, "function", w.src)
		}
	default:
		callee = syntax.FieldText(call, "function", w.src)
	}
	return formatCalls[syntax.TrailingIdent(callee)]
}

func isAssigned(parent *sitter.Node) bool {
	for i, p := 0, parent; i < 2 && p != nil; i, p = i+1, p.Parent() {
		kind := p.Type()
		if strings.Contains(kind, "assignment") || strings.Contains(kind, "declarator") ||
			strings.Contains(kind, "declaration") || kind == "equals_value_clause" ||
			kind == "var_spec" || kind == "const_spec" || kind == "const_item" || kind == "static_item" {
			return true
		}
	}
	return false
}

// FLW002 and the error-handling counters of the contract summary.
func (w *walker) checkErrorHandling(n *sitter.Node, kind string) {
	f := w.current()

	if w.t.Catches.Has(kind) {
		if syntax.IsEmptyBody(w.l, syntax.CatchBody(w.l, n), w.src) {
			f.fn.EmptyCatches++
			w.emit(quality.RuleUnhandledError, "", n, "empty %s block swallows errors", catchWord(w.l))
		} else {
			f.fn.NonEmptyCatches++
		}
		return
	}

	switch w.l {
	case lang.JavaScript, lang.TypeScript:
		if h := syntax.PromiseCatchHandler(n, w.src); h != nil {
			if syntax.IsEmptyHandler(w.l, h, w.src) {
				f.fn.EmptyCatches++
				w.emit(quality.RuleUnhandledError, "", n, "empty .catch() handler swallows errors")
			} else {
				f.fn.NonEmptyCatches++
			}
		}
	case lang.Go:
		if syntax.IsDiscard(w.l, n, w.src) {
			f.fn.Discards++
			w.emit(quality.RuleUnhandledError, "", n, "result of call discarded with _")
		} else if syntax.IsErrorCheck(w.l, n, w.src) {
			f.fn.ErrorChecks++
		}
	case lang.Rust:
		switch {
		case syntax.IsDiscard(w.l, n, w.src):
			f.fn.Discards++
			w.emit(quality.RuleUnhandledError, "", n, "result discarded with let _")
		case syntax.IsErrorCheck(w.l, n, w.src):
			f.fn.ErrorChecks++
		}
		if method, ok := syntax.IsUnwrapCall(n, w.src); ok {
			f.fn.Unwraps++
			w.emit(quality.RuleUnhandledError, quality.Critical, n, ".%s() panics on error", method)
		}
		if kind == "macro_invocation" {
			switch name := syntax.MacroName(n, w.src); name {
			case "panic", "todo", "unimplemented":
				w.emit(quality.RuleUnhandledError, quality.Critical, n, "%s! aborts instead of returning an error", name)
			}
		}
	}
}

func catchWord(l lang.Language) string {
	switch l {
	case lang.Python:
		return "except"
	case lang.Ruby:
		return "rescue"
	default:
		return "catch"
	}
}
