package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
)

var divergingMacros = map[string]bool{
	"panic":         true,
	"todo":          true,
	"unimplemented": true,
	"unreachable":   true,
}

// MacroName returns the last path segment of a Rust macro invocation.
func MacroName(n *sitter.Node, src []byte) string {
	if n == nil || n.Type() != "macro_invocation" {
		return ""
	}
	name := FieldText(n, "macro", src)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return strings.TrimSuffix(name, "!")
}

// IsDivergingMacro reports panic!, todo!, unimplemented! and unreachable!.
func IsDivergingMacro(n *sitter.Node, src []byte) bool {
	return divergingMacros[MacroName(n, src)]
}

// IsTerminator reports whether a statement ends control flow in its block.
func IsTerminator(l lang.Language, n *sitter.Node, src []byte) bool {
	t := TableFor(l)
	kind := n.Type()
	if t.Terminators.Has(kind) {
		return true
	}
	switch l {
	case lang.Rust:
		if kind == "macro_invocation" {
			return IsDivergingMacro(n, src)
		}
		if kind == "expression_statement" {
			inner := t.FirstNamed(n)
			return inner != nil && (t.Terminators.Has(inner.Type()) || IsDivergingMacro(inner, src))
		}
	case lang.Go:
		if kind == "expression_statement" {
			call := t.FirstNamed(n)
			return call != nil && call.Type() == "call_expression" && FieldText(call, "function", src) == "panic"
		}
	case lang.PHP, lang.Cpp, lang.JavaScript, lang.TypeScript:
		if kind == "throw_expression" {
			return true
		}
		if kind == "expression_statement" {
			inner := t.FirstNamed(n)
			return inner != nil && inner.Type() == "throw_expression"
		}
	case lang.Ruby:
		return isRubyRaise(n, src)
	}
	return false
}

func isRubyRaise(n *sitter.Node, src []byte) bool {
	switch n.Type() {
	case "identifier":
		return Text(n, src) == "raise"
	case "call", "method_call", "command":
		if n.ChildByFieldName("receiver") != nil {
			return false
		}
		m := n.ChildByFieldName("method")
		if m == nil && n.NamedChildCount() > 0 {
			m = n.NamedChild(0)
		}
		return Text(m, src) == "raise"
	}
	return false
}

// CatchBody returns the handler body of a catch, except or rescue clause.
// nil means the clause has no body at all.
func CatchBody(l lang.Language, n *sitter.Node) *sitter.Node {
	switch l {
	case lang.Python:
		var body *sitter.Node
		for _, c := range NamedChildren(n) {
			if c.Type() == "block" {
				body = c
			}
		}
		return body
	case lang.Ruby:
		if b := n.ChildByFieldName("body"); b != nil {
			return b
		}
		return ChildOfKind(n, "then")
	}
	if b := n.ChildByFieldName("body"); b != nil {
		return b
	}
	return ChildOfKind(n, "block", "statement_block", "compound_statement")
}

// IsEmptyBody reports whether a handler body does nothing: no statements,
// or for Python only pass and ellipsis.
func IsEmptyBody(l lang.Language, body *sitter.Node, src []byte) bool {
	if body == nil {
		return true
	}
	t := TableFor(l)
	for _, s := range t.Statements(body) {
		if l == lang.Python {
			if s.Type() == "pass_statement" {
				continue
			}
			if s.Type() == "expression_statement" && strings.TrimSpace(Text(s, src)) == "..." {
				continue
			}
		}
		return false
	}
	return true
}

// PromiseCatchHandler returns the inline handler of a `.catch(handler)`
// call, or nil when n is not such a call.
func PromiseCatchHandler(n *sitter.Node, src []byte) *sitter.Node {
	if n.Type() != "call_expression" {
		return nil
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" || FieldText(fn, "property", src) != "catch" {
		return nil
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	h := args.NamedChild(0)
	switch h.Type() {
	case "arrow_function", "function_expression", "function":
		return h
	}
	return nil
}

// IsEmptyHandler reports an inline function whose block body is empty.
func IsEmptyHandler(l lang.Language, fn *sitter.Node, src []byte) bool {
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return false
	}
	return IsEmptyBody(l, body, src)
}

// IsUnwrapCall reports Rust `.unwrap()` and `.expect(...)` calls and returns
// the method name.
func IsUnwrapCall(n *sitter.Node, src []byte) (string, bool) {
	if n.Type() != "call_expression" {
		return "", false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "field_expression" {
		return "", false
	}
	switch field := FieldText(fn, "field", src); field {
	case "unwrap", "expect":
		return field, true
	}
	return "", false
}

// IsDiscard reports a fallible result thrown away: Go `_ = f()` or
// `_, _ = f()`, Rust `let _ = f();`.
func IsDiscard(l lang.Language, n *sitter.Node, src []byte) bool {
	switch l {
	case lang.Go:
		if n.Type() != "assignment_statement" {
			return false
		}
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		if left == nil || right == nil {
			return false
		}
		for _, c := range NamedChildren(left) {
			if Text(c, src) != "_" {
				return false
			}
		}
		first := right
		if right.Type() == "expression_list" && right.NamedChildCount() > 0 {
			first = right.NamedChild(0)
		}
		return first.Type() == "call_expression"
	case lang.Rust:
		if n.Type() != "let_declaration" {
			return false
		}
		if strings.TrimSpace(FieldText(n, "pattern", src)) != "_" {
			return false
		}
		value := n.ChildByFieldName("value")
		if value == nil {
			return false
		}
		switch value.Type() {
		case "call_expression", "await_expression", "try_expression", "macro_invocation":
			return true
		}
	}
	return false
}

// IsErrorCheck reports an explicit error check: Go `if err != nil`, Rust
// `?` and matches on Err.
func IsErrorCheck(l lang.Language, n *sitter.Node, src []byte) bool {
	switch l {
	case lang.Go:
		if n.Type() != "if_statement" {
			return false
		}
		cond := Collapse(FieldText(n, "condition", src))
		return strings.Contains(cond, "!= nil") && strings.Contains(strings.ToLower(cond), "err")
	case lang.Rust:
		switch n.Type() {
		case "try_expression":
			return true
		case "match_expression", "if_let_expression":
			return strings.Contains(Text(n, src), "Err(")
		}
	}
	return false
}

// IsLiteral reports constant values, including strings without
// interpolation and negated numbers.
func (t *Table) IsLiteral(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	n = Unparen(n)
	kind := n.Type()
	if Literals.Has(kind) {
		return true
	}
	if t.Strings.Has(kind) {
		return !HasInterpolation(n)
	}
	if kind == "unary_expression" || kind == "unary_operator" || kind == "negative_literal" {
		return n.NamedChildCount() == 1 && Literals.Has(n.NamedChild(0).Type())
	}
	return false
}

// IsConstantReturn reports a statement that only returns a literal:
// `return 1`, or a trailing literal in Rust and Ruby bodies.
func IsConstantReturn(l lang.Language, stmt *sitter.Node, src []byte) bool {
	t := TableFor(l)
	if stmt.Type() == "expression_statement" && l == lang.Rust {
		stmt = t.FirstNamed(stmt)
		if stmt == nil {
			return false
		}
	}
	if t.Returns.Has(stmt.Type()) {
		value := t.FirstNamed(stmt)
		if value != nil && value.Type() == "expression_list" {
			if value.NamedChildCount() != 1 {
				return false
			}
			value = value.NamedChild(0)
		}
		if value != nil && value.Type() == "argument_list" && value.NamedChildCount() == 1 {
			value = value.NamedChild(0)
		}
		return t.IsLiteral(value)
	}
	if l == lang.Rust || l == lang.Ruby {
		return t.IsLiteral(stmt)
	}
	return false
}

// ReturnsValue reports a return statement carrying a value.
func (t *Table) ReturnsValue(stmt *sitter.Node) bool {
	return t.Returns.Has(stmt.Type()) && t.FirstNamed(stmt) != nil
}
