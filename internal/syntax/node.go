package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the source text of n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(src) || start > end {
		return ""
	}
	return string(src[start:end])
}

// FieldText returns the text of the named field, or "".
func FieldText(n *sitter.Node, field string, src []byte) string {
	if n == nil {
		return ""
	}
	return Text(n.ChildByFieldName(field), src)
}

// Same reports whether a and b denote the same node.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// NamedChildren returns the named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FirstNamed returns the first named child of n that is not a comment.
func (t *Table) FirstNamed(n *sitter.Node) *sitter.Node {
	for _, c := range NamedChildren(n) {
		if !t.Comments.Has(c.Type()) {
			return c
		}
	}
	return nil
}

// Statements returns the named, non-comment children of a block node.
// A nested statement_list is flattened.
func (t *Table) Statements(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range NamedChildren(block) {
		switch {
		case t.Comments.Has(c.Type()):
		case c.Type() == "statement_list":
			out = append(out, t.Statements(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

// HasKind reports whether n has a direct child, named or not, of kind.
func HasKind(n *sitter.Node, kind string) bool {
	if n == nil {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == kind {
			return true
		}
	}
	return false
}

// ChildOfKind returns the first direct child of kind.
func ChildOfKind(n *sitter.Node, kind ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		for _, k := range kind {
			if c.Type() == k {
				return c
			}
		}
	}
	return nil
}

// Unparen strips parenthesized_expression wrappers.
func Unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}

// Contains reports whether outer's byte range encloses inner.
func Contains(outer, inner *sitter.Node) bool {
	if outer == nil || inner == nil {
		return false
	}
	return outer.StartByte() <= inner.StartByte() && inner.EndByte() <= outer.EndByte()
}

// Collapse squeezes runs of whitespace to single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BooleanOperators counts the && / || / and / or / ?? tokens that are direct
// children of n.
func BooleanOperators(n *sitter.Node) int {
	switch n.Type() {
	case "binary_expression", "boolean_operator", "binary":
	default:
		return 0
	}
	count := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || c.IsNamed() {
			continue
		}
		switch c.Type() {
		case "&&", "||", "and", "or", "??":
			count++
		}
	}
	return count
}

// IsElseIf reports whether a conditional node is the alternative branch of
// an enclosing conditional, which does not add nesting.
func IsElseIf(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "else_clause", "else":
		return true
	}
	return Same(parent.ChildByFieldName("alternative"), n)
}
