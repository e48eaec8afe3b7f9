package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
)

var interpolationKinds = kinds(
	"interpolation",
	"template_substitution",
	"variable_name",
	"dynamic_variable_name",
	"member_access_expression",
	"subscript_expression",
)

// HasInterpolation reports a string literal that embeds expressions.
func HasInterpolation(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "interpolated_string_expression" {
		return true
	}
	for _, c := range NamedChildren(n) {
		if interpolationKinds.Has(c.Type()) {
			return true
		}
		// concatenated strings hold string children
		if c.NamedChildCount() > 0 && (c.Type() == "string" || c.Type() == "string_literal") && HasInterpolation(c) {
			return true
		}
	}
	return false
}

// StringContent strips prefixes and delimiters from a string literal.
func StringContent(n *sitter.Node, src []byte) string {
	s := strings.TrimSpace(Text(n, src))
	s = strings.TrimLeft(s, "@$rRbBuUfFL8")
	s = strings.TrimLeft(s, "#")
	s = strings.TrimRight(s, "#")
	s = strings.Trim(s, "\"'`")
	return s
}

// IsStringLiteral reports a plain, non-empty string literal.
func (t *Table) IsStringLiteral(n *sitter.Node, src []byte) bool {
	n = Unparen(n)
	if n == nil || !t.Strings.Has(n.Type()) || HasInterpolation(n) {
		return false
	}
	return StringContent(n, src) != ""
}

// AssignmentSides returns the target and value of an assignment or
// declarator node. Either may be nil.
func AssignmentSides(l lang.Language, n *sitter.Node) (lhs, rhs *sitter.Node) {
	switch n.Type() {
	case "variable_declarator":
		lhs = n.ChildByFieldName("name")
		rhs = n.ChildByFieldName("value")
		if l == lang.CSharp {
			if lhs == nil && n.NamedChildCount() > 0 {
				lhs = n.NamedChild(0)
			}
			if rhs == nil {
				children := NamedChildren(n)
				if len(children) > 1 {
					rhs = children[len(children)-1]
				}
			}
			if rhs != nil && rhs.Type() == "equals_value_clause" && rhs.NamedChildCount() > 0 {
				rhs = rhs.NamedChild(0)
			}
		}
	case "public_field_definition":
		lhs = n.ChildByFieldName("name")
		rhs = n.ChildByFieldName("value")
	case "field_definition":
		lhs = n.ChildByFieldName("property")
		rhs = n.ChildByFieldName("value")
	case "init_declarator":
		lhs = n.ChildByFieldName("declarator")
		rhs = n.ChildByFieldName("value")
	case "let_declaration":
		lhs = n.ChildByFieldName("pattern")
		rhs = n.ChildByFieldName("value")
	case "const_item", "static_item", "var_spec", "const_spec":
		lhs = n.ChildByFieldName("name")
		rhs = n.ChildByFieldName("value")
	default:
		lhs = n.ChildByFieldName("left")
		rhs = n.ChildByFieldName("right")
	}
	if lhs != nil && lhs.Type() == "expression_list" && lhs.NamedChildCount() > 0 {
		lhs = lhs.NamedChild(0)
	}
	if rhs != nil && rhs.Type() == "expression_list" && rhs.NamedChildCount() > 0 {
		rhs = rhs.NamedChild(0)
	}
	return lhs, rhs
}
