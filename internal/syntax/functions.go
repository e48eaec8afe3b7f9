package syntax

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
)

// Visibility levels, ordered so that a lower value is less visible.
const (
	VisPrivate   = 0
	VisInternal  = 1
	VisProtected = 2
	VisPublic    = 3
)

// VisibilityName renders a level for messages.
func VisibilityName(level int) string {
	switch level {
	case VisPrivate:
		return "private"
	case VisInternal:
		return "internal"
	case VisProtected:
		return "protected"
	default:
		return "public"
	}
}

// Body returns the body node of a function, or nil.
func Body(fn *sitter.Node) *sitter.Node {
	if b := fn.ChildByFieldName("body"); b != nil {
		return b
	}
	return ChildOfKind(fn, "body_statement", "block", "statement_block", "compound_statement")
}

// ParamList returns the parameter list node of a function, or nil when the
// function declares none. For a bare arrow-function parameter the
// identifier itself is returned.
func ParamList(l lang.Language, fn *sitter.Node) *sitter.Node {
	switch l {
	case lang.C, lang.Cpp:
		d := fn.ChildByFieldName("declarator")
		for d != nil {
			switch d.Type() {
			case "function_declarator", "abstract_function_declarator":
				return d.ChildByFieldName("parameters")
			}
			next := d.ChildByFieldName("declarator")
			if next == nil && d.NamedChildCount() > 0 {
				next = d.NamedChild(int(d.NamedChildCount()) - 1)
			}
			d = next
		}
		return nil
	}
	if p := fn.ChildByFieldName("parameters"); p != nil {
		return p
	}
	if p := fn.ChildByFieldName("parameter"); p != nil {
		return p
	}
	return ChildOfKind(fn, "parameters", "formal_parameters", "parameter_list", "method_parameters", "lambda_parameters", "closure_parameters")
}

// CountParams counts semantic parameters: this/self/receiver parameters are
// excluded; rest, default, optional and destructured parameters count one.
func CountParams(l lang.Language, list *sitter.Node, src []byte) int {
	if list == nil {
		return 0
	}
	if list.Type() == "identifier" {
		return 1
	}
	t := TableFor(l)
	count := 0
	for i, p := range NamedChildren(list) {
		kind := p.Type()
		if t.Comments.Has(kind) {
			continue
		}
		text := strings.TrimSpace(Text(p, src))
		switch l {
		case lang.Python:
			if kind == "positional_separator" || kind == "keyword_separator" {
				continue
			}
			if i == 0 && (text == "self" || text == "cls") {
				continue
			}
		case lang.JavaScript, lang.TypeScript:
			if startsWithWord(text, "this") {
				continue
			}
		case lang.Java:
			if kind == "receiver_parameter" {
				continue
			}
		case lang.CSharp:
			if strings.HasPrefix(text, "this ") {
				continue
			}
		case lang.Go:
			if kind == "parameter_declaration" {
				names := 0
				for _, c := range NamedChildren(p) {
					if c.Type() == "identifier" {
						names++
					}
				}
				if names > 1 {
					count += names
					continue
				}
			}
		case lang.C, lang.Cpp:
			if text == "void" {
				continue
			}
		case lang.Rust:
			if kind == "self_parameter" || kind == "attribute_item" {
				continue
			}
		}
		count++
	}
	return count
}

func startsWithWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[len(word):])
	return !isIdentRune(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var identRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// TrailingIdent returns the last identifier-like token of s.
func TrailingIdent(s string) string {
	all := identRe.FindAllString(s, -1)
	for i := len(all) - 1; i >= 0; i-- {
		switch all[i] {
		case "mut", "ref", "const", "let", "var":
			continue
		}
		return all[i]
	}
	return ""
}

// FunctionName returns the declared name of a function, the name it is
// bound to for anonymous functions, or "".
func FunctionName(l lang.Language, fn *sitter.Node, src []byte) string {
	switch l {
	case lang.C, lang.Cpp:
		if fn.Type() == "function_definition" {
			d := fn.ChildByFieldName("declarator")
			for d != nil && d.Type() != "function_declarator" {
				next := d.ChildByFieldName("declarator")
				if next == nil && d.NamedChildCount() > 0 {
					next = d.NamedChild(int(d.NamedChildCount()) - 1)
				}
				d = next
			}
			if d != nil {
				return strings.ReplaceAll(FieldText(d, "declarator", src), "::", ".")
			}
			return ""
		}
	}
	if name := FieldText(fn, "name", src); name != "" {
		return name
	}
	return boundName(fn, src)
}

func boundName(fn *sitter.Node, src []byte) string {
	parent := fn.Parent()
	if parent == nil {
		return ""
	}
	var raw string
	switch parent.Type() {
	case "variable_declarator":
		raw = FieldText(parent, "name", src)
		if raw == "" && parent.NamedChildCount() > 0 {
			raw = Text(parent.NamedChild(0), src)
		}
	case "assignment_expression", "assignment":
		raw = FieldText(parent, "left", src)
	case "pair":
		raw = FieldText(parent, "key", src)
	case "public_field_definition":
		raw = FieldText(parent, "name", src)
	case "field_definition":
		raw = FieldText(parent, "property", src)
	case "let_declaration":
		raw = FieldText(parent, "pattern", src)
	case "init_declarator":
		raw = FieldText(parent, "declarator", src)
	case "equals_value_clause":
		if gp := parent.Parent(); gp != nil && gp.Type() == "variable_declarator" {
			raw = Text(gp.NamedChild(0), src)
		}
	case "expression_list":
		gp := parent.Parent()
		if gp != nil && (gp.Type() == "short_var_declaration" || gp.Type() == "assignment_statement") {
			if left := gp.ChildByFieldName("left"); left != nil && left.NamedChildCount() > 0 {
				raw = Text(left.NamedChild(0), src)
			}
		}
	}
	return TrailingIdent(raw)
}

// ContainerName returns the name a container contributes to qualification.
func ContainerName(n *sitter.Node, src []byte) string {
	var raw string
	if n.Type() == "impl_item" {
		raw = FieldText(n, "type", src)
	} else {
		raw = FieldText(n, "name", src)
	}
	if i := strings.IndexAny(raw, "<["); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// QualifiedName joins enclosing container names and the function name with
// dots. Go methods are qualified by their receiver type.
func QualifiedName(l lang.Language, fn *sitter.Node, src []byte) string {
	name := FunctionName(l, fn, src)
	if name == "" {
		return ""
	}
	if l == lang.Go && fn.Type() == "method_declaration" {
		if recv := ReceiverType(fn, src); recv != "" {
			return recv + "." + name
		}
	}
	t := TableFor(l)
	var parts []string
	for p := fn.Parent(); p != nil; p = p.Parent() {
		if t.Containers.Has(p.Type()) {
			if cn := ContainerName(p, src); cn != "" {
				parts = append(parts, cn)
			}
		}
	}
	if len(parts) == 0 {
		return name
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".") + "." + name
}

// ReceiverType returns the bare receiver type of a Go method.
func ReceiverType(fn *sitter.Node, src []byte) string {
	recv := fn.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for _, p := range NamedChildren(recv) {
		typ := FieldText(p, "type", src)
		typ = strings.TrimLeft(typ, "*")
		if i := strings.Index(typ, "["); i >= 0 {
			typ = typ[:i]
		}
		return strings.TrimSpace(typ)
	}
	return ""
}

// Visibility returns the visibility level of a function.
func Visibility(l lang.Language, fn *sitter.Node, name string, src []byte) int {
	switch l {
	case lang.Rust:
		vm := ChildOfKind(fn, "visibility_modifier")
		if vm == nil {
			return VisInternal
		}
		if strings.TrimSpace(Text(vm, src)) == "pub" {
			return VisPublic
		}
		return VisProtected

	case lang.Go:
		r, _ := utf8.DecodeRuneInString(name[strings.LastIndex(name, ".")+1:])
		if unicode.IsUpper(r) {
			return VisPublic
		}
		return VisInternal

	case lang.Python:
		base := name[strings.LastIndex(name, ".")+1:]
		switch {
		case strings.HasPrefix(base, "__") && !strings.HasSuffix(base, "__"):
			return VisPrivate
		case strings.HasPrefix(base, "_"):
			return VisInternal
		}
		return VisPublic

	case lang.Java:
		mods := Text(ChildOfKind(fn, "modifiers"), src)
		return keywordVisibility(mods, VisInternal)

	case lang.CSharp:
		var mods []string
		for i := 0; i < int(fn.ChildCount()); i++ {
			if c := fn.Child(i); c != nil && c.Type() == "modifier" {
				mods = append(mods, Text(c, src))
			}
		}
		return keywordVisibility(strings.Join(mods, " "), VisPrivate)

	case lang.PHP:
		return keywordVisibility(Text(ChildOfKind(fn, "visibility_modifier"), src), VisPublic)

	case lang.C, lang.Cpp:
		for i := 0; i < int(fn.ChildCount()); i++ {
			if c := fn.Child(i); c != nil && c.Type() == "storage_class_specifier" && Text(c, src) == "static" {
				return VisInternal
			}
		}
		return VisPublic

	case lang.JavaScript, lang.TypeScript:
		if fn.Type() == "method_definition" {
			if strings.HasPrefix(FieldText(fn, "name", src), "#") {
				return VisPrivate
			}
			if am := ChildOfKind(fn, "accessibility_modifier"); am != nil {
				return keywordVisibility(Text(am, src), VisPublic)
			}
			return VisPublic
		}
		if isExported(fn) {
			return VisPublic
		}
		return VisInternal
	}
	return VisPublic
}

func keywordVisibility(mods string, fallback int) int {
	fields := strings.Fields(mods)
	has := func(w string) bool {
		for _, f := range fields {
			if f == w {
				return true
			}
		}
		return false
	}
	switch {
	case has("public"):
		return VisPublic
	case has("protected"), has("internal"):
		return VisProtected
	case has("private"):
		return VisPrivate
	}
	return fallback
}

// isExported walks up through declarators to an export statement.
func isExported(fn *sitter.Node) bool {
	n := fn
	for i := 0; i < 4 && n != nil; i++ {
		p := n.Parent()
		if p == nil {
			return false
		}
		switch p.Type() {
		case "export_statement":
			return true
		case "variable_declarator", "lexical_declaration", "variable_declaration":
			n = p
		default:
			return false
		}
	}
	return false
}

// ReturnAnnotation returns the declared return type of a function with
// whitespace collapsed, or "".
func ReturnAnnotation(l lang.Language, fn *sitter.Node, src []byte) string {
	var raw string
	switch l {
	case lang.Go:
		raw = FieldText(fn, "result", src)
	case lang.Java, lang.C, lang.Cpp:
		raw = FieldText(fn, "type", src)
	case lang.CSharp:
		raw = FieldText(fn, "returns", src)
		if raw == "" {
			raw = FieldText(fn, "type", src)
		}
	case lang.Ruby:
		return ""
	default:
		raw = FieldText(fn, "return_type", src)
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "->")
	raw = strings.TrimPrefix(raw, ":")
	return Collapse(raw)
}
