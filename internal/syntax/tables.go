// Package syntax is the uniform view of tree-sitter trees shared by the
// analyzer and the contract differ: per-language node-kind tables, cursor
// helpers, parameter counting, function naming and terminator recognition.
package syntax

import (
	"sync"

	"hookguard/internal/lang"
)

// KindSet is a set of node kinds.
type KindSet map[string]struct{}

func kinds(list ...string) KindSet {
	s := make(KindSet, len(list))
	for _, k := range list {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s KindSet) Has(kind string) bool {
	_, ok := s[kind]
	return ok
}

// Table lists the node kinds the walker reacts to for one language.
type Table struct {
	// Functions push a function frame
	Functions KindSet

	// Containers qualify the names of functions declared inside them
	Containers KindSet

	// Blocks hold statement lists; their direct children are statements
	Blocks KindSet

	// Nesting increase the control-flow nesting counter
	Nesting KindSet

	// Decisions add one to cyclomatic complexity
	Decisions KindSet

	// Terminators end control flow in their block
	Terminators KindSet

	// Returns are return statements or expressions
	Returns KindSet

	// Assignments are assignment and declarator contexts
	Assignments KindSet

	// Strings are string literal kinds
	Strings KindSet

	// Catches are catch, except and rescue clauses
	Catches KindSet

	// Comments are comment kinds
	Comments KindSet
}

var commonLiterals = []string{
	"integer", "float", "number", "int_literal", "float_literal", "integer_literal",
	"decimal_integer_literal", "decimal_floating_point_literal", "hex_integer_literal",
	"number_literal", "real_literal", "boolean_literal", "boolean", "true", "false",
	"none", "null", "null_literal", "nil", "undefined", "char_literal", "character_literal",
}

// Literals are the constant-value kinds recognized across grammars.
var Literals = kinds(commonLiterals...)

var (
	tablesOnce sync.Once
	tables     map[lang.Language]*Table
)

// TableFor returns the table for l. Configuration dialects get an empty
// table with only comments.
func TableFor(l lang.Language) *Table {
	tablesOnce.Do(buildTables)
	if t, ok := tables[l]; ok {
		return t
	}
	return tables[""]
}

func buildTables() {
	tables = map[lang.Language]*Table{
		"":        {Comments: kinds("comment")},
		lang.JSON: {Comments: kinds("comment")},
		lang.YAML: {Comments: kinds("comment")},
		lang.TOML: {Comments: kinds("comment")},
	}

	tables[lang.Python] = &Table{
		Functions:   kinds("function_definition", "lambda"),
		Containers:  kinds("class_definition"),
		Blocks:      kinds("block", "module"),
		Nesting:     kinds("if_statement", "for_statement", "while_statement", "try_statement", "with_statement", "match_statement"),
		Decisions:   kinds("if_statement", "elif_clause", "for_statement", "while_statement", "except_clause", "conditional_expression", "case_clause", "list_comprehension", "dictionary_comprehension", "set_comprehension", "generator_expression"),
		Terminators: kinds("return_statement", "raise_statement", "break_statement", "continue_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("assignment", "augmented_assignment"),
		Strings:     kinds("string", "concatenated_string"),
		Catches:     kinds("except_clause"),
		Comments:    kinds("comment"),
	}

	js := &Table{
		Functions:   kinds("function_declaration", "function_expression", "function", "arrow_function", "method_definition", "generator_function_declaration", "generator_function"),
		Containers:  kinds("class_declaration", "class", "abstract_class_declaration"),
		Blocks:      kinds("statement_block", "program", "switch_case", "switch_default"),
		Nesting:     kinds("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement"),
		Decisions:   kinds("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_case", "catch_clause", "ternary_expression"),
		Terminators: kinds("return_statement", "throw_statement", "break_statement", "continue_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("variable_declarator", "assignment_expression", "public_field_definition", "field_definition"),
		Strings:     kinds("string", "template_string"),
		Catches:     kinds("catch_clause"),
		Comments:    kinds("comment"),
	}
	tables[lang.JavaScript] = js
	tables[lang.TypeScript] = js

	tables[lang.Java] = &Table{
		Functions:   kinds("method_declaration", "constructor_declaration", "compact_constructor_declaration", "lambda_expression"),
		Containers:  kinds("class_declaration", "interface_declaration", "enum_declaration", "record_declaration"),
		Blocks:      kinds("block", "constructor_body", "switch_block_statement_group", "program"),
		Nesting:     kinds("if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_expression", "switch_statement", "try_statement", "try_with_resources_statement"),
		Decisions:   kinds("if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_block_statement_group", "switch_rule", "catch_clause", "ternary_expression"),
		Terminators: kinds("return_statement", "throw_statement", "break_statement", "continue_statement", "yield_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("variable_declarator", "assignment_expression"),
		Strings:     kinds("string_literal", "text_block"),
		Catches:     kinds("catch_clause"),
		Comments:    kinds("line_comment", "block_comment", "comment"),
	}

	tables[lang.CSharp] = &Table{
		Functions:   kinds("method_declaration", "constructor_declaration", "destructor_declaration", "operator_declaration", "local_function_statement", "lambda_expression", "anonymous_method_expression"),
		Containers:  kinds("class_declaration", "struct_declaration", "interface_declaration", "record_declaration"),
		Blocks:      kinds("block", "switch_section", "compilation_unit"),
		Nesting:     kinds("if_statement", "for_statement", "foreach_statement", "for_each_statement", "while_statement", "do_statement", "switch_statement", "try_statement"),
		Decisions:   kinds("if_statement", "for_statement", "foreach_statement", "for_each_statement", "while_statement", "do_statement", "switch_section", "switch_expression_arm", "catch_clause", "conditional_expression"),
		Terminators: kinds("return_statement", "throw_statement", "break_statement", "continue_statement", "goto_statement", "yield_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("variable_declarator", "assignment_expression"),
		Strings:     kinds("string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression"),
		Catches:     kinds("catch_clause"),
		Comments:    kinds("comment"),
	}

	tables[lang.Go] = &Table{
		Functions:   kinds("function_declaration", "method_declaration", "func_literal"),
		Containers:  kinds(),
		Blocks:      kinds("block", "statement_list", "expression_case", "default_case", "communication_case", "type_case"),
		Nesting:     kinds("if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement"),
		Decisions:   kinds("if_statement", "for_statement", "expression_case", "type_case", "communication_case"),
		Terminators: kinds("return_statement", "break_statement", "continue_statement", "goto_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("short_var_declaration", "assignment_statement", "var_spec", "const_spec"),
		Strings:     kinds("interpreted_string_literal", "raw_string_literal"),
		Catches:     kinds(),
		Comments:    kinds("comment"),
	}

	c := &Table{
		Functions:   kinds("function_definition"),
		Containers:  kinds(),
		Blocks:      kinds("compound_statement", "translation_unit", "case_statement"),
		Nesting:     kinds("if_statement", "for_statement", "while_statement", "do_statement", "switch_statement"),
		Decisions:   kinds("if_statement", "for_statement", "while_statement", "do_statement", "case_statement", "conditional_expression"),
		Terminators: kinds("return_statement", "break_statement", "continue_statement", "goto_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("init_declarator", "assignment_expression"),
		Strings:     kinds("string_literal", "concatenated_string"),
		Catches:     kinds(),
		Comments:    kinds("comment"),
	}
	tables[lang.C] = c

	tables[lang.Cpp] = &Table{
		Functions:   kinds("function_definition", "lambda_expression"),
		Containers:  kinds("class_specifier", "struct_specifier"),
		Blocks:      c.Blocks,
		Nesting:     kinds("if_statement", "for_statement", "for_range_loop", "while_statement", "do_statement", "switch_statement", "try_statement"),
		Decisions:   kinds("if_statement", "for_statement", "for_range_loop", "while_statement", "do_statement", "case_statement", "catch_clause", "conditional_expression"),
		Terminators: kinds("return_statement", "break_statement", "continue_statement", "goto_statement", "throw_statement"),
		Returns:     kinds("return_statement"),
		Assignments: c.Assignments,
		Strings:     kinds("string_literal", "raw_string_literal", "concatenated_string"),
		Catches:     kinds("catch_clause"),
		Comments:    kinds("comment"),
	}

	tables[lang.PHP] = &Table{
		Functions:   kinds("function_definition", "method_declaration", "anonymous_function", "anonymous_function_creation_expression", "arrow_function"),
		Containers:  kinds("class_declaration", "interface_declaration", "trait_declaration"),
		Blocks:      kinds("compound_statement", "program", "case_statement", "default_statement"),
		Nesting:     kinds("if_statement", "for_statement", "foreach_statement", "while_statement", "do_statement", "switch_statement", "try_statement"),
		Decisions:   kinds("if_statement", "else_if_clause", "for_statement", "foreach_statement", "while_statement", "do_statement", "case_statement", "catch_clause", "conditional_expression"),
		Terminators: kinds("return_statement", "break_statement", "continue_statement", "throw_statement"),
		Returns:     kinds("return_statement"),
		Assignments: kinds("assignment_expression"),
		Strings:     kinds("string", "encapsed_string"),
		Catches:     kinds("catch_clause"),
		Comments:    kinds("comment"),
	}

	tables[lang.Ruby] = &Table{
		Functions:   kinds("method", "singleton_method", "lambda"),
		Containers:  kinds("class", "module"),
		Blocks:      kinds("program", "body_statement", "then", "else", "do", "begin", "ensure", "block_body"),
		Nesting:     kinds("if", "unless", "while", "until", "for", "case", "begin"),
		Decisions:   kinds("if", "elsif", "unless", "while", "until", "for", "when", "rescue", "conditional", "if_modifier", "unless_modifier", "while_modifier", "until_modifier"),
		Terminators: kinds("return", "break", "next", "redo", "retry"),
		Returns:     kinds("return"),
		Assignments: kinds("assignment"),
		Strings:     kinds("string"),
		Catches:     kinds("rescue"),
		Comments:    kinds("comment"),
	}

	tables[lang.Rust] = &Table{
		Functions:   kinds("function_item", "closure_expression"),
		Containers:  kinds("impl_item", "trait_item"),
		Blocks:      kinds("block", "source_file"),
		Nesting:     kinds("if_expression", "match_expression", "while_expression", "loop_expression", "for_expression"),
		Decisions:   kinds("if_expression", "match_arm", "while_expression", "loop_expression", "for_expression"),
		Terminators: kinds("return_expression", "break_expression", "continue_expression"),
		Returns:     kinds("return_expression"),
		Assignments: kinds("let_declaration", "assignment_expression", "const_item", "static_item"),
		Strings:     kinds("string_literal", "raw_string_literal"),
		Catches:     kinds(),
		Comments:    kinds("line_comment", "block_comment"),
	}
}
