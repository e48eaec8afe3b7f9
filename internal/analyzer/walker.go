package analyzer

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

// Rule thresholds.
const (
	maxNesting    = 6
	maxParams     = 5
	maxStatements = 50
	maxBooleanOps = 3
	maxLineLength = 120
)

// TopLevelName names the pseudo function holding module-level code.
const TopLevelName = "<top-level>"

// Clause kinds that sit inside a block but are not statements of it.
var clauseKinds = map[string]bool{
	"rescue":  true,
	"else":    true,
	"ensure":  true,
	"elsif":   true,
	"when":    true,
	"ERROR":   true,
	"comment": true,
}

type frame struct {
	node *sitter.Node
	body *sitter.Node
	fn   Function

	direct     int
	lastDirect *sitter.Node
}

type chain struct {
	root *sitter.Node
	ops  int
}

type span struct{ start, end int }

type walker struct {
	l      lang.Language
	t      *syntax.Table
	src    []byte
	lines  *syntax.LineIndex
	opts   Options
	testCx bool

	issues   []quality.Issue
	frames   []*frame
	done     []Function
	chains   []*chain
	comments []span
	breakage *Breakage

	nesting    int
	maxNesting int
	cyclomatic int
	cognitive  int
	funcCount  int
}

func newWalker(l lang.Language, src []byte, opts Options) *walker {
	return &walker{
		l:      l,
		t:      syntax.TableFor(l),
		src:    src,
		lines:  syntax.NewLineIndex(src),
		opts:   opts,
		testCx: opts.Policy.IsTestContext(opts.Path),
	}
}

func (w *walker) run(root *sitter.Node) {
	w.frames = []*frame{{fn: Function{Name: TopLevelName, Qualified: TopLevelName}}}
	w.walk(root)
}

func (w *walker) current() *frame {
	return w.frames[len(w.frames)-1]
}

func (w *walker) emit(rule string, sev quality.Severity, n *sitter.Node, format string, args ...any) {
	line, col := w.lines.NodePosition(n)
	w.issues = append(w.issues, quality.NewIssue(rule, sev, fmt.Sprintf(format, args...), line, col))
}

// walk visits every node exactly once.
func (w *walker) walk(n *sitter.Node) {
	kind := n.Type()
	if n.IsMissing() || kind == "ERROR" {
		w.recordBreakage(n)
	}
	if !n.IsNamed() {
		return
	}
	if w.t.Comments.Has(kind) {
		w.comments = append(w.comments, span{int(n.StartByte()), int(n.EndByte())})
		return
	}

	exit := w.enter(n, kind)

	isBlock := w.t.Blocks.Has(kind)
	terminated, reported := false, false
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if isBlock && w.isStatement(c) {
			w.statement(n, c)
			switch {
			case terminated && !reported:
				w.emit(quality.RuleUnreachable, "", c, "unreachable code after %s", terminatorWord(w.l))
				w.current().fn.Unreachable++
				reported = true
			case !terminated && syntax.IsTerminator(w.l, c, w.src):
				terminated = true
			}
		}
		w.walk(c)
	}

	exit()
}

func (w *walker) isStatement(c *sitter.Node) bool {
	if !c.IsNamed() || c.IsMissing() {
		return false
	}
	kind := c.Type()
	return !w.t.Comments.Has(kind) && !clauseKinds[kind]
}

// statement counts a block child against the enclosing function.
func (w *walker) statement(block, c *sitter.Node) {
	if w.t.Blocks.Has(c.Type()) {
		return
	}
	f := w.current()
	f.fn.Statements++
	if f.body == nil {
		return
	}
	if syntax.Same(f.body, block) || (block.Type() == "statement_list" && syntax.Same(f.body, block.Parent())) {
		f.direct++
		f.lastDirect = c
	}
}

func terminatorWord(l lang.Language) string {
	switch l {
	case lang.Python, lang.Ruby:
		return "return/raise/break"
	case lang.Rust:
		return "return/break/panic"
	case lang.Go:
		return "return/break/panic"
	default:
		return "return/throw/break"
	}
}

func (w *walker) recordBreakage(n *sitter.Node) {
	if w.breakage != nil {
		return
	}
	line, col := w.lines.NodePosition(n)
	w.breakage = &Breakage{Line: line, Column: col, Missing: n.IsMissing(), Kind: n.Type()}
}

// enter applies every node handler and returns the matching exit.
func (w *walker) enter(n *sitter.Node, kind string) func() {
	var pushedFrame, nested bool
	var pushedChain *chain

	if w.t.Functions.Has(kind) {
		w.pushFrame(n)
		pushedFrame = true
	}

	if w.t.Decisions.Has(kind) {
		w.cyclomatic++
		w.cognitive += 1 + w.nesting
		w.current().fn.ControlFlow++
	}

	if w.t.Nesting.Has(kind) && !syntax.IsElseIf(n) {
		w.nesting++
		nested = true
		if w.nesting > w.maxNesting {
			w.maxNesting = w.nesting
		}
		if w.nesting == maxNesting+1 {
			w.emit(quality.RuleDeepNesting, "", n, "nesting depth %d exceeds %d", w.nesting, maxNesting)
		}
	}

	if ops := syntax.BooleanOperators(n); ops > 0 {
		w.cyclomatic += ops
		if isChainRoot(n) {
			pushedChain = &chain{root: n, ops: ops}
			w.chains = append(w.chains, pushedChain)
			w.cognitive++
		} else if len(w.chains) > 0 {
			w.chains[len(w.chains)-1].ops += ops
		}
	}

	if w.t.Returns.Has(kind) && w.t.ReturnsValue(n) {
		w.current().fn.ReturnsValue = true
	}
	if w.t.Assignments.Has(kind) {
		w.checkCredentials(n)
	}
	if w.t.Strings.Has(kind) {
		w.checkSQL(n)
	}
	w.checkErrorHandling(n, kind)

	return func() {
		if pushedChain != nil {
			w.chains = w.chains[:len(w.chains)-1]
			if pushedChain.ops > maxBooleanOps {
				w.emit(quality.RuleComplexCondition, "", pushedChain.root,
					"condition has %d boolean operators (max %d)", pushedChain.ops, maxBooleanOps)
			}
		}
		if nested {
			w.nesting--
		}
		if pushedFrame {
			w.popFrame()
		}
	}
}

// isChainRoot reports a boolean expression whose parent, looking through
// parentheses, is not itself boolean.
func isChainRoot(n *sitter.Node) bool {
	p := n.Parent()
	for p != nil && p.Type() == "parenthesized_expression" {
		p = p.Parent()
	}
	return p == nil || syntax.BooleanOperators(p) == 0
}

func (w *walker) pushFrame(n *sitter.Node) {
	w.funcCount++
	w.cyclomatic++

	name := syntax.FunctionName(w.l, n, w.src)
	qualified := syntax.QualifiedName(w.l, n, w.src)
	line, _ := w.lines.NodePosition(n)
	params := syntax.CountParams(w.l, syntax.ParamList(w.l, n), w.src)

	f := &frame{
		node: n,
		body: syntax.Body(n),
		fn: Function{
			Name:       name,
			Qualified:  qualified,
			Line:       line,
			Params:     params,
			ReturnType: syntax.ReturnAnnotation(w.l, n, w.src),
			Visibility: syntax.Visibility(w.l, n, name, w.src),
			TopLevel:   len(w.frames) == 1,
		},
	}

	// Expression-bodied lambdas return their expression.
	if f.body != nil && !w.t.Blocks.Has(f.body.Type()) && f.body.Type() != "body_statement" {
		f.fn.ReturnsValue = true
		f.fn.ConstantReturn = w.t.IsLiteral(f.body)
	}

	if params > maxParams {
		w.emit(quality.RuleTooManyParams, "", n, "%s has %d parameters (max %d)", displayName(name), params, maxParams)
	}
	w.frames = append(w.frames, f)
}

func (w *walker) popFrame() {
	f := w.current()
	w.frames = w.frames[:len(w.frames)-1]

	if f.direct == 1 && f.lastDirect != nil && syntax.IsConstantReturn(w.l, f.lastDirect, w.src) {
		f.fn.ConstantReturn = true
	}
	if f.fn.Statements > maxStatements {
		w.emit(quality.RuleLongMethod, "", f.node, "%s has %d statements (max %d)", displayName(f.fn.Name), f.fn.Statements, maxStatements)
	}
	if !f.fn.TopLevel {
		// Nested closures count toward their top-level owner.
		p := &w.current().fn
		p.EmptyCatches += f.fn.EmptyCatches
		p.NonEmptyCatches += f.fn.NonEmptyCatches
		p.Discards += f.fn.Discards
		p.Unwraps += f.fn.Unwraps
		p.ErrorChecks += f.fn.ErrorChecks
		p.Unreachable += f.fn.Unreachable
	}
	w.done = append(w.done, f.fn)
}

func displayName(name string) string {
	if name == "" {
		return "anonymous function"
	}
	return "function '" + name + "'"
}

// functions returns the top-level pseudo function followed by the finished
// frames in source order, with overload indexes assigned.
func (w *walker) functions() []Function {
	done := append([]Function(nil), w.done...)
	sort.SliceStable(done, func(i, j int) bool { return done[i].Line < done[j].Line })
	top := w.frames[0].fn
	top.Line = 1
	top.TopLevel = true
	out := append([]Function{top}, done...)
	seen := make(map[string]int)
	for i := range out {
		if out[i].Qualified == "" {
			continue
		}
		out[i].Overload = seen[out[i].Qualified]
		seen[out[i].Qualified]++
	}
	return out
}
