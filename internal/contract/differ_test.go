package contract

import (
	"context"
	"testing"

	"hookguard/internal/analyzer"
	"hookguard/internal/lang"
	"hookguard/internal/quality"
	"hookguard/internal/syntax"
)

func compare(t *testing.T, l lang.Language, before, after string) *Result {
	t.Helper()
	d := NewDiffer(analyzer.New(nil), nil)
	res, err := d.Compare(context.Background(), []byte(before), []byte(after), l, analyzer.Options{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return res
}

func onlyDelta(t *testing.T, res *Result) Delta {
	t.Helper()
	if len(res.Deltas) != 1 {
		t.Fatalf("got %d deltas, want 1: %+v", len(res.Deltas), res.Deltas)
	}
	return res.Deltas[0]
}

func TestCompare_PromiseCatchEmptied(t *testing.T) {
	res := compare(t, lang.JavaScript,
		"fetch(u).catch(e => console.error(e));\n",
		"fetch(u).catch(() => {});\n")

	d := onlyDelta(t, res)
	if d.Change != CatchEmptied {
		t.Errorf("Change = %s, want %s", d.Change, CatchEmptied)
	}
	if d.Severity != quality.Critical {
		t.Errorf("Severity = %s, want Critical", d.Severity)
	}
	if d.FunctionID != analyzer.TopLevelName {
		t.Errorf("FunctionID = %q", d.FunctionID)
	}
}

func TestCompare_TryCatchEmptied(t *testing.T) {
	res := compare(t, lang.Java,
		`class A {
  public void run() {
    try { work(); } catch (Exception e) { log(e); }
  }
}
`,
		`class A {
  public void run() {
    try { work(); } catch (Exception e) { }
  }
}
`)
	d := onlyDelta(t, res)
	if d.Change != CatchEmptied || d.FunctionID != "A.run" {
		t.Errorf("got %s on %s", d.Change, d.FunctionID)
	}
}

func TestCompare_ParamCountReduced(t *testing.T) {
	res := compare(t, lang.Python,
		"def f(a, b):\n    return a\n",
		"def f(a):\n    return a\n")

	d := onlyDelta(t, res)
	if d.Change != ParamCountReduced {
		t.Fatalf("Change = %s", d.Change)
	}
	if d.Severity != quality.Critical {
		t.Errorf("public function should be Critical, got %s", d.Severity)
	}

	res = compare(t, lang.Python,
		"def _f(a, b):\n    return a\n",
		"def _f(a):\n    return a\n")
	if d := onlyDelta(t, res); d.Severity != quality.Major {
		t.Errorf("private function should be Major, got %s", d.Severity)
	}
}

func TestCompare_VisibilityLowered(t *testing.T) {
	res := compare(t, lang.Rust,
		"pub fn f() {}\n",
		"fn f() {}\n")

	d := onlyDelta(t, res)
	if d.Change != VisibilityLowered {
		t.Fatalf("Change = %s", d.Change)
	}
	if d.OldValue != "public" {
		t.Errorf("OldValue = %q", d.OldValue)
	}
}

func TestCompare_ErrorCheckReplacedByDiscard(t *testing.T) {
	before := `package main

func f() error {
	if err := g(); err != nil {
		return err
	}
	return nil
}
`
	after := `package main

func f() error {
	_ = g()
	return nil
}
`
	d := onlyDelta(t, compare(t, lang.Go, before, after))
	if d.Change != ResultDiscarded || d.Severity != quality.Critical {
		t.Errorf("got %s/%s", d.Change, d.Severity)
	}
}

func TestCompare_ResultCheckReplacedByUnwrap(t *testing.T) {
	before := "fn f() -> Result<i32, E> {\n    let v = g()?;\n    Ok(v)\n}\n"
	after := "fn f() -> Result<i32, E> {\n    let v = g().unwrap();\n    Ok(v)\n}\n"

	d := onlyDelta(t, compare(t, lang.Rust, before, after))
	if d.Change != ResultDiscarded {
		t.Errorf("Change = %s", d.Change)
	}
}

func TestCompare_BodyReducedToConstant(t *testing.T) {
	res := compare(t, lang.Python,
		"def f(x):\n    if x > 1:\n        return x * 2\n    return 0\n",
		"def f(x):\n    return 0\n")

	d := onlyDelta(t, res)
	if d.Change != ReturnChanged || d.Detail != "body reduced to constant return" {
		t.Errorf("got %s %q", d.Change, d.Detail)
	}
}

func TestCompare_ReturnTypeChanged(t *testing.T) {
	res := compare(t, lang.TypeScript,
		"export function f(a: number): number { return a; }\n",
		"export function f(a: number): string { return String(a); }\n")

	d := onlyDelta(t, res)
	if d.Change != ReturnChanged {
		t.Fatalf("Change = %s", d.Change)
	}
	if d.OldValue != "number" || d.NewValue != "string" {
		t.Errorf("values = %q -> %q", d.OldValue, d.NewValue)
	}
}

func TestCompare_UnreachableInserted(t *testing.T) {
	res := compare(t, lang.JavaScript,
		"function f() {\n  work();\n  return 1;\n}\n",
		"function f() {\n  return 1;\n  work();\n}\n")

	d := onlyDelta(t, res)
	if d.Change != UnreachableInserted {
		t.Errorf("Change = %s", d.Change)
	}
}

func TestCompare_Identical(t *testing.T) {
	src := "def f(a, b):\n    try:\n        return a / b\n    except ZeroDivisionError:\n        return 0\n"
	res := compare(t, lang.Python, src, src)
	if res.HasDeltas() {
		t.Errorf("identical sources produced deltas: %+v", res.Deltas)
	}
	if res.Summary.Compared != 2 {
		t.Errorf("Compared = %d, want 2", res.Summary.Compared)
	}
}

func TestCompare_BrokenBaseline(t *testing.T) {
	res := compare(t, lang.Python, "   ", "def f():\n    pass\n")
	if res.HasDeltas() {
		t.Error("an empty baseline has no contract")
	}
}

func TestDiff_Functions(t *testing.T) {
	before := []analyzer.Function{
		{Qualified: "a", TopLevel: true, Line: 1, Params: 1, Visibility: syntax.VisPublic},
		{Qualified: "b", TopLevel: true, Line: 5, Params: 2, ReturnType: "int", Visibility: syntax.VisPublic},
		{Qualified: "nested", TopLevel: false, Line: 9, Params: 3},
		{Qualified: "gone", TopLevel: true, Line: 12},
	}
	after := []analyzer.Function{
		{Qualified: "a", TopLevel: true, Line: 1, Params: 2, Visibility: syntax.VisPublic},
		{Qualified: "b", TopLevel: true, Line: 6, Params: 1, ReturnType: "str", Visibility: syntax.VisPrivate},
		{Qualified: "nested", TopLevel: false, Line: 10, Params: 0},
		{Qualified: "added", TopLevel: true, Line: 14},
	}

	res := Diff(before, after)
	want := []ChangeKind{ParamCountIncreased, ParamCountReduced, ReturnChanged, VisibilityLowered}
	if len(res.Deltas) != len(want) {
		t.Fatalf("got %d deltas, want %d: %+v", len(res.Deltas), len(want), res.Deltas)
	}
	for i, k := range want {
		if res.Deltas[i].Change != k {
			t.Errorf("delta %d = %s, want %s", i, res.Deltas[i].Change, k)
		}
	}
	if res.Deltas[0].Severity != quality.Minor {
		t.Errorf("ParamCountIncreased severity = %s", res.Deltas[0].Severity)
	}
	if res.Summary.Highest != quality.Critical {
		t.Errorf("Highest = %s", res.Summary.Highest)
	}
	if res.Summary.Compared != 2 {
		t.Errorf("Compared = %d", res.Summary.Compared)
	}
}

func TestDelta_Reason(t *testing.T) {
	d := Delta{FunctionID: "C.m", Change: CatchEmptied, Detail: "error handler body was emptied"}
	want := "CatchEmptied in 'C.m': error handler body was emptied"
	if got := d.Reason(); got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}
