package builtins_test

import (
	"testing"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/parser"
	"github.com/thomasrohde/paren/pkg/scope"
)

// form parses a single top-level group.
func form(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, diags := parser.Parse(src, "test.pn")
	if len(diags) > 0 {
		t.Fatalf("parse %q: %s", src, diags[0].Message)
	}
	if root.Len() != 1 {
		t.Fatalf("expected one form, got %d", root.Len())
	}
	return root.Child(0)
}

// define runs a definition node through the pipeline the way the evaluator does.
func define(t *testing.T, node *ast.Node) (*builtins.Definition, *builtins.Failure) {
	t.Helper()
	res := builtins.Recognize(node)
	if res.Action != builtins.DefSkip {
		t.Fatalf("Recognize = %s, want skip", res.Action)
	}
	def := res.Def
	for node.Len() > 0 {
		res = builtins.Consume(node, def)
		if res.Action == builtins.DefError {
			return nil, res.Err
		}
		if res.Action != builtins.DefRemove {
			t.Fatalf("Consume = %s, want remove", res.Action)
		}
	}
	return def, nil
}

func TestRecognize_Other(t *testing.T) {
	for _, src := range []string{"(add 1 2)", "(1 2)", "((set))"} {
		node := form(t, src)
		if res := builtins.Recognize(node); res.Action != builtins.DefOther {
			t.Errorf("%s: got %s, want other", src, res.Action)
		}
	}
}

func TestDefine_Set(t *testing.T) {
	node := form(t, "(set (name sq) (params x) (body (mult x x)))")
	def, f := define(t, node)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if def.Kind != builtins.KindSet || def.Name != "sq" {
		t.Fatalf("got %s %q", def.Kind, def.Name)
	}
	if def.Params.Len() != 1 || def.Body.Len() != 1 {
		t.Fatalf("params=%d body=%d", def.Params.Len(), def.Body.Len())
	}
	if node.Len() != 0 {
		t.Errorf("markers not stripped: %d left", node.Len())
	}

	chain := scope.NewChain()
	fn, created, fail := builtins.Install(def, chain)
	if fail != nil || !created {
		t.Fatalf("install: created=%v fail=%v", created, fail)
	}
	if chain.Find("sq") != fn {
		t.Error("installed function not found")
	}
}

func TestDefine_SetRebindsInPlace(t *testing.T) {
	chain := scope.NewChain()
	first, _ := define(t, form(t, "(set (name f) (body 1))"))
	fn, _, _ := builtins.Install(first, chain)

	chain.Push()
	second, _ := define(t, form(t, "(set (name f) (params a) (body 2))"))
	got, created, fail := builtins.Install(second, chain)
	if fail != nil {
		t.Fatal(fail)
	}
	if created || got != fn {
		t.Fatal("set should rebind the outer entry")
	}
	if chain.Len(chain.Current()) != 0 {
		t.Error("inner frame should stay empty")
	}
	if fn.Body.Child(0).Text() != "2" || len(fn.ParamNames()) != 1 {
		t.Errorf("entry not reset: body=%s params=%v", fn.Body.Child(0).Text(), fn.ParamNames())
	}
}

func TestDefine_LetShadows(t *testing.T) {
	chain := scope.NewChain()
	outer, _ := define(t, form(t, "(let (name x) (body 1))"))
	outerFn, _, _ := builtins.Install(outer, chain)

	chain.Push()
	inner, _ := define(t, form(t, "(let (name x) (body 2))"))
	innerFn, created, _ := builtins.Install(inner, chain)
	if !created || innerFn == outerFn {
		t.Fatal("let should bind fresh in the current frame")
	}
	if chain.Find("x") != innerFn {
		t.Error("inner binding should shadow")
	}
	if err := chain.Pop(); err != nil {
		t.Fatal(err)
	}
	if chain.Find("x") != outerFn {
		t.Error("outer binding should be visible after pop")
	}
}

func TestDefine_LetSameFrameResets(t *testing.T) {
	chain := scope.NewChain()
	a, _ := define(t, form(t, "(let (name x) (body 1))"))
	fa, _, _ := builtins.Install(a, chain)
	b, _ := define(t, form(t, "(let (name x) (body 2))"))
	fb, created, _ := builtins.Install(b, chain)
	if created || fa != fb || chain.Len(chain.Current()) != 1 {
		t.Fatal("second let in the same frame should reset the entry")
	}
}

func TestDefine_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"duplicate name", "(set (name a) (name b))"},
		{"name not symbol", "(set (name 1))"},
		{"name two symbols", "(set (name a b))"},
		{"empty name", "(set (name))"},
		{"param not symbol", `(set (name f) (params "x"))`},
		{"duplicate param", "(set (name f) (params x x))"},
		{"reserved param", "(set (name f) (params let))"},
		{"duplicate params", "(set (name f) (params x) (params y))"},
		{"duplicate body", "(set (name f) (body 1) (body 2))"},
		{"let params", "(let (name x) (params y))"},
		{"stray literal", "(set (name f) 5)"},
		{"unknown marker", "(set (name f) (value 1))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f := define(t, form(t, tt.src))
			if f == nil {
				t.Fatal("expected failure")
			}
			if f.Code != diagnostics.EDef {
				t.Errorf("code = %s, want %s", f.Code, diagnostics.EDef)
			}
		})
	}
}

func TestInstall_MissingName(t *testing.T) {
	def, f := define(t, form(t, "(set (body 1))"))
	if f != nil {
		t.Fatal(f)
	}
	_, _, fail := builtins.Install(def, scope.NewChain())
	if fail == nil || fail.Code != diagnostics.EDef {
		t.Fatalf("expected E_DEF, got %v", fail)
	}
}

func TestInstall_ReservedName(t *testing.T) {
	for _, name := range []string{"set", "let", "name", "params", "body"} {
		def, f := define(t, form(t, "(set (name "+name+") (body 1))"))
		if f != nil {
			t.Fatal(f)
		}
		if _, _, fail := builtins.Install(def, scope.NewChain()); fail == nil {
			t.Errorf("%s: expected reserved-name failure", name)
		}
	}
}

func TestBindingForm(t *testing.T) {
	got := builtins.BindingForm("p", ast.Number("3"))
	want := form(t, "(let (name p) (body 3))")
	if !ast.Equal(got, want) {
		t.Error("binding form mismatch")
	}
}
