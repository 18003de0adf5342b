package builtins

import (
	"fmt"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/scope"
	"github.com/thomasrohde/paren/pkg/token"
)

// Names of the definition forms and their marker sub-forms.
const (
	OpSet      = "set"
	OpLet      = "let"
	MarkName   = "name"
	MarkParams = "params"
	MarkBody   = "body"
)

// DefAction is the outcome of one definition-pipeline step.
type DefAction int

const (
	// DefOther means the node is not a definition form.
	DefOther DefAction = iota
	// DefSkip means the node was recognized and rewritten; its marker
	// children must still be consumed before the definition is installed.
	DefSkip
	// DefRemove means a marker sub-form was consumed and stripped.
	DefRemove
	// DefError means the node is malformed.
	DefError
)

var defActionNames = [...]string{DefOther: "other", DefSkip: "skip", DefRemove: "remove", DefError: "error"}

func (a DefAction) String() string {
	if a >= 0 && int(a) < len(defActionNames) {
		return defActionNames[a]
	}
	return fmt.Sprintf("DefAction(%d)", int(a))
}

// DefKind distinguishes set from let.
type DefKind int

const (
	KindSet DefKind = iota
	KindLet
)

func (k DefKind) String() string {
	if k == KindLet {
		return OpLet
	}
	return OpSet
}

// Definition accumulates the markers of a definition node while it is
// being consumed.
type Definition struct {
	Kind   DefKind
	Name   string
	Params *ast.Node
	Body   *ast.Node
	Span   token.Span

	hasName bool
}

// DefResult is the outcome of a definition-pipeline step.
type DefResult struct {
	Action DefAction
	Def    *Definition
	Err    *Failure
}

// IsDefinitionOp reports whether name starts a definition form.
func IsDefinitionOp(name string) bool {
	return name == OpSet || name == OpLet
}

// IsMarker reports whether name is a marker sub-form.
func IsMarker(name string) bool {
	return name == MarkName || name == MarkParams || name == MarkBody
}

// Recognize inspects a group whose first child is its operator. For set and
// let it strips the operator and returns DefSkip with a pending Definition;
// otherwise DefOther.
func Recognize(node *ast.Node) DefResult {
	op, ok := node.Operator()
	if !ok || !IsDefinitionOp(op) {
		return DefResult{Action: DefOther}
	}
	kind := KindSet
	if op == OpLet {
		kind = KindLet
	}
	node.Detach(0)
	return DefResult{
		Action: DefSkip,
		Def:    &Definition{Kind: kind, Span: node.Span()},
	}
}

// Consume strips the first remaining marker of a recognized definition node
// and records it on def.
func Consume(node *ast.Node, def *Definition) DefResult {
	child := node.Child(0)
	if child == nil {
		return defFail(fmt.Sprintf("%s: no marker left to consume", def.Kind))
	}
	mark, ok := child.Operator()
	if !ok || !IsMarker(mark) {
		return defFail(fmt.Sprintf("%s: unexpected %s, want (name ...), (params ...) or (body ...)", def.Kind, describe(child)))
	}

	switch mark {
	case MarkName:
		if def.hasName {
			return defFail(fmt.Sprintf("%s: duplicate name marker", def.Kind))
		}
		if child.Len() != 2 || !child.Child(1).IsSymbol() {
			return defFail(fmt.Sprintf("%s: (name ...) takes exactly one symbol", def.Kind))
		}
		def.Name = child.Child(1).Text()
		def.hasName = true
	case MarkParams:
		if def.Kind == KindLet {
			return defFail("let: bindings take no parameters")
		}
		if def.Params != nil {
			return defFail(fmt.Sprintf("%s: duplicate params marker", def.Kind))
		}
		seen := make(map[string]bool)
		params := ast.Group()
		for _, p := range child.Children[1:] {
			if !p.IsSymbol() {
				return defFail(fmt.Sprintf("%s: parameter %s is not a symbol", def.Kind, describe(p)))
			}
			if IsDefinitionOp(p.Text()) || IsMarker(p.Text()) {
				return defFail(fmt.Sprintf("%s: parameter '%s' is reserved", def.Kind, p.Text()))
			}
			if seen[p.Text()] {
				return defFail(fmt.Sprintf("%s: duplicate parameter '%s'", def.Kind, p.Text()))
			}
			seen[p.Text()] = true
			params.Push(p)
		}
		def.Params = params
	case MarkBody:
		if def.Body != nil {
			return defFail(fmt.Sprintf("%s: duplicate body marker", def.Kind))
		}
		body := ast.Group()
		body.Children = child.Children[1:]
		def.Body = body
	}

	node.Detach(0)
	return DefResult{Action: DefRemove, Def: def}
}

// Install adds a fully consumed definition to the chain. set rebinds the
// nearest visible entry in place, or inserts into the current frame when the
// name is new. let always binds in the current frame with no parameters.
// It reports whether a new entry was created.
func Install(def *Definition, chain *scope.Chain) (*scope.Function, bool, *Failure) {
	if f := Validate(def); f != nil {
		return nil, false, f
	}
	switch def.Kind {
	case KindSet:
		if fn := chain.Find(def.Name); fn != nil {
			scope.Reset(fn, def.Params, def.Body)
			return fn, false, nil
		}
		fn := scope.NewFunction(def.Name, def.Params, def.Body)
		chain.InsertUnconditional(fn)
		return fn, true, nil
	default:
		if fn := chain.FindLocal(def.Name); fn != nil {
			scope.Reset(fn, nil, def.Body)
			return fn, false, nil
		}
		fn := scope.NewFunction(def.Name, nil, def.Body)
		chain.InsertUnconditional(fn)
		return fn, true, nil
	}
}

// Validate reports why a fully consumed definition cannot be installed, or
// nil when it can.
func Validate(def *Definition) *Failure {
	if !def.hasName {
		return defErr(fmt.Sprintf("%s: missing (name ...) marker", def.Kind))
	}
	if IsDefinitionOp(def.Name) || IsMarker(def.Name) {
		return defErr(fmt.Sprintf("%s: '%s' is reserved", def.Kind, def.Name))
	}
	return nil
}

// BindingForm builds the synthetic (let (name sym) (body value)) sub-form
// used to substitute a parameter during function expansion.
func BindingForm(param string, value *ast.Node) *ast.Node {
	return ast.Group(
		ast.Symbol(OpLet),
		ast.Group(ast.Symbol(MarkName), ast.Symbol(param)),
		ast.Group(ast.Symbol(MarkBody), value),
	)
}

func defErr(msg string) *Failure {
	return &Failure{Code: diagnostics.EDef, Message: msg}
}

func defFail(msg string) DefResult {
	return DefResult{Action: DefError, Err: defErr(msg)}
}

func describe(n *ast.Node) string {
	switch {
	case n.IsGroup():
		if op, ok := n.Operator(); ok {
			return fmt.Sprintf("(%s ...)", op)
		}
		return "group"
	case n.IsList():
		return "list"
	case n.IsStringLit():
		return fmt.Sprintf("string %q", n.Text())
	case n.IsNumber():
		return "number " + n.Text()
	}
	return fmt.Sprintf("symbol '%s'", n.Text())
}
