package builtins

import (
	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/diagnostics"
)

// builtinApply rewrites (apply op a b <c d>) into (op a b c d). The operator
// may be given as a symbol or as a string naming it.
func builtinApply(call *Call) Result {
	if len(call.Args) < 2 {
		return failed(&Failure{
			Code:    diagnostics.EArity,
			Message: "apply: expected an operator and a list",
			Hint:    "(apply op <a b ...>)",
		})
	}
	opArg := call.Args[0]
	var op string
	switch {
	case opArg.IsSymbol(), opArg.IsStringLit():
		op = opArg.Text()
	default:
		return failed(fail(diagnostics.EType, "apply: operator is %s, expected a symbol or string", describe(opArg)))
	}
	if op == "" {
		return failed(fail(diagnostics.EType, "apply: empty operator name"))
	}
	if IsDefinitionOp(op) || IsMarker(op) {
		return failed(fail(diagnostics.EType, "apply: cannot apply definition form '%s'", op))
	}
	last := call.Args[len(call.Args)-1]
	if !last.IsList() {
		return failed(fail(diagnostics.EType, "apply: last argument is %s, expected a list", describe(last)))
	}

	node := call.Node
	fixed := call.Args[1 : len(call.Args)-1]
	items := last.DumpChildren()
	children := make([]*ast.Node, 0, 1+len(fixed)+len(items))
	children = append(children, ast.Symbol(op))
	children = append(children, fixed...)
	children = append(children, items...)
	node.Children = children
	return Result{Action: Insert, Value: node}
}
