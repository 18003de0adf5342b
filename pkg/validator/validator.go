// Package validator implements static checks of paren trees before evaluation.
//
// Validation never mutates the tree. It reports every malformed definition
// form and every stray marker, so a file can be checked in one pass instead
// of failing at the first problem the evaluator reaches.
package validator

import (
	"fmt"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/token"
)

type validator struct {
	diags []diagnostics.Diagnostic
	stack []*ast.Node
}

// Validate checks root and returns diagnostics in source order.
func Validate(root *ast.Node) []diagnostics.Diagnostic {
	v := &validator{}
	v.pushChildren(root.Children)
	for len(v.stack) > 0 {
		n := v.stack[len(v.stack)-1]
		v.stack = v.stack[:len(v.stack)-1]
		v.visit(n)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, n *ast.Node) {
	var span *token.Span
	if n != nil && n.Token != nil {
		s := n.Span()
		span = &s
	}
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, ""))
}

// pushChildren schedules children so the first is visited first.
func (v *validator) pushChildren(children []*ast.Node) {
	for i := len(children) - 1; i >= 0; i-- {
		v.stack = append(v.stack, children[i])
	}
}

func (v *validator) visit(n *ast.Node) {
	if !n.IsAggregate() {
		return
	}
	if op, ok := n.Operator(); ok {
		switch {
		case builtins.IsDefinitionOp(op):
			v.checkDefinition(n)
			return
		case builtins.IsMarker(op):
			v.addDiag(diagnostics.EDef, fmt.Sprintf("(%s ...) is only valid inside set or let", op), n)
			return
		}
	}
	v.pushChildren(n.Children)
}

// checkDefinition runs the definition pipeline on a copy of n, then
// schedules the body forms for validation.
func (v *validator) checkDefinition(n *ast.Node) {
	work := n.Clone()
	res := builtins.Recognize(work)
	def := res.Def
	consumed := 0
	for work.Len() > 0 {
		res = builtins.Consume(work, def)
		if res.Action == builtins.DefError {
			// The operator is child 0 of the original node.
			v.addDiag(res.Err.Code, res.Err.Message, n.Child(consumed+1))
			return
		}
		consumed++
	}
	if f := builtins.Validate(def); f != nil {
		v.addDiag(f.Code, f.Message, n)
		return
	}
	for _, child := range n.Children[1:] {
		if op, _ := child.Operator(); op == builtins.MarkBody {
			v.pushChildren(child.Children[1:])
		}
	}
}
