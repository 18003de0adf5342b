// Package builtins implements the dispatch protocol for fully expanded call
// nodes: the definition pipeline for set/let and the builtin pipeline for
// natively implemented operators.
package builtins

import (
	"fmt"

	"github.com/thomasrohde/paren/pkg/ast"
)

// Action tells the evaluator what to do with a dispatched call node.
type Action int

const (
	// Push replaces the call with Result.Value.
	Push Action = iota
	// Insert means the node was rewritten in place and must stay on the
	// work stack to be entered again.
	Insert
	// Ignore removes the call without a replacement.
	Ignore
	// Error aborts evaluation with Result.Err.
	Error
)

var actionNames = [...]string{Push: "push", Insert: "insert", Ignore: "ignore", Error: "error"}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Terminal reports whether the node needs no further processing.
func (a Action) Terminal() bool {
	return a != Insert
}

// Result is the outcome of the builtin pipeline.
type Result struct {
	Action Action
	Value  *ast.Node
	Err    *Failure
	// Unknown is set when no builtin matched the operator.
	Unknown bool
}

// Failure describes why a call or definition was rejected.
type Failure struct {
	Code    string
	Message string
	Hint    string
}

func (f *Failure) Error() string {
	return f.Message
}

func fail(code, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

func pushed(v *ast.Node) Result {
	return Result{Action: Push, Value: v}
}

func failed(f *Failure) Result {
	return Result{Action: Error, Err: f}
}
