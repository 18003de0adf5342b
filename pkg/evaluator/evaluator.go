// Package evaluator rewrites a paren syntax tree down to nothing, one step at
// a time, producing output as a side effect.
//
// The evaluator never recurses on the Go stack. Its whole suspended state is
// the root, a work stack of frames and the scope chain cursor, so evaluation
// can be driven one transition at a time with Step or to completion with Run.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/formatter"
	"github.com/thomasrohde/paren/pkg/scope"
	"github.com/thomasrohde/paren/pkg/token"
)

// UnknownOpPolicy decides what happens to a call whose operator matches no
// function and no builtin.
type UnknownOpPolicy string

const (
	UnknownIgnore UnknownOpPolicy = "ignore"
	UnknownWarn   UnknownOpPolicy = "warn"
	UnknownError  UnknownOpPolicy = "error"
)

// ArityPolicy decides how argument-count mismatches on user functions are
// handled.
type ArityPolicy string

const (
	// ArityStrict rejects mismatches with E_ARITY.
	ArityStrict ArityPolicy = "strict"
	// ArityLenient drops extra arguments and leaves missing parameters unbound.
	ArityLenient ArityPolicy = "lenient"
)

// checkEvery is how many steps pass between context checks in Run.
const checkEvery = 256

// Options configures evaluation.
type Options struct {
	Registry  *builtins.Registry
	Stdout    io.Writer
	Trace     func(event TraceEvent)
	RunID     string
	Logger    *log.Logger
	UnknownOp UnknownOpPolicy
	Arity     ArityPolicy
	Budget    Budget
}

// EvalError represents an evaluation failure.
type EvalError struct {
	Diag diagnostics.Diagnostic
}

func (e *EvalError) Error() string {
	return e.Diag.Message
}

type frameKind int

const (
	// kindCall is a group with an operator; child 0 is the operator.
	kindCall frameKind = iota
	// kindBlock is a group without an operator; it collapses to its last child.
	kindBlock
	// kindList evaluates its items and stays in the tree.
	kindList
	// kindDefine consumes set/let markers without evaluating them.
	kindDefine
)

// frame is one entry of the work stack: a node being processed, where it
// lives in its parent, and how far processing has got.
type frame struct {
	node   *ast.Node
	parent *ast.Node
	index  int
	next   int
	kind   frameKind
	op     string
	scoped bool
	def    *builtins.Definition
}

// Evaluator holds the complete evaluation state.
type Evaluator struct {
	opts    Options
	root    *ast.Node
	stack   []frame
	chain   *scope.Chain
	last    *ast.Node
	tracker BudgetTracker
}

// New creates an evaluator for root. The tree is consumed by evaluation.
func New(root *ast.Node, opts Options) *Evaluator {
	if opts.Registry == nil {
		opts.Registry = builtins.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.UnknownOp == "" {
		opts.UnknownOp = UnknownIgnore
	}
	if opts.Arity == "" {
		opts.Arity = ArityStrict
	}
	if root == nil {
		root = ast.NewRoot()
	}
	return &Evaluator{
		opts:  opts,
		root:  root,
		chain: scope.NewChain(),
	}
}

// Load appends the forms of another tree to the pending root forms. Scope
// entries installed at the root by earlier forms stay visible.
func (e *Evaluator) Load(root *ast.Node) {
	e.root.Children = append(e.root.Children, root.DumpChildren()...)
	e.last = nil
}

// Done reports whether the tree has been fully evaluated.
func (e *Evaluator) Done() bool {
	return len(e.stack) == 0 && e.root.Len() == 0
}

// LastValue returns the value of the most recently completed top-level
// form, or nil when that form contributed nothing.
func (e *Evaluator) LastValue() *ast.Node {
	return e.last
}

// Root returns the tree being evaluated.
func (e *Evaluator) Root() *ast.Node {
	return e.root
}

// Chain exposes the scope chain.
func (e *Evaluator) Chain() *scope.Chain {
	return e.chain
}

// Steps returns the number of transitions taken so far.
func (e *Evaluator) Steps() int64 {
	return e.tracker.Steps
}

// Depth returns the number of frames on the work stack.
func (e *Evaluator) Depth() int {
	return len(e.stack)
}

// Run steps until the tree is empty, an error occurs, or ctx is done.
func (e *Evaluator) Run(ctx context.Context) error {
	if e.opts.Budget.TimeMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.opts.Budget.TimeMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	e.tracker.RunStart = e.tracker.Steps
	e.emit(TraceRunStart, nil)

	err := e.run(ctx)

	if e.tracing() {
		e.emitWithData(TraceRunEnd, nil, map[string]string{
			"steps":      strconv.FormatInt(e.tracker.RunSteps(), 10),
			"durationMs": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
		})
	}
	return err
}

func (e *Evaluator) run(ctx context.Context) error {
	for !e.Done() {
		if e.tracker.Steps%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.DeadlineExceeded) && e.opts.Budget.TimeMs > 0 {
					return e.timeBudgetError()
				}
				e.reset()
				return err
			}
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step performs one transition.
func (e *Evaluator) Step() error {
	if e.Done() {
		return nil
	}
	e.tracker.Steps++
	if err := e.checkStepBudget(); err != nil {
		return err
	}

	if len(e.stack) == 0 {
		return e.descend(e.root, 0)
	}
	top := &e.stack[len(e.stack)-1]
	if top.kind == kindDefine {
		return e.stepDefine(top)
	}
	if top.next < top.node.Len() {
		return e.descend(top.node, top.next)
	}
	return e.complete()
}

// descend processes child index of parent.
func (e *Evaluator) descend(parent *ast.Node, index int) error {
	child := parent.Child(index)
	switch {
	case child.IsGroup():
		return e.enterGroup(parent, index, child)
	case child.IsList():
		e.stack = append(e.stack, frame{node: child, parent: parent, index: index, kind: kindList})
		return nil
	case child.IsSymbol():
		// A symbol naming a function is a call with no arguments.
		if fn := e.chain.Find(child.Text()); fn != nil {
			call := ast.New(token.Token{Type: token.OpenGroup, Value: "(", Span: child.Span()})
			call.Push(child)
			parent.Replace(index, call)
			return e.enterGroup(parent, index, call)
		}
	}
	e.settle(parent, index, true)
	return nil
}

func (e *Evaluator) enterGroup(parent *ast.Node, index int, node *ast.Node) error {
	op, isCall := node.Operator()
	if isCall && builtins.IsDefinitionOp(op) {
		res := builtins.Recognize(node)
		e.stack = append(e.stack, frame{
			node: node, parent: parent, index: index,
			kind: kindDefine, op: op, def: res.Def,
		})
		return nil
	}
	if isCall && builtins.IsMarker(op) {
		return e.fail(diagnostics.EDef,
			fmt.Sprintf("(%s ...) is only valid inside set or let", op),
			spanOf(node), "")
	}

	f := frame{node: node, parent: parent, index: index, kind: kindBlock}
	if isCall {
		f.kind = kindCall
		f.op = op
		f.next = 1
	}
	e.push(f)
	return nil
}

// push enters a group frame with a fresh scope.
func (e *Evaluator) push(f frame) {
	e.chain.Push()
	f.scoped = true
	e.stack = append(e.stack, f)
	if e.tracing() {
		e.emitWithData(TraceScopePush, spanOf(f.node), map[string]string{
			"depth": strconv.Itoa(e.chain.Depth()),
		})
	}
}

func (e *Evaluator) popScope(f frame) {
	if !f.scoped {
		return
	}
	_ = e.chain.Pop()
	if e.tracing() {
		e.emitWithData(TraceScopePop, spanOf(f.node), map[string]string{
			"depth": strconv.Itoa(e.chain.Depth()),
		})
	}
}

// stepDefine consumes one marker, or installs the definition once none remain.
func (e *Evaluator) stepDefine(top *frame) error {
	if top.node.Len() > 0 {
		marker := top.node.Child(0)
		res := builtins.Consume(top.node, top.def)
		if res.Action == builtins.DefError {
			return e.failWith(res.Err, spanOf(marker))
		}
		return nil
	}

	f := *top
	e.stack = e.stack[:len(e.stack)-1]
	fn, created, failure := builtins.Install(f.def, e.chain)
	if failure != nil {
		return e.failWith(failure, spanOf(f.node))
	}
	if e.tracing() {
		e.emitWithData(TraceDefine, spanOf(f.node), map[string]string{
			"name":    fn.Name,
			"kind":    f.def.Kind.String(),
			"params":  strconv.Itoa(fn.Params.Len()),
			"created": strconv.FormatBool(created),
		})
	}
	f.parent.Detach(f.index)
	e.settle(f.parent, f.index, false)
	return nil
}

// complete handles a frame whose children have all been processed.
func (e *Evaluator) complete() error {
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.popScope(f)

	switch f.kind {
	case kindList:
		e.settle(f.parent, f.index, true)
	case kindBlock:
		if f.node.Len() == 0 {
			f.parent.Detach(f.index)
			e.settle(f.parent, f.index, false)
			return nil
		}
		f.parent.Replace(f.index, f.node.Child(f.node.Len()-1))
		e.settle(f.parent, f.index, true)
	case kindCall:
		return e.completeCall(f)
	}
	return nil
}

func (e *Evaluator) completeCall(f frame) error {
	if fn := e.chain.Find(f.op); fn != nil {
		return e.expand(f, fn)
	}

	res := e.opts.Registry.Dispatch(f.node, e.opts.Stdout)
	if res.Unknown {
		return e.unknown(f)
	}
	if e.tracing() {
		e.emitWithData(TraceBuiltin, spanOf(f.node), map[string]string{
			"name":   f.op,
			"action": res.Action.String(),
		})
	}

	switch res.Action {
	case builtins.Push:
		v := res.Value
		if v.Token != nil {
			v.Token.Span = f.node.Span()
		}
		f.parent.Replace(f.index, v)
		e.settle(f.parent, f.index, true)
	case builtins.Insert:
		e.reenter(f)
	case builtins.Ignore:
		f.parent.Detach(f.index)
		e.settle(f.parent, f.index, false)
	case builtins.Error:
		return e.failWith(res.Err, spanOf(f.node))
	}
	return nil
}

// unknown applies the unknown-operator policy to a call no builtin matched.
func (e *Evaluator) unknown(f frame) error {
	switch e.opts.UnknownOp {
	case UnknownError:
		return e.fail(diagnostics.EUnknownOp,
			fmt.Sprintf("unknown operator '%s'", f.op),
			spanOf(f.node), e.suggestion(f.op))
	case UnknownWarn:
		if e.opts.Logger != nil {
			msg := fmt.Sprintf("%s: unknown operator '%s' ignored", location(f.node), f.op)
			if hint := e.suggestion(f.op); hint != "" {
				msg += " (" + hint + ")"
			}
			e.opts.Logger.Print(msg)
		}
	}
	if e.tracing() {
		e.emitWithData(TraceIgnore, spanOf(f.node), map[string]string{
			"name": f.op,
			"form": formatter.Inline(f.node),
		})
	}
	f.parent.Detach(f.index)
	e.settle(f.parent, f.index, false)
	return nil
}

// expand rewrites a call to a user function into a block of parameter
// bindings followed by a fresh copy of the body, and re-enters it.
func (e *Evaluator) expand(f frame, fn *scope.Function) error {
	args := f.node.Children[1:]
	params := fn.ParamNames()
	if len(args) != len(params) {
		if e.opts.Arity != ArityLenient {
			return e.fail(diagnostics.EArity,
				fmt.Sprintf("%s: expected %d argument(s), got %d", fn.Name, len(params), len(args)),
				spanOf(f.node), signature(fn))
		}
		if len(args) > len(params) {
			args = args[:len(params)]
		}
	}

	children := make([]*ast.Node, 0, len(args)+fn.Body.Len())
	for i, arg := range args {
		children = append(children, builtins.BindingForm(params[i], arg))
	}
	children = append(children, fn.Body.CloneChildren()...)
	f.node.Children = children

	if e.tracing() {
		e.emitWithData(TraceExpand, spanOf(f.node), map[string]string{
			"name": fn.Name,
			"args": strconv.Itoa(len(args)),
		})
	}

	f.kind = kindBlock
	f.op = ""
	f.next = 0
	e.push(f)
	return nil
}

// reenter puts a rewritten call back on the work stack.
func (e *Evaluator) reenter(f frame) {
	op, isCall := f.node.Operator()
	f.kind = kindBlock
	f.op = ""
	f.next = 0
	if isCall {
		f.kind = kindCall
		f.op = op
		f.next = 1
	}
	e.push(f)
}

// settle records the outcome of a processed child. kept means a value now
// occupies parent[index]. Completed top-level forms leave the root.
func (e *Evaluator) settle(parent *ast.Node, index int, kept bool) {
	if parent == e.root {
		e.last = nil
		if kept {
			e.last = parent.Detach(index)
		}
		return
	}
	top := &e.stack[len(e.stack)-1]
	if kept {
		top.next = index + 1
	} else {
		top.next = index
	}
}

func (e *Evaluator) fail(code, msg string, span *token.Span, hint string) error {
	d := diagnostics.MakeDiag(code, msg, span, hint)
	if e.tracing() {
		e.emitWithData(TraceError, span, map[string]string{
			"code":    code,
			"message": msg,
		})
	}
	e.reset()
	return &EvalError{Diag: d}
}

func (e *Evaluator) failWith(f *builtins.Failure, span *token.Span) error {
	return e.fail(f.Code, f.Message, span, f.Hint)
}

// reset abandons the remaining work. Root-scope definitions survive.
func (e *Evaluator) reset() {
	e.stack = nil
	e.chain.Truncate(0)
	e.root.Children = nil
}

func (e *Evaluator) currentSpan() *token.Span {
	if len(e.stack) > 0 {
		return spanOf(e.stack[len(e.stack)-1].node)
	}
	if e.root.Len() > 0 {
		return spanOf(e.root.Child(0))
	}
	return nil
}

func spanOf(n *ast.Node) *token.Span {
	if n == nil || n.Token == nil {
		return nil
	}
	s := n.Span()
	if s.File == "" && s.StartLine == 0 {
		return nil
	}
	return &s
}

func location(n *ast.Node) string {
	s := spanOf(n)
	if s == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

func signature(fn *scope.Function) string {
	sig := "(" + fn.Name
	for _, p := range fn.ParamNames() {
		sig += " " + p
	}
	return sig + ")"
}
