// Package runtime provides the top-level paren runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/config"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/evaluator"
	"github.com/thomasrohde/paren/pkg/formatter"
	"github.com/thomasrohde/paren/pkg/parser"
	"github.com/thomasrohde/paren/pkg/validator"
)

// Result holds the outcome of a program run.
type Result struct {
	// Value is the value of the last top-level form, or nil.
	Value *ast.Node
	Steps int64
}

// Runtime wires together all paren components for program execution.
type Runtime struct {
	registry *builtins.Registry
	config   *config.Config
	stdout   io.Writer
	logger   *log.Logger
	runID    string
	trace    func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithRegistry sets the builtin registry.
func WithRegistry(r *builtins.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = r
	}
}

// WithConfig sets the interpreter configuration.
func WithConfig(c *config.Config) Option {
	return func(rt *Runtime) {
		rt.config = c
	}
}

// WithStdout sets where print and println write.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *log.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default all builtins are registered, output goes to stdout and the
// built-in configuration applies.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		registry: builtins.Default(),
		config:   config.Default(),
		stdout:   os.Stdout,
		logger:   log.New(os.Stderr, "paren: ", 0),
		runID:    "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Config returns the effective configuration.
func (rt *Runtime) Config() *config.Config {
	return rt.config
}

// Run parses, validates, and evaluates a paren program.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	root, err := rt.prepare(source, filename)
	if err != nil {
		return nil, err
	}

	ev := evaluator.New(root, rt.evalOptions())
	if err := ev.Run(ctx); err != nil {
		return &Result{Steps: ev.Steps()}, err
	}
	return &Result{Value: ev.LastValue(), Steps: ev.Steps()}, nil
}

// Check parses and validates a paren program without evaluating it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	root, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(root)
}

// Format parses and pretty-prints a paren program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	root, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.FormatIndent(root, rt.config.Indent()), nil
}

func (rt *Runtime) prepare(source, filename string) (*ast.Node, error) {
	root, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	if vDiags := validator.Validate(root); len(vDiags) > 0 {
		return nil, &DiagnosticError{Diagnostics: vDiags}
	}
	return root, nil
}

// evalOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) evalOptions() evaluator.Options {
	return evaluator.Options{
		Registry:  rt.registry,
		Stdout:    rt.stdout,
		Trace:     rt.trace,
		RunID:     rt.runID,
		Logger:    rt.logger,
		UnknownOp: evaluator.UnknownOpPolicy(rt.config.UnknownOperator),
		Arity:     evaluator.ArityPolicy(rt.config.Arity),
		Budget: evaluator.Budget{
			MaxSteps: rt.config.MaxSteps,
			TimeMs:   rt.config.TimeMs,
		},
	}
}

// Session evaluates successive inputs against one persistent root scope.
type Session struct {
	rt *Runtime
	ev *evaluator.Evaluator
	n  int
}

// NewSession starts a session with an empty root scope.
func (rt *Runtime) NewSession() *Session {
	return &Session{rt: rt, ev: evaluator.New(nil, rt.evalOptions())}
}

// Eval evaluates source and returns the value of its last top-level form,
// or nil when that form contributed nothing. Definitions made at the top
// level stay visible to later calls, including after an evaluation error.
func (s *Session) Eval(ctx context.Context, source string) (*ast.Node, error) {
	s.n++
	root, err := s.rt.prepare(source, fmt.Sprintf("<repl:%d>", s.n))
	if err != nil {
		return nil, err
	}
	s.ev.Load(root)
	if err := s.ev.Run(ctx); err != nil {
		return nil, err
	}
	return s.ev.LastValue(), nil
}

// Definitions returns the names defined at the top level, sorted.
func (s *Session) Definitions() []string {
	fns := s.ev.Chain().Entries(0)
	names := make([]string, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
	}
	return names
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
