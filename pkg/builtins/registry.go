package builtins

import (
	"io"
	"sort"

	"github.com/thomasrohde/paren/pkg/ast"
)

// Call is a fully expanded call handed to a builtin.
type Call struct {
	Name string
	Args []*ast.Node
	// Node is the whole call group; builtins returning Insert rewrite it.
	Node *ast.Node
	Out  io.Writer
}

// Fn represents a builtin operator.
type Fn struct {
	Name    string
	Execute func(call *Call) Result
}

// Registry holds registered builtins.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a builtin to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a builtin by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered builtins.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a fully expanded call node to its builtin. Operators that
// match no builtin yield Ignore with Unknown set; the caller decides whether
// that is acceptable.
func (r *Registry) Dispatch(node *ast.Node, out io.Writer) Result {
	name, ok := node.Operator()
	if !ok {
		return Result{Action: Ignore, Unknown: true}
	}
	fn := r.fns[name]
	if fn == nil {
		return Result{Action: Ignore, Unknown: true}
	}
	return fn.Execute(&Call{
		Name: name,
		Args: node.Children[1:],
		Node: node,
		Out:  out,
	})
}

// Default returns a registry with every builtin registered.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults adds all builtins.
func RegisterDefaults(r *Registry) {
	// Output
	r.Register(Fn{Name: "print", Execute: builtinPrint})
	r.Register(Fn{Name: "println", Execute: builtinPrintln})

	// Arithmetic
	r.Register(Fn{Name: "add", Execute: builtinAdd})
	r.Register(Fn{Name: "mult", Execute: builtinMult})
	r.Register(Fn{Name: "sub", Execute: builtinSub})
	r.Register(Fn{Name: "div", Execute: builtinDiv})

	// Rewriting
	r.Register(Fn{Name: "apply", Execute: builtinApply})
}
