// Package scope implements the lexical scope chain and function table.
//
// Scope frames live in an arena and are addressed by integer id. Each frame
// keeps its function entries sorted by name and records the id of its parent.
// The chain has a cursor naming the current frame; entering a group pushes a
// frame below the cursor and leaving it pops back to the parent. Because
// frames follow stack discipline the arena is truncated on pop.
package scope

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/paren/pkg/ast"
)

// ID addresses a frame in the arena.
type ID int

// None is the parent id of the root frame.
const None ID = -1

// Function is a name-keyed (params, body) pair used for call-site
// substitution. Params is a group whose children are the formal parameter
// symbols; Body is a group whose children are the body forms.
type Function struct {
	Name   string
	Params *ast.Node
	Body   *ast.Node
}

// NewFunction creates a function entry. Nil params or body become empty groups.
func NewFunction(name string, params, body *ast.Node) *Function {
	if params == nil {
		params = ast.Group()
	}
	if body == nil {
		body = ast.Group()
	}
	return &Function{Name: name, Params: params, Body: body}
}

// ParamNames returns the formal parameter names.
func (f *Function) ParamNames() []string {
	names := make([]string, 0, f.Params.Len())
	for _, p := range f.Params.Children {
		names = append(names, p.Text())
	}
	return names
}

// Reset overwrites params and body without changing the key or the entry's
// position in its frame.
func Reset(f *Function, params, body *ast.Node) {
	if params == nil {
		params = ast.Group()
	}
	if body == nil {
		body = ast.Group()
	}
	f.Params = params
	f.Body = body
}

type frame struct {
	parent ID
	funcs  []*Function
}

// Chain is an arena of scope frames plus the current-frame cursor.
type Chain struct {
	frames []frame
	cur    ID
}

// NewChain creates a chain holding only the root frame.
func NewChain() *Chain {
	return &Chain{
		frames: []frame{{parent: None}},
		cur:    0,
	}
}

// Current returns the id of the current frame.
func (c *Chain) Current() ID {
	return c.cur
}

// Depth returns the number of frames between the current frame and the
// root, counting both.
func (c *Chain) Depth() int {
	d := 0
	for id := c.cur; id != None; id = c.frames[id].parent {
		d++
	}
	return d
}

// Push creates a frame below the current one and makes it current.
func (c *Chain) Push() ID {
	c.frames = append(c.frames, frame{parent: c.cur})
	c.cur = ID(len(c.frames) - 1)
	return c.cur
}

// Pop discards the current frame and makes its parent current. The root
// frame cannot be popped.
func (c *Chain) Pop() error {
	if c.cur == 0 {
		return fmt.Errorf("scope: cannot pop the root frame")
	}
	parent := c.frames[c.cur].parent
	if int(c.cur) == len(c.frames)-1 {
		c.frames[c.cur] = frame{}
		c.frames = c.frames[:c.cur]
	}
	c.cur = parent
	return nil
}

// Truncate pops frames until the current frame is id. It is used to unwind
// after an aborted evaluation.
func (c *Chain) Truncate(id ID) {
	for c.cur != id && c.cur > 0 {
		_ = c.Pop()
	}
}

func (f *frame) search(name string) (int, bool) {
	i := sort.Search(len(f.funcs), func(i int) bool {
		return f.funcs[i].Name >= name
	})
	return i, i < len(f.funcs) && f.funcs[i].Name == name
}

// Insert adds fn to the current frame only if no visible entry anywhere in
// the chain already has that name. It reports whether fn was inserted.
func (c *Chain) Insert(fn *Function) bool {
	if c.Find(fn.Name) != nil {
		return false
	}
	c.InsertUnconditional(fn)
	return true
}

// InsertUnconditional adds fn to the current frame in sorted position without
// searching the chain. The caller must already know that the name is new to
// the current frame.
func (c *Chain) InsertUnconditional(fn *Function) {
	f := &c.frames[c.cur]
	i, _ := f.search(fn.Name)
	f.funcs = append(f.funcs, nil)
	copy(f.funcs[i+1:], f.funcs[i:])
	f.funcs[i] = fn
}

// Find binary-searches the current frame, then each parent in turn, and
// returns a mutable handle to the first entry named name, or nil.
func (c *Chain) Find(name string) *Function {
	fn, _ := c.FindFrame(name)
	return fn
}

// FindFrame is like Find but also returns the id of the frame holding the
// entry, or None.
func (c *Chain) FindFrame(name string) (*Function, ID) {
	for id := c.cur; id != None; id = c.frames[id].parent {
		f := &c.frames[id]
		if i, ok := f.search(name); ok {
			return f.funcs[i], id
		}
	}
	return nil, None
}

// FindLocal searches only the current frame.
func (c *Chain) FindLocal(name string) *Function {
	f := &c.frames[c.cur]
	if i, ok := f.search(name); ok {
		return f.funcs[i]
	}
	return nil
}

// Len returns the number of entries in frame id.
func (c *Chain) Len(id ID) int {
	if id < 0 || int(id) >= len(c.frames) {
		return 0
	}
	return len(c.frames[id].funcs)
}

// Entries returns the entries of frame id in table order.
func (c *Chain) Entries(id ID) []*Function {
	if id < 0 || int(id) >= len(c.frames) {
		return nil
	}
	out := make([]*Function, len(c.frames[id].funcs))
	copy(out, c.frames[id].funcs)
	return out
}

// Visible returns every name that resolves from the current frame,
// innermost first, without duplicates.
func (c *Chain) Visible() []string {
	seen := make(map[string]bool)
	var names []string
	for id := c.cur; id != None; id = c.frames[id].parent {
		for _, fn := range c.frames[id].funcs {
			if !seen[fn.Name] {
				seen[fn.Name] = true
				names = append(names, fn.Name)
			}
		}
	}
	return names
}
