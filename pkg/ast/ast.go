// Package ast defines the paren syntax tree.
//
// Every node optionally carries a token payload and owns an ordered list of
// children. Only the synthetic root has no payload. Groups and lists carry
// their opening token; literals carry their own token and have no children.
// Nodes are never shared: moving a subtree detaches it from its old parent.
package ast

import (
	"github.com/thomasrohde/paren/pkg/token"
)

// Node is a tree node.
type Node struct {
	Token    *token.Token
	Children []*Node
}

// NewRoot creates the payload-less root node.
func NewRoot() *Node {
	return &Node{}
}

// New creates a node carrying tok.
func New(tok token.Token) *Node {
	return &Node{Token: &tok}
}

// Group builds a parenthesized group from children.
func Group(children ...*Node) *Node {
	n := New(token.New(token.OpenGroup, "("))
	n.Children = children
	return n
}

// List builds an angle-bracket list from items.
func List(items ...*Node) *Node {
	n := New(token.New(token.OpenList, "<"))
	n.Children = items
	return n
}

// Symbol builds an operator-name leaf.
func Symbol(name string) *Node {
	return New(token.New(token.OperatorName, name))
}

// Number builds a numeric leaf from its lexeme.
func Number(text string) *Node {
	return New(token.New(token.Number, text))
}

// String builds a string leaf from its unescaped content.
func String(s string) *Node {
	return New(token.New(token.String, s))
}

// Type returns the payload kind, or token.Empty for the root.
func (n *Node) Type() token.Type {
	if n.Token == nil {
		return token.Empty
	}
	return n.Token.Type
}

// Text returns the payload lexeme, or "" for the root.
func (n *Node) Text() string {
	if n.Token == nil {
		return ""
	}
	return n.Token.Value
}

// Span returns the payload span, or the zero span for the root.
func (n *Node) Span() token.Span {
	if n.Token == nil {
		return token.Span{}
	}
	return n.Token.Span
}

func (n *Node) IsRoot() bool { return n.Token == nil }
func (n *Node) IsGroup() bool { return n.Type() == token.OpenGroup }
func (n *Node) IsList() bool { return n.Type() == token.OpenList }
func (n *Node) IsSymbol() bool { return n.Type() == token.OperatorName }
func (n *Node) IsNumber() bool { return n.Type() == token.Number }
func (n *Node) IsStringLit() bool { return n.Type() == token.String }

// IsAggregate reports whether n is a group or a list.
func (n *Node) IsAggregate() bool {
	return n.IsGroup() || n.IsList()
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.Children)
}

// Child returns child i, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Operator returns the operator name of a call group: the text of its first
// child when that child is a symbol.
func (n *Node) Operator() (string, bool) {
	if !n.IsGroup() || len(n.Children) == 0 || !n.Children[0].IsSymbol() {
		return "", false
	}
	return n.Children[0].Text(), true
}

// Push appends child.
func (n *Node) Push(child *Node) {
	n.Children = append(n.Children, child)
}

// Detach removes child i and returns it.
func (n *Node) Detach(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	child := n.Children[i]
	copy(n.Children[i:], n.Children[i+1:])
	n.Children[len(n.Children)-1] = nil
	n.Children = n.Children[:len(n.Children)-1]
	return child
}

// Insert places child at index i, shifting later children right. It reports
// false when i is beyond the end.
func (n *Node) Insert(child *Node, i int) bool {
	if i < 0 || i > len(n.Children) {
		return false
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
	return true
}

// Replace swaps child i for child and returns the old one.
func (n *Node) Replace(i int, child *Node) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	old := n.Children[i]
	n.Children[i] = child
	return old
}

// DumpChildren removes and returns all children.
func (n *Node) DumpChildren() []*Node {
	children := n.Children
	n.Children = nil
	return children
}

// Clone returns a deep copy of n. The copy is built with an explicit stack so
// deep trees do not consume native stack frames.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	type pair struct{ src, dst *Node }
	root := n.shallow()
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(p.src.Children) == 0 {
			continue
		}
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, c := range p.src.Children {
			cp := c.shallow()
			p.dst.Children[i] = cp
			stack = append(stack, pair{c, cp})
		}
	}
	return root
}

// CloneChildren returns deep copies of n's children.
func (n *Node) CloneChildren() []*Node {
	out := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.Clone()
	}
	return out
}

func (n *Node) shallow() *Node {
	cp := &Node{}
	if n.Token != nil {
		tok := *n.Token
		cp.Token = &tok
	}
	return cp
}

// Equal reports whether a and b have the same shape, token kinds and lexemes.
// Spans are ignored.
func Equal(a, b *Node) bool {
	type pair struct{ a, b *Node }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if (p.a == nil) != (p.b == nil) {
			return false
		}
		if p.a == nil {
			continue
		}
		if (p.a.Token == nil) != (p.b.Token == nil) {
			return false
		}
		if p.a.Token != nil && (p.a.Token.Type != p.b.Token.Type || p.a.Token.Value != p.b.Token.Value) {
			return false
		}
		if len(p.a.Children) != len(p.b.Children) {
			return false
		}
		for i := range p.a.Children {
			stack = append(stack, pair{p.a.Children[i], p.b.Children[i]})
		}
	}
	return true
}
