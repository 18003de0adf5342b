// Package formatter renders paren syntax trees back to source text.
package formatter

import (
	"strings"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/token"
)

// DefaultIndent is one indentation unit of the pretty printer.
const DefaultIndent = "\t"

type cursor struct {
	node *ast.Node
	next int
}

// Format pretty-prints a tree with tab indentation.
func Format(root *ast.Node) string {
	return FormatIndent(root, DefaultIndent)
}

// FormatIndent pretty-prints a tree in the evaluator's traversal order: one
// line per token, an opening bracket on its own line before its children, the
// matching closing bracket once the frame has no children left, and one
// indentation unit per stack depth. The tree is not modified.
func FormatIndent(root *ast.Node, indent string) string {
	var b strings.Builder
	stack := []cursor{{node: root}}
	if !root.IsRoot() {
		stack = []cursor{{node: ast.NewRoot()}}
		writeOpen(&b, root, 0, indent)
		if root.IsAggregate() {
			stack = append(stack, cursor{node: root})
		}
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		depth := len(stack) - 1
		if top.next < top.node.Len() {
			child := top.node.Children[top.next]
			top.next++
			writeOpen(&b, child, depth, indent)
			if child.IsAggregate() {
				stack = append(stack, cursor{node: child})
			}
			continue
		}
		stack = stack[:len(stack)-1]
		if top.node.IsAggregate() {
			writeIndent(&b, depth-1, indent)
			b.WriteString(closer(top.node))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func writeOpen(b *strings.Builder, n *ast.Node, depth int, indent string) {
	writeIndent(b, depth, indent)
	if n.IsAggregate() {
		b.WriteString(n.Text())
	} else {
		b.WriteString(Literal(n))
	}
	b.WriteByte('\n')
}

func writeIndent(b *strings.Builder, depth int, indent string) {
	for i := 0; i < depth; i++ {
		b.WriteString(indent)
	}
}

func closer(n *ast.Node) string {
	if n.IsList() {
		return ">"
	}
	return ")"
}

// Compact renders every top-level form of root on its own line.
func Compact(root *ast.Node) string {
	if !root.IsRoot() {
		return Inline(root) + "\n"
	}
	var b strings.Builder
	for _, child := range root.Children {
		b.WriteString(Inline(child))
		b.WriteByte('\n')
	}
	return b.String()
}

// Inline renders n on a single line in source syntax.
func Inline(n *ast.Node) string {
	if !n.IsAggregate() && !n.IsRoot() {
		return Literal(n)
	}
	var b strings.Builder
	stack := []cursor{{node: n}}
	if !n.IsRoot() {
		b.WriteString(n.Text())
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < top.node.Len() {
			child := top.node.Children[top.next]
			if top.next > 0 {
				b.WriteByte(' ')
			}
			top.next++
			if child.IsAggregate() {
				b.WriteString(child.Text())
				stack = append(stack, cursor{node: child})
			} else {
				b.WriteString(Literal(child))
			}
			continue
		}
		stack = stack[:len(stack)-1]
		if !top.node.IsRoot() {
			b.WriteString(closer(top.node))
		}
	}
	return b.String()
}

// Literal renders a leaf in source syntax; strings are quoted and escaped
// so the lexer reads them back unchanged.
func Literal(n *ast.Node) string {
	if n.Type() == token.String {
		return Quote(n.Text())
	}
	return n.Text()
}

// Quote wraps s in double quotes using the lexer's escape rules.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
