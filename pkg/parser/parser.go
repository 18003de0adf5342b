// Package parser implements the paren shift-reduce parser.
//
// Tokens are fed one at a time. Opening brackets shift a new node onto the
// stack, closing brackets reduce the top node into its parent, and literals
// are appended to the node on top. A program is complete when the stack has
// collapsed back to the synthetic root.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/lexer"
	"github.com/thomasrohde/paren/pkg/token"
)

// ParseError wraps a diagnostic for parse errors.
type ParseError struct {
	Diag diagnostics.Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// IsIncomplete reports whether err means the input ended inside an open
// group or list, so that more input could complete it.
func IsIncomplete(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Diag.Code == diagnostics.EIncomplete
	}
	return false
}

// Parser is a shift-reduce parser over a stack of partially built nodes.
type Parser struct {
	stack  []*ast.Node
	failed bool
}

// New creates a parser whose stack holds only the synthetic root.
func New() *Parser {
	return &Parser{stack: []*ast.Node{ast.NewRoot()}}
}

// Push feeds one token. On error the parser discards its state and every
// later call fails.
func (p *Parser) Push(tok token.Token) error {
	if p.failed {
		return p.fail("parser is in a failed state", tok.Span)
	}
	switch tok.Type {
	case token.OpenGroup, token.OpenList:
		p.stack = append(p.stack, ast.New(tok))
		return nil
	case token.CloseGroup, token.CloseList:
		return p.close(tok)
	case token.OperatorName, token.Number, token.String:
		return p.literal(tok)
	case token.Whitespace:
		return nil
	}
	return p.fail(fmt.Sprintf("unexpected %s token", tok.Type), tok.Span)
}

func (p *Parser) close(tok token.Token) error {
	if len(p.stack) < 2 {
		return p.fail(fmt.Sprintf("unmatched '%s'", tok.Value), tok.Span)
	}
	child := p.stack[len(p.stack)-1]
	want, _ := child.Type().MatchingClose()
	if want != tok.Type {
		open := child.Span()
		return p.fail(
			fmt.Sprintf("mismatched '%s' closing '%s' opened at %d:%d", tok.Value, child.Text(), open.StartLine, open.StartCol),
			tok.Span,
		)
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.stack[len(p.stack)-1].Push(child)
	return nil
}

func (p *Parser) literal(tok token.Token) error {
	top := p.stack[len(p.stack)-1]
	if top.IsRoot() {
		return p.fail(fmt.Sprintf("literal %q outside a call context", tok.Value), tok.Span)
	}
	top.Push(ast.New(tok))
	return nil
}

func (p *Parser) fail(msg string, span token.Span) error {
	p.failed = true
	p.stack = nil
	s := span
	return &ParseError{Diag: diagnostics.MakeDiag(diagnostics.EParse, msg, &s, "")}
}

// Depth returns the number of open groups and lists.
func (p *Parser) Depth() int {
	if len(p.stack) == 0 {
		return 0
	}
	return len(p.stack) - 1
}

// Done reports whether the stack has collapsed to exactly the root.
func (p *Parser) Done() bool {
	return !p.failed && len(p.stack) == 1
}

// Tree returns the parsed root once Done, or an incomplete-input error
// naming the innermost unclosed bracket.
func (p *Parser) Tree() (*ast.Node, error) {
	if p.Done() {
		root := p.stack[0]
		p.stack = nil
		p.failed = true
		return root, nil
	}
	if p.failed {
		return nil, &ParseError{Diag: diagnostics.MakeDiag(diagnostics.EParse, "no tree: parsing failed", nil, "")}
	}
	open := p.stack[len(p.stack)-1]
	span := open.Span()
	return nil, &ParseError{Diag: diagnostics.MakeDiag(
		diagnostics.EIncomplete,
		fmt.Sprintf("unclosed '%s'", open.Text()),
		&span,
		fmt.Sprintf("%d bracket(s) left open", p.Depth()),
	)}
}

// Parse tokenizes source and parses it into a rooted tree. The whole input
// is lexed before parsing begins, so a lex error always wins.
func Parse(source, filename string) (*ast.Node, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	root, err := ParseTokens(tokens)
	if err != nil {
		return nil, []diagnostics.Diagnostic{err.(*ParseError).Diag}
	}
	return root, nil
}

// ParseTokens parses an already lexed token sequence.
func ParseTokens(tokens []token.Token) (*ast.Node, error) {
	p := New()
	for _, tok := range tokens {
		if err := p.Push(tok); err != nil {
			return nil, err
		}
	}
	return p.Tree()
}
