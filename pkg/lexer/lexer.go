// Package lexer implements the paren tokenizer as a character-level state machine.
//
// Each token starts from a first-character transition that fixes its kind;
// every following character is fed through the transition for that kind,
// which either keeps it, finishes the token, or rejects the input.
package lexer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/token"
)

type action int

const (
	actPass       action = iota // keep the character
	actSkip                     // consume without keeping
	actEscape                   // consume; the next character is escaped
	actFinish                   // keep the character and finish
	actFinishNew                // finish; the character starts the next token
	actFinishDrop               // consume without keeping and finish
	actFail
)

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isBracket(ch rune) bool {
	return ch == '(' || ch == ')' || ch == '<' || ch == '>'
}

func isDelimiter(ch rune) bool {
	return isSpace(ch) || isBracket(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func firstTransition(ch rune) (action, token.Type) {
	switch {
	case ch == 0:
		return actFail, token.Error
	case ch == '"':
		return actSkip, token.String
	case ch == '(':
		return actFinish, token.OpenGroup
	case ch == ')':
		return actFinish, token.CloseGroup
	case ch == '<':
		return actFinish, token.OpenList
	case ch == '>':
		return actFinish, token.CloseList
	case isSpace(ch):
		return actPass, token.Whitespace
	case isDigit(ch) || ch == '.' || ch == '-':
		return actPass, token.Number
	}
	return actPass, token.OperatorName
}

func transition(typ token.Type, lexed *strings.Builder, ch rune) action {
	switch typ {
	case token.Whitespace:
		if isSpace(ch) {
			return actPass
		}
		return actFinishNew
	case token.OperatorName:
		switch {
		case isDelimiter(ch):
			return actFinishNew
		case ch == 0 || ch == '"':
			return actFail
		}
		return actPass
	case token.Number:
		switch {
		case isDigit(ch):
			return actPass
		case ch == '.':
			if strings.ContainsRune(lexed.String(), '.') {
				return actFail
			}
			return actPass
		case isDelimiter(ch):
			return actFinishNew
		}
		return actFail
	case token.String:
		switch ch {
		case 0:
			return actFail
		case '\\':
			return actEscape
		case '"':
			return actFinishDrop
		}
		return actPass
	}
	return actFail
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	}
	return ch
}

const msgUnterminated = "unterminated string literal"

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// IsUnterminated reports whether err means the input ended inside a string
// literal, so that more input could complete it.
func IsUnterminated(err error) bool {
	var le *LexError
	if errors.As(err, &le) {
		return le.Diag.Message == msgUnterminated
	}
	return false
}

// Lexer produces tokens one at a time from source text.
type Lexer struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

// New creates a lexer over source.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peek() (rune, int) {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	return r, size
}

func (l *Lexer) advance(size int) {
	if l.source[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos += size
}

func (l *Lexer) span(startLine, startCol int) token.Span {
	return token.Span{
		File:      l.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

func (l *Lexer) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&token.Span{File: l.filename, StartLine: line, StartCol: col, EndLine: l.line, EndCol: l.col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

func describe(ch rune) string {
	switch ch {
	case 0:
		return "NUL"
	case '\n':
		return "newline"
	}
	return fmt.Sprintf("'%c'", ch)
}

// Next returns the next token, or io.EOF once the input is exhausted.
func (l *Lexer) Next() (token.Token, error) {
	if l.atEnd() {
		return token.Token{}, io.EOF
	}

	startLine, startCol := l.line, l.col
	ch, size := l.peek()
	if ch == utf8.RuneError && size == 1 {
		return token.Token{}, l.lexError(startLine, startCol, "invalid UTF-8 encoding")
	}

	act, typ := firstTransition(ch)
	var lexed strings.Builder
	switch act {
	case actFail:
		return token.Token{}, l.lexError(startLine, startCol, fmt.Sprintf("illegal character %s", describe(ch)))
	case actFinish:
		lexed.WriteRune(ch)
		l.advance(size)
		return l.finish(typ, lexed.String(), startLine, startCol)
	case actPass:
		lexed.WriteRune(ch)
	}
	l.advance(size)

	escaped := false
	for !l.atEnd() {
		ch, size = l.peek()
		if ch == utf8.RuneError && size == 1 {
			return token.Token{}, l.lexError(l.line, l.col, "invalid UTF-8 encoding")
		}
		if escaped {
			lexed.WriteRune(unescape(ch))
			escaped = false
			l.advance(size)
			continue
		}
		switch transition(typ, &lexed, ch) {
		case actPass:
			lexed.WriteRune(ch)
			l.advance(size)
		case actEscape:
			escaped = true
			l.advance(size)
		case actFinishNew:
			return l.finish(typ, lexed.String(), startLine, startCol)
		case actFinishDrop:
			l.advance(size)
			return l.finish(typ, lexed.String(), startLine, startCol)
		default:
			return token.Token{}, l.lexError(l.line, l.col,
				fmt.Sprintf("illegal character %s in %s", describe(ch), kindName(typ)))
		}
	}

	if typ == token.String {
		return token.Token{}, l.lexError(startLine, startCol, msgUnterminated)
	}
	return l.finish(typ, lexed.String(), startLine, startCol)
}

func (l *Lexer) finish(typ token.Type, lexed string, startLine, startCol int) (token.Token, error) {
	if typ == token.Number && !strings.ContainsAny(lexed, "0123456789") {
		return token.Token{}, l.lexError(startLine, startCol, fmt.Sprintf("malformed number %q", lexed))
	}
	return token.Token{
		Type:  typ,
		Value: lexed,
		Span:  l.span(startLine, startCol),
	}, nil
}

func kindName(typ token.Type) string {
	switch typ {
	case token.OperatorName:
		return "symbol"
	case token.Number:
		return "number"
	case token.String:
		return "string"
	}
	return strings.ToLower(typ.String())
}

// Tokenize breaks source code into a slice of tokens, whitespace included.
func Tokenize(source, filename string) ([]token.Token, error) {
	l := New(source, filename)
	var tokens []token.Token

	for {
		tok, err := l.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}
