// Package token defines the lexical tokens shared by the lexer, parser and evaluator.
package token

import "fmt"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Type identifies the kind of a token.
type Type int

const (
	OpenGroup    Type = iota // (
	CloseGroup               // )
	OpenList                 // <
	CloseList                // >
	OperatorName             // bare symbol
	Number
	String
	Whitespace
	Empty
	Error
)

var typeNames = [...]string{
	OpenGroup:    "OpenGroup",
	CloseGroup:   "CloseGroup",
	OpenList:     "OpenList",
	CloseList:    "CloseList",
	OperatorName: "OperatorName",
	Number:       "Number",
	String:       "String",
	Whitespace:   "Whitespace",
	Empty:        "Empty",
	Error:        "Error",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsOpen reports whether t opens a group or a list.
func (t Type) IsOpen() bool {
	return t == OpenGroup || t == OpenList
}

// IsClose reports whether t closes a group or a list.
func (t Type) IsClose() bool {
	return t == CloseGroup || t == CloseList
}

// IsLiteral reports whether t is a leaf token kept in the tree.
func (t Type) IsLiteral() bool {
	return t == OperatorName || t == Number || t == String
}

// MatchingClose returns the closing kind required by an opening kind.
func (t Type) MatchingClose() (Type, bool) {
	switch t {
	case OpenGroup:
		return CloseGroup, true
	case OpenList:
		return CloseList, true
	}
	return Empty, false
}

// Token is a single finalized lexer token. Value holds the lexeme; for
// strings it is the unescaped content without quotes.
type Token struct {
	Type  Type
	Value string
	Span  Span
}

// New creates a token without position information, as used for
// synthesized tree nodes.
func New(typ Type, value string) Token {
	return Token{Type: typ, Value: value}
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}
