// Package diagnostics defines paren diagnostic types for lex, parse and evaluation errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/paren/pkg/token"
)

// Diagnostic code constants.
const (
	ELex        = "E_LEX"
	EParse      = "E_PARSE"
	EIncomplete = "E_INCOMPLETE"
	EDef        = "E_DEF"
	EType       = "E_TYPE"
	EDivZero    = "E_DIV_ZERO"
	EArity      = "E_ARITY"
	EUnknownOp  = "E_UNKNOWN_OP"
	EBudget     = "E_BUDGET"
	EIO         = "E_IO"
)

// Diagnostic represents a lex, parse, validation or evaluation diagnostic.
type Diagnostic struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Span    *token.Span `json:"span,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *token.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
