package builtins

import (
	"io"
	"strings"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/formatter"
)

// Text returns the literal text of an evaluated node: a number's lexeme, a
// string's content, a symbol's name, or a list's inline form.
func Text(n *ast.Node) string {
	if n.IsAggregate() {
		return formatter.Inline(n)
	}
	return n.Text()
}

// print writes each argument's text in order.
func builtinPrint(call *Call) Result {
	var b strings.Builder
	for _, arg := range call.Args {
		b.WriteString(Text(arg))
	}
	return write(call, b.String())
}

// println writes each argument's text followed by a newline.
func builtinPrintln(call *Call) Result {
	var b strings.Builder
	for _, arg := range call.Args {
		b.WriteString(Text(arg))
		b.WriteByte('\n')
	}
	return write(call, b.String())
}

func write(call *Call, s string) Result {
	if call.Out == nil || s == "" {
		return Result{Action: Ignore}
	}
	if _, err := io.WriteString(call.Out, s); err != nil {
		return failed(fail(diagnostics.EIO, "%s: %v", call.Name, err))
	}
	return Result{Action: Ignore}
}
