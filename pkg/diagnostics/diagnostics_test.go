package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/token"
)

func TestMakeDiag(t *testing.T) {
	span := &token.Span{File: "test.pn", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unmatched ')'", span, "check brackets")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unmatched ')'" {
		t.Errorf("got Message = %q, want %q", d.Message, "unmatched ')'")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &token.Span{File: "test.pn", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnknownOp, "unknown operator 'ad'", span, "did you mean 'add'?")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNKNOWN_OP]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.pn:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad character", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
	if strings.Contains(out, `"span"`) {
		t.Errorf("nil span should be omitted, got: %s", out)
	}
}

func TestFormatDiagnosticsJoin(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EDef, "first", nil, ""),
		diagnostics.MakeDiag(diagnostics.EDef, "second", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	if strings.Count(out, "error[E_DEF]") != 2 {
		t.Errorf("expected two formatted diagnostics, got: %s", out)
	}
}
