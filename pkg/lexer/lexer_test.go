package lexer

import (
	"testing"

	"github.com/thomasrohde/paren/pkg/token"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []token.Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.pn")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that drops whitespace tokens for easier assertions
func mustTokenizeNoSpace(t *testing.T, source string) []token.Token {
	t.Helper()
	var out []token.Token
	for _, tok := range mustTokenize(t, source) {
		if tok.Type != token.Whitespace {
			out = append(out, tok)
		}
	}
	return out
}

func mustFail(t *testing.T, source string) *LexError {
	t.Helper()
	_, err := Tokenize(source, "test.pn")
	if err == nil {
		t.Fatalf("expected lex error for %q", source)
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	return le
}

func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %d", len(tokens))
	}
}

func TestBrackets(t *testing.T) {
	tokens := mustTokenize(t, "()<>")
	want := []token.Type{token.OpenGroup, token.CloseGroup, token.OpenList, token.CloseList}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d: got %v, want %v", i, tokens[i].Type, typ)
		}
	}
}

func TestCallForm(t *testing.T) {
	tokens := mustTokenizeNoSpace(t, `(add 1 2.5 "x")`)
	want := []struct {
		typ   token.Type
		value string
	}{
		{token.OpenGroup, "("},
		{token.OperatorName, "add"},
		{token.Number, "1"},
		{token.Number, "2.5"},
		{token.String, "x"},
		{token.CloseGroup, ")"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value {
			t.Errorf("token %d: got %v, want %v(%q)", i, tokens[i], w.typ, w.value)
		}
	}
}

func TestWhitespaceRunsCollapse(t *testing.T) {
	tokens := mustTokenize(t, "(a  \t\n b  c)")
	var spaces int
	for _, tok := range tokens {
		if tok.Type == token.Whitespace {
			spaces++
		}
	}
	if spaces != 2 {
		t.Errorf("expected 2 whitespace tokens, got %d", spaces)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"42", "42"},
		{"-7", "-7"},
		{"3.14", "3.14"},
		{".5", ".5"},
		{"-0.25", "-0.25"},
		{"5.", "5."},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenize(t, tt.input)
			if len(tokens) != 1 || tokens[0].Type != token.Number {
				t.Fatalf("expected one Number, got %v", tokens)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestNumberTerminatedByBracket(t *testing.T) {
	tokens := mustTokenize(t, "(add 1)")
	if tokens[len(tokens)-2].Value != "1" || tokens[len(tokens)-1].Type != token.CloseGroup {
		t.Errorf("unexpected tokens: %v", tokens)
	}
}

func TestMalformedNumbers(t *testing.T) {
	for _, input := range []string{"1.2.3", "1-2", "12a", "-", ".", "-."} {
		t.Run(input, func(t *testing.T) {
			mustFail(t, input)
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"a\rb"`, "a\rb"},
		{`"say \"hi\""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`"\q"`, "q"},
		{`"two words (and brackets)"`, "two words (and brackets)"},
		{`""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenize(t, tt.input)
			if len(tokens) != 1 || tokens[0].Type != token.String {
				t.Fatalf("expected one String, got %v", tokens)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	le := mustFail(t, `"abc`)
	if le.Diag.Code != "E_LEX" {
		t.Errorf("got code %q", le.Diag.Code)
	}
	mustFail(t, `"abc\`)
}

func TestIllegalCharacters(t *testing.T) {
	for _, input := range []string{"\x00", "(add\x00 1)", "ab\"c", `"a` + "\x00" + `"`} {
		mustFail(t, input)
	}
}

func TestSymbols(t *testing.T) {
	tokens := mustTokenizeNoSpace(t, "(println my-var x? +)")
	names := []string{"println", "my-var", "x?", "+"}
	for i, name := range names {
		tok := tokens[i+1]
		if tok.Type != token.OperatorName || tok.Value != name {
			t.Errorf("token %d: got %v, want symbol %q", i+1, tok, name)
		}
	}
}

func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoSpace(t, "(add\n  12)")
	num := tokens[2]
	if num.Span.StartLine != 2 || num.Span.StartCol != 3 {
		t.Errorf("got span %+v, want line 2 col 3", num.Span)
	}
	if num.Span.File != "test.pn" {
		t.Errorf("got file %q", num.Span.File)
	}
}

func TestErrorPosition(t *testing.T) {
	le := mustFail(t, "(add\n 1.2.3)")
	if le.Diag.Span == nil || le.Diag.Span.StartLine != 2 {
		t.Errorf("expected error on line 2, got %+v", le.Diag.Span)
	}
}

func TestIsUnterminated(t *testing.T) {
	_, err := Tokenize(`(print "abc`, "test.pn")
	if !IsUnterminated(err) {
		t.Errorf("expected unterminated string error, got %v", err)
	}
	_, err = Tokenize("(print 1.2.3)", "test.pn")
	if IsUnterminated(err) {
		t.Error("malformed number is not an unterminated string")
	}
}
