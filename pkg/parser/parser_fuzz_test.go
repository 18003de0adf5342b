package parser_test

import (
	"testing"

	"github.com/thomasrohde/paren/pkg/parser"
)

// FuzzParse feeds random source to the parser. It must never panic, and a
// successful parse must never also report diagnostics.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`(add 1 2 3)`,
		`(sub 10 2 3)`,
		`(println "a" <1 2 <3>>)`,
		`(set (name sq) (params x) (body (mult x x))) (println (sq 4))`,
		`(let (name y) (body 5))`,
		`((((`,
		`))`,
		`(>`,
		`<)`,
		`42`,
		``,
		"(add 1\n 2)",
		`"\"`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse panicked on input %q: %v", input, r)
			}
		}()
		root, diags := parser.Parse(input, "fuzz.pn")
		if root != nil && len(diags) > 0 {
			t.Fatalf("got both a tree and diagnostics for %q", input)
		}
		if root == nil && len(diags) == 0 {
			t.Fatalf("got neither a tree nor diagnostics for %q", input)
		}
	})
}
