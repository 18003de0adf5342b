// Package help holds the reference text printed by "paren help".
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/paren/pkg/builtins"
)

// QUICKREF is printed by "paren help" with no topic.
const QUICKREF = `paren v0.1 quick reference

  (op arg ...)        call: operator then arguments
  <item ...>          list literal; items are evaluated
  ((a) (b))           block: evaluates to its last value
  42  -1.5  "text"    number and string literals

  (set (name f) (params x) (body (mult x x)))   define or rebind a function
  (let (name x) (body 10))                      bind in the current scope

Commands: run, check, fmt, repl, trace, config, help
Topics:   syntax, builtins, definitions, config, diagnostics, examples

Run "paren help <topic>" for details, "paren help builtins --index" for a list.
`

// TopicList is the display order of the help topics.
var TopicList = []string{"syntax", "builtins", "definitions", "config", "diagnostics", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `Syntax

A program is a sequence of top-level forms. Every form is a group ( ... )
or a list < ... >; a bare literal at the top level is a parse error.

  (op a b)     call; op is a bare symbol
  <1 2 3>      list; stays a value after its items are evaluated
  ((x) (y))    block; a group whose first child is not a symbol
  -12  3.5  .5 numbers; at most one dot, optional leading minus
  "a\tb\n"     strings; escapes \n \t \r, any other escaped char is literal

Whitespace (space, tab, CR, LF) separates tokens. There are no comments.
`,
	"builtins": `Builtins

  print a ...      write each argument's text
  println a ...    write each argument's text followed by a newline
  add a ...        sum, starting at 0
  mult a ...       product, starting at 1
  sub a b ...      a minus the rest; needs one operand
  div a b ...      a divided by the rest; needs one operand
  apply op a <l>   call op with a and the items of l; op may be a string

Arithmetic stays integral until a float operand appears. Float results are
always written with a fractional digit, e.g. 3.0. Integer division truncates.
`,
	"definitions": `Definitions

  (set (name f) (params a b) (body form ...))
      Rebinds the nearest visible f in place, or defines f in the current
      scope when none is visible.

  (let (name x) (body form ...))
      Binds x in the current scope. let takes no params.

Calling (f 1 2) evaluates the arguments, then replaces the call with
parameter bindings followed by a fresh copy of the body. A bare symbol that
names a definition is a call with no arguments. Definitions contribute no
value and live until the enclosing group completes.
`,
	"config": `Configuration

paren reads .paren.yaml in the working directory, else ~/.paren/config.yaml.

  unknownOperator: ignore   # ignore | warn | error
  arity: strict             # strict | lenient
  maxSteps: 0               # 0 = unlimited
  timeMs: 0                 # 0 = unlimited
  tabWidth: 0               # 0 = tabs in paren fmt

Flags --unknown-op, --arity, --max-steps and --time-ms override the file.
"paren config" prints the effective settings.
`,
	"diagnostics": `Diagnostics

  E_LEX         illegal character or malformed literal          exit 2
  E_PARSE       unmatched bracket, literal at top level          exit 2
  E_INCOMPLETE  input ended inside an open group                 exit 2
  E_DEF         malformed set/let form or stray marker           exit 2/4
  E_TYPE        non-numeric operand to arithmetic                exit 4
  E_DIV_ZERO    division by zero                                 exit 4
  E_ARITY       wrong number of arguments                        exit 4
  E_UNKNOWN_OP  unknown operator with unknownOperator: error     exit 4
  E_BUDGET      step or time budget exceeded                     exit 4
  E_IO          cannot read input or write output                exit 1/4

Diagnostics are JSON by default; pass --pretty for text.
`,
	"examples": `Examples

  (println (add 1 2 3))
      6
  (println (div 7.0 2))
      3.5
  (set (name sq) (params x) (body (mult x x)))
  (println (sq 12))
      144
  (let (name greeting) (body "hello"))
  (println greeting)
      hello
  (println (apply add 1 <2 3>))
      6
`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[q]; ok {
		return q, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if q != "" && strings.HasPrefix(name, q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic '%s'", query)
	default:
		return "", "", fmt.Errorf("ambiguous help topic '%s': %s", query, strings.Join(matches, ", "))
	}
}

var builtinSummaries = map[string]string{
	"print":   "write arguments",
	"println": "write arguments, one per line",
	"add":     "sum",
	"mult":    "product",
	"sub":     "left-fold subtraction",
	"div":     "left-fold division",
	"apply":   "call with spread list",
}

// BuiltinIndex lists the builtins registered in reg.
func BuiltinIndex(reg *builtins.Registry) string {
	names := reg.Names()
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		summary := builtinSummaries[name]
		if summary == "" {
			summary = "-"
		}
		fmt.Fprintf(&b, "  %-8s %s\n", name, summary)
	}
	fmt.Fprintf(&b, "Total: %d builtins\n", len(names))
	return b.String()
}
