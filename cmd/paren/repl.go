package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/paren/pkg/ast"
	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/formatter"
	"github.com/thomasrohde/paren/pkg/help"
	"github.com/thomasrohde/paren/pkg/lexer"
	"github.com/thomasrohde/paren/pkg/parser"
	"github.com/thomasrohde/paren/pkg/runtime"
)

const (
	historyFile = ".paren_history"
	promptMain  = "paren> "
	promptCont  = "  ...> "
)

const replHelp = `:help           show this text
:defs           list top-level definitions
:fmt <form>     pretty-print a form without evaluating it
:quit           leave the REPL
`

const replUsage = "usage: paren repl [--unknown-op ignore|warn|error] [--arity strict|lenient] [--max-steps n] [--time-ms n]"

func cmdRepl(args []string) int {
	var flags evalFlags
	for i := 0; i < len(args); i++ {
		next, ok, err := flags.parse(args, i)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			fmt.Fprintln(os.Stderr, replUsage)
			return 1
		}
		if ok {
			i = next
		}
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	rt := runtime.New(runtime.WithConfig(cfg), runtime.WithRunID("repl"))
	session := rt.NewSession()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(session))

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("paren REPL. Type :help for commands, Ctrl+D to exit.")
	ctx := context.Background()
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if done := handleReplCommand(rt, session, trimmed); done {
				break
			}
			continue
		}

		v, err := session.Eval(ctx, code)
		if err != nil {
			reportError(os.Stderr, err, true)
			continue
		}
		if v != nil {
			fmt.Println(showValue(v))
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// handleReplCommand handles :help, :defs, :fmt and :quit.
func handleReplCommand(rt *runtime.Runtime, s *runtime.Session, line string) (exit bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Print(replHelp)
		fmt.Print(help.QUICKREF)
	case ":quit", ":exit":
		return true
	case ":defs":
		for _, name := range s.Definitions() {
			fmt.Println(name)
		}
	case ":fmt":
		src := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		out, err := rt.Format(src, "<repl>")
		if err != nil {
			reportError(os.Stderr, err, true)
			return false
		}
		fmt.Print(out)
	default:
		fmt.Println("unknown command. Type :help for help.")
	}
	return false
}

// readByParseProbe reads lines until the buffer lexes and parses as complete
// input, or fails for a reason more input cannot fix.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C aborts the current input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}

// needsMore reports whether src stops inside an open group or string.
func needsMore(src string) bool {
	tokens, err := lexer.Tokenize(src, "<repl>")
	if err != nil {
		return lexer.IsUnterminated(err)
	}
	_, err = parser.ParseTokens(tokens)
	return parser.IsIncomplete(err)
}

// completer offers builtin and defined names for the word under the cursor.
func completer(s *runtime.Session) liner.Completer {
	return func(line string) []string {
		start := strings.LastIndexAny(line, " \t(<") + 1
		prefix := line[start:]
		if prefix == "" {
			return nil
		}
		names := append(builtins.Default().Names(), s.Definitions()...)
		var out []string
		for _, name := range names {
			if strings.HasPrefix(name, prefix) {
				out = append(out, line[:start]+name)
			}
		}
		return out
	}
}

// showValue renders a REPL result in source syntax.
func showValue(v *ast.Node) string {
	return "=> " + formatter.Inline(v)
}
