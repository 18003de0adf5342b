// Command paren is the paren interpreter CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thomasrohde/paren/pkg/builtins"
	"github.com/thomasrohde/paren/pkg/config"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/evaluator"
	"github.com/thomasrohde/paren/pkg/help"
	"github.com/thomasrohde/paren/pkg/runtime"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: paren <command> [options]")
		fmt.Fprintln(os.Stderr, "commands: run, check, fmt, repl, trace, config, help")
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

// evalFlags are the configuration overrides shared by run and repl.
type evalFlags struct {
	unknownOp string
	arity     string
	maxSteps  string
	timeMs    string
}

// parse consumes args[i] (and its value) when it is an override flag. A flag
// with no value, or followed by another flag, is an error.
func (f *evalFlags) parse(args []string, i int) (int, bool, error) {
	var dst *string
	switch args[i] {
	case "--unknown-op":
		dst = &f.unknownOp
	case "--arity":
		dst = &f.arity
	case "--max-steps":
		dst = &f.maxSteps
	case "--time-ms":
		dst = &f.timeMs
	default:
		return i, false, nil
	}
	if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
		return i, true, fmt.Errorf("%s requires a value", args[i])
	}
	*dst = args[i+1]
	return i + 1, true, nil
}

// loadConfig loads the config files and applies flag overrides.
func loadConfig(flags evalFlags) (*config.Config, error) {
	cfg, _, err := config.Load(mustGetwd())
	if err != nil {
		return nil, err
	}
	if flags.unknownOp != "" {
		cfg.UnknownOperator = flags.unknownOp
	}
	if flags.arity != "" {
		cfg.Arity = flags.arity
	}
	if flags.maxSteps != "" {
		n, err := strconv.ParseInt(flags.maxSteps, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--max-steps: %w", err)
		}
		cfg.MaxSteps = n
	}
	if flags.timeMs != "" {
		n, err := strconv.ParseInt(flags.timeMs, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--time-ms: %w", err)
		}
		cfg.TimeMs = n
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const runUsage = "usage: paren run <file|-> [--pretty] [--trace-out <file.jsonl>] [--unknown-op ignore|warn|error] [--arity strict|lenient] [--max-steps n] [--time-ms n]"

func cmdRun(args []string) int {
	var file string
	pretty := false
	traceOut := ""
	var flags evalFlags

	for i := 0; i < len(args); i++ {
		next, ok, err := flags.parse(args, i)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			fmt.Fprintln(os.Stderr, runUsage)
			return 1
		}
		if ok {
			i = next
			continue
		}
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--trace-out":
			if i+1 < len(args) {
				i++
				traceOut = args[i]
			}
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, runUsage)
		return 1
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	opts := []runtime.Option{runtime.WithConfig(cfg)}
	if traceOut != "" {
		tw, err := newTraceWriter(traceOut)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot create trace file: %s", traceOut), nil, "")
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
			return 1
		}
		defer tw.Close()
		opts = append(opts,
			runtime.WithTrace(tw.Write),
			runtime.WithRunID(fmt.Sprintf("run-%d", time.Now().UnixNano())))
	}
	rt := runtime.New(opts...)

	_, runErr := rt.Run(context.Background(), source, filename)
	if runErr != nil {
		return reportError(os.Stderr, runErr, pretty)
	}
	return 0
}

// reportError writes err to w as diagnostics and returns the exit code.
func reportError(w io.Writer, err error, pretty bool) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(w, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return 2
	}
	var evalErr *evaluator.EvalError
	if errors.As(err, &evalErr) {
		fmt.Fprintln(w, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{evalErr.Diag}, pretty))
		return 4
	}
	fmt.Fprintln(w, err.Error())
	return 4
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: paren check <file> [--pretty]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return 2
	}

	// Valid program
	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: paren fmt <file> [--write]")
		return 1
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	cfg, err := loadConfig(evalFlags{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	rt := runtime.New(runtime.WithConfig(cfg))
	formatted, fmtErr := rt.Format(source, filename)
	if fmtErr != nil {
		return reportError(os.Stderr, fmtErr, false)
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return 1
		}
	} else {
		fmt.Print(formatted)
	}

	return 0
}

func cmdConfig(args []string) int {
	cfg, src, err := config.Load(mustGetwd())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	out, err := cfg.YAML()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if src == "" {
		src = "defaults"
	}
	fmt.Printf("# source: %s\n%s", src, out)
	return 0
}

func cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "" && topic != "builtins" {
			fmt.Fprintf(os.Stderr, "error: --index is only supported for the builtins topic\n")
			return 1
		}
		fmt.Print(help.BuiltinIndex(builtins.Default()))
		return 0
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Print(content)
	return 0
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		// Read from stdin
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
