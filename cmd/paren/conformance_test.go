package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/paren/internal/testutil"
	"github.com/thomasrohde/paren/pkg/config"
	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/formatter"
	"github.com/thomasrohde/paren/pkg/runtime"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}

			source, filename, err := testutil.ReadProgramFile(dir, scenario)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			cfg := config.Default()
			if scenario.Config != "" {
				cfg, err = config.Parse([]byte(scenario.Config))
				if err != nil {
					t.Fatalf("invalid scenario config: %v", err)
				}
			}

			pretty := false
			for _, arg := range scenario.Cmd {
				if arg == "--pretty" {
					pretty = true
				}
			}

			var stdout, stderr bytes.Buffer
			rt := runtime.New(
				runtime.WithConfig(cfg),
				runtime.WithStdout(&stdout),
				runtime.WithLogger(log.New(&stderr, "paren: ", 0)),
				runtime.WithRunID("test"),
			)

			var exit int
			var result *runtime.Result
			switch scenario.Cmd[0] {
			case "run":
				var runErr error
				result, runErr = rt.Run(context.Background(), source, filename)
				if runErr != nil {
					exit = reportError(&stderr, runErr, pretty)
				}
			case "check":
				exit = runCheckScenario(rt, source, filename, pretty, &stdout, &stderr)
			case "fmt":
				formatted, fmtErr := rt.Format(source, filename)
				if fmtErr != nil {
					exit = reportError(&stderr, fmtErr, false)
				} else {
					stdout.WriteString(formatted)
				}
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}

			if exit != scenario.Expect.ExitCode {
				t.Errorf("exit code: got %d, want %d (stderr: %s)", exit, scenario.Expect.ExitCode, stderr.String())
			}
			checkStdoutExpectations(t, stdout.String(), scenario)
			checkStderrExpectations(t, stderr.String(), scenario)
			checkValueExpectation(t, result, scenario)
		})
	}
}

func runCheckScenario(rt *runtime.Runtime, source, filename string, pretty bool, stdout, stderr *bytes.Buffer) int {
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return 2
	}
	if pretty {
		fmt.Fprintln(stdout, "No errors found.")
	} else {
		fmt.Fprintln(stdout, "[]")
	}
	return 0
}

func checkStdoutExpectations(t *testing.T, stdout string, scenario *testutil.Scenario) {
	t.Helper()

	if want := scenario.Expect.StdoutText; want != nil && stdout != *want {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout, *want)
	}
	if want := scenario.Expect.StdoutContains; want != "" && !strings.Contains(stdout, want) {
		t.Errorf("stdout should contain %q, got: %q", want, stdout)
	}
}

func checkStderrExpectations(t *testing.T, stderr string, scenario *testutil.Scenario) {
	t.Helper()

	if scenario.Expect.StderrContains != "" {
		if !strings.Contains(stderr, scenario.Expect.StderrContains) {
			t.Errorf("stderr should contain '%s', got: %s", scenario.Expect.StderrContains, stderr)
		}
	}

	if scenario.Expect.StderrJSONSubset != nil {
		var expectedSubset []map[string]any
		if err := json.Unmarshal(scenario.Expect.StderrJSONSubset, &expectedSubset); err != nil {
			t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
		}

		var actualDiags []map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(stderr)), &actualDiags); err != nil {
			t.Fatalf("stderr is not a diagnostics array: %v (stderr: %s)", err, stderr)
		}

		for _, expected := range expectedSubset {
			found := false
			for _, actual := range actualDiags {
				if isSubset(expected, actual) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("stderr JSON subset not found: %v", expected)
			}
		}
	}
}

func checkValueExpectation(t *testing.T, result *runtime.Result, scenario *testutil.Scenario) {
	t.Helper()

	want := scenario.Expect.Value
	if want == nil {
		return
	}
	got := ""
	if result != nil && result.Value != nil {
		got = formatter.Inline(result.Value)
	}
	if got != *want {
		t.Errorf("value: got %q, want %q", got, *want)
	}
}

// isSubset checks if expected is a subset of actual (for JSON comparison).
func isSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists {
				return false
			}
			if !isSubset(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok {
			return false
		}
		if len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !isSubset(ev, a[i]) {
				return false
			}
		}
		return true

	case float64:
		if af, ok := actual.(float64); ok {
			return e == af
		}
		return false

	case string:
		if as, ok := actual.(string); ok {
			return e == as
		}
		return false

	case bool:
		if ab, ok := actual.(bool); ok {
			return e == ab
		}
		return false

	case nil:
		return actual == nil
	}
	return false
}
