package main

import (
	"bytes"
	"strings"
	"testing"
)

const sampleTrace = `{"ts":"2026-01-02T10:00:00Z","runId":"r1","event":"run_start"}
{"ts":"2026-01-02T10:00:00.001Z","runId":"r1","event":"scope_push","data":{"depth":"2"}}
{"ts":"2026-01-02T10:00:00.002Z","runId":"r1","event":"define","data":{"name":"sq","kind":"set"}}
{"ts":"2026-01-02T10:00:00.003Z","runId":"r1","event":"expand","data":{"name":"sq","args":"1"}}
{"ts":"2026-01-02T10:00:00.004Z","runId":"r1","event":"scope_push","data":{"depth":"3"}}
{"ts":"2026-01-02T10:00:00.005Z","runId":"r1","event":"builtin","data":{"name":"mult","action":"push"}}
{"ts":"2026-01-02T10:00:00.006Z","runId":"r1","event":"builtin","data":{"name":"print","action":"ignore"}}
{"ts":"2026-01-02T10:00:00.007Z","runId":"r1","event":"ignore","data":{"name":"nope"}}
not json
{"ts":"2026-01-02T10:00:00.050Z","runId":"r1","event":"run_end","data":{"steps":"42"}}
`

func TestComputeTraceSummary(t *testing.T) {
	s := computeTraceSummary(strings.NewReader(sampleTrace))
	if s.RunID != "r1" || s.TotalEvents != 9 {
		t.Fatalf("got %+v", s)
	}
	if s.BuiltinCalls != 2 || s.BuiltinsByName["mult"] != 1 || s.BuiltinsByName["print"] != 1 {
		t.Errorf("builtins: %+v", s.BuiltinsByName)
	}
	if s.Expansions != 1 || s.Definitions != 1 || s.Ignored != 1 || s.Errors != 0 {
		t.Errorf("counts: %+v", s)
	}
	if s.MaxScopeDepth != 3 || s.Steps != 42 {
		t.Errorf("depth=%d steps=%d", s.MaxScopeDepth, s.Steps)
	}
	if s.DurationMs != 50 {
		t.Errorf("duration = %v", s.DurationMs)
	}
}

func TestPrintTraceSummaryText(t *testing.T) {
	var out bytes.Buffer
	printTraceSummaryText(&out, computeTraceSummary(strings.NewReader(sampleTrace)))
	for _, want := range []string{"Run: r1", "Builtins: 2 calls", "  mult: 1", "Expansions: 1", "Duration: 50ms"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"(print 1)", false},
		{"(print (add 1", true},
		{`(print "abc`, true},
		{"(print 1))", false},
		{"<1 2", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := needsMore(tt.src); got != tt.want {
			t.Errorf("needsMore(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestEvalFlags(t *testing.T) {
	var f evalFlags
	args := []string{"--arity", "lenient", "--max-steps", "10", "file.pn"}
	for i := 0; i < len(args); i++ {
		next, ok, err := f.parse(args, i)
		if err != nil {
			t.Fatalf("parse(%q): %v", args[i], err)
		}
		if ok {
			i = next
		}
	}
	if f.arity != "lenient" || f.maxSteps != "10" || f.unknownOp != "" {
		t.Errorf("got %+v", f)
	}
}

func TestEvalFlags_MissingValue(t *testing.T) {
	tests := [][]string{
		{"file.pn", "--arity"},
		{"file.pn", "--unknown-op"},
		{"file.pn", "--max-steps"},
		{"file.pn", "--time-ms"},
		{"--max-steps", "--pretty", "file.pn"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var f evalFlags
			var err error
			for i := 0; i < len(args) && err == nil; i++ {
				var next int
				var ok bool
				if next, ok, err = f.parse(args, i); ok {
					i = next
				}
			}
			if err == nil || !strings.Contains(err.Error(), "requires a value") {
				t.Fatalf("expected a missing value error, got %v (flags %+v)", err, f)
			}
		})
	}
}

func TestCmdRun_TrailingFlagIsUsageError(t *testing.T) {
	for _, flag := range []string{"--arity", "--unknown-op", "--max-steps", "--time-ms"} {
		if code := cmdRun([]string{"missing.pn", flag}); code != 1 {
			t.Errorf("cmdRun with trailing %s = %d, want 1", flag, code)
		}
		if code := cmdRepl([]string{flag}); code != 1 {
			t.Errorf("cmdRepl with trailing %s = %d, want 1", flag, code)
		}
	}
}
