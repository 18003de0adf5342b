package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thomasrohde/paren/pkg/diagnostics"
	"github.com/thomasrohde/paren/pkg/evaluator"
)

// traceWriter streams trace events to a file as NDJSON.
type traceWriter struct {
	f   *os.File
	enc *json.Encoder
}

func newTraceWriter(path string) (*traceWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &traceWriter{f: f, enc: json.NewEncoder(f)}, nil
}

func (w *traceWriter) Write(ev evaluator.TraceEvent) {
	_ = w.enc.Encode(ev)
}

func (w *traceWriter) Close() error {
	return w.f.Close()
}

func cmdTrace(args []string) int {
	var file string
	jsonOutput := false
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			jsonOutput = true
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: paren trace <file.jsonl> [--json|--text]")
		return 1
	}

	// Read and parse NDJSON trace file
	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return 1
	}
	defer f.Close()

	summary := computeTraceSummary(f)

	if textOutput && !jsonOutput {
		printTraceSummaryText(os.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	}

	return 0
}

// TraceSummary aggregates one trace file.
type TraceSummary struct {
	RunID          string         `json:"runId"`
	TotalEvents    int            `json:"totalEvents"`
	BuiltinCalls   int            `json:"builtinCalls"`
	BuiltinsByName map[string]int `json:"builtinsByName"`
	Expansions     int            `json:"expansions"`
	Definitions    int            `json:"definitions"`
	Ignored        int            `json:"ignored"`
	Errors         int            `json:"errors"`
	MaxScopeDepth  int            `json:"maxScopeDepth"`
	Steps          int64          `json:"steps"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		BuiltinsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
			if n, err := strconv.ParseInt(event.Data["steps"], 10, 64); err == nil {
				summary.Steps += n
			}
		case evaluator.TraceBuiltin:
			summary.BuiltinCalls++
			if name := event.Data["name"]; name != "" {
				summary.BuiltinsByName[name]++
			}
		case evaluator.TraceExpand:
			summary.Expansions++
		case evaluator.TraceDefine:
			summary.Definitions++
		case evaluator.TraceIgnore:
			summary.Ignored++
		case evaluator.TraceError:
			summary.Errors++
		case evaluator.TraceScopePush:
			if d, err := strconv.Atoi(event.Data["depth"]); err == nil && d > summary.MaxScopeDepth {
				summary.MaxScopeDepth = d
			}
		}
	}

	// Compute duration from start/end times
	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}

	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Steps: %d\n", s.Steps)
	fmt.Fprintf(w, "Builtins: %d calls\n", s.BuiltinCalls)
	names := make([]string, 0, len(s.BuiltinsByName))
	for name := range s.BuiltinsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.BuiltinsByName[name])
	}
	fmt.Fprintf(w, "Expansions: %d\n", s.Expansions)
	fmt.Fprintf(w, "Definitions: %d\n", s.Definitions)
	fmt.Fprintf(w, "Ignored: %d\n", s.Ignored)
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	fmt.Fprintf(w, "Max scope depth: %d\n", s.MaxScopeDepth)
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	// Try RFC3339Nano first, then other common formats
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
