package evaluator

import (
	"time"

	"github.com/thomasrohde/paren/pkg/token"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceScopePush TraceEventType = "scope_push"
	TraceScopePop  TraceEventType = "scope_pop"
	TraceExpand    TraceEventType = "expand"
	TraceDefine    TraceEventType = "define"
	TraceBuiltin   TraceEventType = "builtin"
	TraceIgnore    TraceEventType = "ignore"
	TraceError     TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *token.Span       `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

func (e *Evaluator) emit(event TraceEventType, span *token.Span) {
	e.emitWithData(event, span, nil)
}

func (e *Evaluator) emitWithData(event TraceEventType, span *token.Span, data map[string]string) {
	if e.opts.Trace != nil {
		e.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     e.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// tracing reports whether building event payloads is worthwhile.
func (e *Evaluator) tracing() bool {
	return e.opts.Trace != nil
}
