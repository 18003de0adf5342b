package evaluator

import (
	"fmt"

	"github.com/thomasrohde/paren/pkg/diagnostics"
)

// Budget holds the resource limits for an evaluation. Zero means unlimited.
type Budget struct {
	MaxSteps int64
	TimeMs   int64
}

// BudgetTracker tracks resource consumption during evaluation. Steps counts
// every transition the evaluator has taken; RunStart is Steps at the start of
// the current Run, so budgets apply per run.
type BudgetTracker struct {
	Steps    int64
	RunStart int64
}

// RunSteps returns the transitions taken since the current run started.
func (t *BudgetTracker) RunSteps() int64 {
	return t.Steps - t.RunStart
}

func (e *Evaluator) checkStepBudget() error {
	if e.opts.Budget.MaxSteps > 0 && e.tracker.RunSteps() > e.opts.Budget.MaxSteps {
		return e.fail(diagnostics.EBudget,
			fmt.Sprintf("step budget exceeded (max %d)", e.opts.Budget.MaxSteps),
			e.currentSpan(), "raise maxSteps or check for unbounded recursion")
	}
	return nil
}

func (e *Evaluator) timeBudgetError() error {
	return e.fail(diagnostics.EBudget,
		fmt.Sprintf("time budget exceeded (%dms)", e.opts.Budget.TimeMs),
		e.currentSpan(), "")
}
