package coordinator

import "stockfetcher/internal/fetcher"

// RunResult is the terminal artifact of one pipeline execution. A run
// that reaches a RunResult executed successfully even when individual
// tickers failed; the failure set is for operators, not for aborting.
type RunResult struct {
	// RunID correlates every log line of one execution.
	RunID string

	// Attempted, Succeeded and Failed count tickers. Attempted equals
	// Succeeded + Failed once the run completes.
	Attempted int
	Succeeded int
	Failed    int

	// Outcomes holds one per-ticker summary per attempted ticker, in
	// completion order.
	Outcomes []fetcher.Outcome
}

func (r *RunResult) add(o fetcher.Outcome) {
	r.Attempted++
	if o.Err != nil {
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// FailedOutcomes returns the outcomes that carried an error.
func (r *RunResult) FailedOutcomes() []fetcher.Outcome {
	var failed []fetcher.Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// RecordsWritten totals rows written across all tickers.
func (r *RunResult) RecordsWritten() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.RecordsWritten()
	}
	return total
}
