package inventory

import (
	"context"
	"errors"
	"fmt"
)

// StepStatus is the outcome of one saga step.
type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult reports a single step.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// Result is what a mutation returns: the created or touched entity id plus the
// outcome of every step, in order.
type Result struct {
	ID    string       `json:"id,omitempty"`
	Steps []StepResult `json:"steps"`
}

// Committed reports whether any step reached the spreadsheet.
func (r Result) Committed() bool {
	for _, step := range r.Steps {
		if step.Status == StepDone {
			return true
		}
	}
	return false
}

type skipError struct{ reason string }

func (e skipError) Error() string { return e.reason }

// skip marks the running step as skipped without aborting the saga.
func skip(reason string) error {
	return skipError{reason: reason}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// saga runs named steps in order. The first failure aborts the remaining
// steps; nothing already written is compensated.
type saga struct {
	steps []step
}

func (s *saga) add(name string, run func(ctx context.Context) error) {
	s.steps = append(s.steps, step{name: name, run: run})
}

func (s *saga) run(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(s.steps))
	var failure error
	for _, st := range s.steps {
		if failure != nil {
			results = append(results, StepResult{Name: st.name, Status: StepSkipped, Detail: "aborted"})
			continue
		}
		err := st.run(ctx)
		var skipped skipError
		switch {
		case err == nil:
			results = append(results, StepResult{Name: st.name, Status: StepDone})
		case errors.As(err, &skipped):
			results = append(results, StepResult{Name: st.name, Status: StepSkipped, Detail: skipped.reason})
		default:
			results = append(results, StepResult{Name: st.name, Status: StepFailed, Detail: err.Error()})
			failure = fmt.Errorf("%w: %s: %w", ErrStepFailed, st.name, err)
		}
	}
	return results, failure
}
