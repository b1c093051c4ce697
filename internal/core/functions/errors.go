package functions

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the lifecycle workflows. Handlers classify with
// errors.Is and map to response statuses.
var (
	ErrValidation = errors.New("invalid metadata")
	ErrNotFound   = errors.New("function not found")
	ErrStorage    = errors.New("blob store failure")
	ErrBuild      = errors.New("image build failure")
	ErrPersist    = errors.New("resource store failure")
)

// StepError records the failure of a single named workflow step.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e StepError) Unwrap() error { return e.Err }

// WorkflowError carries the error that aborted a create or delete workflow
// together with the failures of any follow-up actions (compensations on
// create, remaining best-effort steps on delete). The secondary errors are
// diagnostics only; they never replace the primary error.
type WorkflowError struct {
	Err       error
	Secondary []StepError
}

func (e *WorkflowError) Error() string {
	if len(e.Secondary) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Secondary))
	for _, s := range e.Secondary {
		parts = append(parts, s.Error())
	}
	return fmt.Sprintf("%v (also: %s)", e.Err, strings.Join(parts, "; "))
}

func (e *WorkflowError) Unwrap() error { return e.Err }
