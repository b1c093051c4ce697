package functions

import (
	"context"

	"github.com/rs/zerolog"
)

// compensator is the explicit replacement for the original context-manager
// cleanup: an ordered list of undo actions, one pushed after each completed
// workflow step. Unwind runs them in reverse. Every undo is attempted even
// when an earlier one fails; failures are collected and logged, never
// raised, so the triggering step error stays the one the caller sees.
type compensator struct {
	entries []compensation
	lg      zerolog.Logger
}

type compensation struct {
	step string
	undo func(ctx context.Context) error
}

func (c *compensator) push(step string, undo func(ctx context.Context) error) {
	c.entries = append(c.entries, compensation{step: step, undo: undo})
}

func (c *compensator) unwind(ctx context.Context) []StepError {
	var failed []StepError
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if err := e.undo(ctx); err != nil {
			c.lg.Error().Err(err).Str("step", e.step).Msg("compensation failed")
			failed = append(failed, StepError{Step: e.step, Err: err})
			continue
		}
		c.lg.Info().Str("step", e.step).Msg("compensated")
	}
	return failed
}
