package functions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"pratai-api/pkg/rand"
)

// Dispatcher hands execution requests off to the worker fleet. It is
// deliberately permissive where create is strict: everything except the
// payload field of the request body is dropped without complaint.
type Dispatcher struct {
	queue TaskQueue
	lg    zerolog.Logger
}

func NewDispatcher(queue TaskQueue, lg zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue: queue,
		lg:    lg.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch publishes a run task for the function and returns the request id
// for client-side correlation. Publishing is fire and forget: once the body
// parses, the caller gets a request id no matter what the broker did. The
// contract is at-most-once, best-effort delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, functionID string, body []byte) (string, error) {
	requestID := rand.ID()

	var doc struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if doc.Payload == nil {
		return "", fmt.Errorf("%w: missing payload", ErrValidation)
	}

	task := &ExecutionTask{
		Action:     "run",
		Payload:    doc.Payload,
		RequestID:  requestID,
		FunctionID: functionID,
	}
	if err := d.queue.Publish(ctx, task); err != nil {
		d.lg.Error().Err(err).
			Str("function_id", functionID).
			Str("request_id", requestID).
			Msg("task publish failed")
	}
	return requestID, nil
}
