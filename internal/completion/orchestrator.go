// Package completion drives a task through its verification flow: pick the
// strategy matching the task's completion method, run capture+verify behind
// the overlay state machine, and delete the task from the store when the
// attempt lands on Success. Failure and Cancel never touch the store.
package completion

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/overlay"
	"github.com/DenisKurek/memoract/internal/task"
	"github.com/DenisKurek/memoract/internal/telemetry"
	"github.com/DenisKurek/memoract/internal/verify"
)

const failureMessageUnavailable = "Verification service is unavailable. Please try again."

type Orchestrator struct {
	tasks      task.Repo
	strategies *verify.Registry

	// displayWindow is how long a Success overlay stays visible before the
	// completion callback fires.
	displayWindow time.Duration

	logger *log.Logger
	events telemetry.Recorder
}

func NewOrchestrator(tasks task.Repo, strategies *verify.Registry, displayWindow time.Duration, logger *log.Logger, events telemetry.Recorder) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if events == nil {
		events = telemetry.NopRecorder{}
	}
	return &Orchestrator{
		tasks:         tasks,
		strategies:    strategies,
		displayWindow: displayWindow,
		logger:        logger,
		events:        events,
	}
}

// Outcome is what one driven attempt ends in.
type Outcome struct {
	TaskID      model.TaskID              `json:"taskId"`
	Method      model.CompletionMethod    `json:"method"`
	State       overlay.State             `json:"state"`
	Result      *model.VerificationResult `json:"result,omitempty"`
	Retryable   bool                      `json:"retryable"`
	TaskDeleted bool                      `json:"taskDeleted"`
}

// verifyOnce runs one verify call. An unavailable backend is rendered as a
// generic failure result instead of an error; anything else propagates.
func (o *Orchestrator) verifyOnce(ctx context.Context, s verify.Strategy, t model.Task, in model.CapturedInput) (model.VerificationResult, error) {
	o.recordEvent(telemetry.EventVerifyStarted, t, nil)

	res, err := s.Verify(ctx, t, in)
	if err != nil {
		if errors.Is(err, verify.ErrServiceUnavailable) {
			o.logger.Printf("completion: verify %s for task %s: %v", t.Method, t.ID, err)
			unavailable := model.VerificationResult{Success: false, Message: failureMessageUnavailable}
			o.recordEvent(telemetry.EventVerifyFailed, t, &unavailable)
			return unavailable, nil
		}
		return model.VerificationResult{}, err
	}

	if res.Success {
		o.recordEvent(telemetry.EventVerifySucceeded, t, &res)
	} else {
		o.recordEvent(telemetry.EventVerifyFailed, t, &res)
	}
	return res, nil
}

// finalize removes the verified task. A delete that finds no row (the task
// was already gone, e.g. a double-invocation race) is accepted silently and
// the completion still reports success.
func (o *Orchestrator) finalize(ctx context.Context, t model.Task) bool {
	removed, err := o.tasks.Delete(ctx, t.ID)
	if err != nil {
		o.logger.Printf("completion: delete task %s after verification: %v", t.ID, err)
		return false
	}
	if !removed {
		// Whoever removed the row already recorded its deletion.
		o.logger.Printf("completion: task %s already gone at delete", t.ID)
		return false
	}
	o.recordEvent(telemetry.EventTaskDeleted, t, nil)
	return true
}

// CompleteTask drives one attempt end to end, synchronously: capture (when
// the caller supplied no input), verify, and on success delete the task.
func (o *Orchestrator) CompleteTask(ctx context.Context, t model.Task, in *model.CapturedInput) (Outcome, error) {
	strategy, err := o.strategies.For(t.Method)
	if err != nil {
		return Outcome{}, err
	}

	var captured model.CapturedInput
	if in != nil {
		captured = *in
	} else {
		captured, err = strategy.Capture(ctx, t)
		if err != nil {
			return Outcome{}, err
		}
	}

	res, err := o.verifyOnce(ctx, strategy, t, captured)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		TaskID:    t.ID,
		Method:    t.Method,
		Result:    &res,
		Retryable: !res.Success && t.Method.Retryable(),
	}
	if res.Success {
		out.State = overlay.StateSuccess
		out.TaskDeleted = o.finalize(ctx, t)
	} else {
		out.State = overlay.StateFailure
	}
	return out, nil
}

func (o *Orchestrator) recordEvent(kind telemetry.EventType, t model.Task, res *model.VerificationResult) {
	md := telemetry.EventMetadata{
		"task_id": string(t.ID),
		"method":  string(t.Method),
	}
	if res != nil {
		md["processing_ms"] = float64(res.ProcessingTime)
		md["confidence"] = res.Confidence
	}
	if err := o.events.RecordEvent(kind, md); err != nil {
		o.logger.Printf("completion: record %s: %v", kind, err)
	}
}
