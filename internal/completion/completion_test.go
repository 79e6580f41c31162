package completion

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/overlay"
	"github.com/DenisKurek/memoract/internal/task"
	"github.com/DenisKurek/memoract/internal/telemetry"
	"github.com/DenisKurek/memoract/internal/verify"
)

// scriptedStrategy returns canned verify outcomes in order; the last entry
// repeats once the script runs out.
type scriptedStrategy struct {
	method     model.CompletionMethod
	captureErr error

	mu     sync.Mutex
	script []scriptedOutcome
}

type scriptedOutcome struct {
	res model.VerificationResult
	err error
}

func (s *scriptedStrategy) Method() model.CompletionMethod { return s.method }

func (s *scriptedStrategy) Capture(context.Context, model.Task) (model.CapturedInput, error) {
	if s.captureErr != nil {
		return model.CapturedInput{}, s.captureErr
	}
	return model.CapturedInput{ImageURI: "scripted.jpg"}, nil
}

func (s *scriptedStrategy) Verify(context.Context, model.Task, model.CapturedInput) (model.VerificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.script[0]
	if len(s.script) > 1 {
		s.script = s.script[1:]
	}
	return next.res, next.err
}

func pass() scriptedOutcome {
	return scriptedOutcome{res: model.VerificationResult{Success: true, Confidence: 0.92, Message: "Verified!"}}
}

func fail() scriptedOutcome {
	return scriptedOutcome{res: model.VerificationResult{Success: false, Confidence: 0.4, Message: "No match.", MatchDetails: &model.MatchDetails{Similarity: 0.4}}}
}

type fixture struct {
	tasks   *task.MemoryRepo
	events  *telemetry.MemoryRepository
	orch    *Orchestrator
	manager *Manager
	task    model.Task
}

func newFixture(t *testing.T, strategy verify.Strategy) *fixture {
	t.Helper()

	tasks := task.NewMemoryRepo()
	saved, err := tasks.Save(context.Background(), model.Task{
		Title:       "Water the plants",
		Description: "Back garden",
		Datetime:    "2026-09-01T09:00:00Z",
		Method:      strategy.Method(),
		PhotoURI:    "reference.jpg",
	})
	require.NoError(t, err)

	events := telemetry.NewMemoryRepository()
	orch := NewOrchestrator(tasks, verify.NewRegistry(strategy), 10*time.Millisecond, log.New(io.Discard, "", 0), events)
	return &fixture{
		tasks:   tasks,
		events:  events,
		orch:    orch,
		manager: NewManager(orch),
		task:    saved,
	}
}

func (f *fixture) eventTypes(t *testing.T) []telemetry.EventType {
	t.Helper()
	events, err := f.events.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	types := make([]telemetry.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestCompleteTask_SuccessDeletesTask(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{pass()}})

	out, err := f.orch.CompleteTask(context.Background(), f.task, nil)
	require.NoError(t, err)
	assert.Equal(t, overlay.StateSuccess, out.State)
	assert.True(t, out.TaskDeleted)
	assert.False(t, out.Retryable)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.Success)

	_, err = f.tasks.GetByID(context.Background(), f.task.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.Equal(t, []telemetry.EventType{
		telemetry.EventVerifyStarted,
		telemetry.EventVerifySucceeded,
		telemetry.EventTaskDeleted,
	}, f.eventTypes(t))
}

func TestCompleteTask_FailureKeepsTask(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{fail()}})

	out, err := f.orch.CompleteTask(context.Background(), f.task, nil)
	require.NoError(t, err)
	assert.Equal(t, overlay.StateFailure, out.State)
	assert.False(t, out.TaskDeleted)
	assert.True(t, out.Retryable, "photo failures offer retry")

	got, err := f.tasks.GetByID(context.Background(), f.task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestCompleteTask_NonRetryableFailure(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodQRCode, script: []scriptedOutcome{fail()}})

	out, err := f.orch.CompleteTask(context.Background(), f.task, nil)
	require.NoError(t, err)
	assert.Equal(t, overlay.StateFailure, out.State)
	assert.False(t, out.Retryable)
}

func TestCompleteTask_UnknownMethod(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{pass()}})

	unknown := f.task
	unknown.Method = "RETINA_SCAN"
	_, err := f.orch.CompleteTask(context.Background(), unknown, nil)
	assert.ErrorIs(t, err, verify.ErrUnknownMethod)
}

func TestCompleteTask_UnavailableBackendIsGenericFailure(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{
		method: model.MethodPhoto,
		script: []scriptedOutcome{{err: verify.ErrServiceUnavailable}},
	})

	out, err := f.orch.CompleteTask(context.Background(), f.task, nil)
	require.NoError(t, err, "an unavailable backend must not surface as a request error")
	assert.Equal(t, overlay.StateFailure, out.State)
	require.NotNil(t, out.Result)
	assert.Equal(t, failureMessageUnavailable, out.Result.Message)

	_, err = f.tasks.GetByID(context.Background(), f.task.ID)
	assert.NoError(t, err, "task must survive a backend outage")

	// The attempt still closes out in the event stream.
	assert.Equal(t, []telemetry.EventType{
		telemetry.EventVerifyStarted,
		telemetry.EventVerifyFailed,
	}, f.eventTypes(t))
}

func TestCompleteTask_AlreadyGoneRowRecordedOnce(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{pass()}})

	removed, err := f.tasks.Delete(context.Background(), f.task.ID)
	require.NoError(t, err)
	require.True(t, removed)

	out, err := f.orch.CompleteTask(context.Background(), f.task, nil)
	require.NoError(t, err)
	assert.Equal(t, overlay.StateSuccess, out.State)
	assert.False(t, out.TaskDeleted)

	assert.NotContains(t, f.eventTypes(t), telemetry.EventTaskDeleted,
		"a delete that found no row must not count another deletion")
}

func waitForState(t *testing.T, s *Session, want overlay.State) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = s.Snapshot()
		return snap.State == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
	return snap
}

func TestManager_FailThenRetryThenAutoComplete(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{
		method: model.MethodPhoto,
		script: []scriptedOutcome{fail(), pass()},
	})

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)

	snap := waitForState(t, s, overlay.StateFailure)
	assert.True(t, snap.Retryable)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 0.4, snap.Result.MatchDetails.Similarity)

	// The task is untouched while the attempt sits in Failure.
	_, err = f.tasks.GetByID(context.Background(), f.task.ID)
	require.NoError(t, err)

	_, err = f.manager.Retry(f.task.ID)
	require.NoError(t, err)

	waitForState(t, s, overlay.StateSuccess)
	require.Eventually(t, func() bool {
		return s.Snapshot().TaskDeleted
	}, 2*time.Second, 5*time.Millisecond, "success must delete the task after the display window")

	_, err = f.tasks.GetByID(context.Background(), f.task.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.Contains(t, f.eventTypes(t), telemetry.EventVerifyRetried)
}

func TestManager_SingleActiveAttemptPerTask(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{fail()}})

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)
	waitForState(t, s, overlay.StateFailure)

	_, err = f.manager.Start(f.task, nil)
	assert.ErrorIs(t, err, ErrAttemptActive)
}

func TestManager_CancelClosesWithoutDeletion(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{fail()}})

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)
	waitForState(t, s, overlay.StateFailure)

	require.NoError(t, f.manager.Cancel(f.task.ID))
	assert.Equal(t, overlay.StateClosed, s.Snapshot().State)

	_, err = f.manager.Get(f.task.ID)
	assert.ErrorIs(t, err, ErrNoAttempt)

	_, err = f.tasks.GetByID(context.Background(), f.task.ID)
	assert.NoError(t, err, "cancel never mutates the store")

	assert.Contains(t, f.eventTypes(t), telemetry.EventVerifyCancelled)
}

func TestManager_CaptureErrorReturnsToIdle(t *testing.T) {
	strategy := &scriptedStrategy{
		method:     model.MethodPhoto,
		captureErr: errors.New("camera permission denied"),
		script:     []scriptedOutcome{pass()},
	}
	f := newFixture(t, strategy)

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)

	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = s.Snapshot()
		return snap.Error != ""
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, overlay.StateIdle, snap.State, "a refused capture aborts before the overlay shows")
	assert.Nil(t, snap.Result)

	// The aborted attempt does not block a new one.
	strategy.captureErr = nil
	s2, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)
	waitForState(t, s2, overlay.StateSuccess)
}

func TestManager_DoneSessionsSweptOnStart(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{pass()}})

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)
	waitForState(t, s, overlay.StateSuccess)
	require.Eventually(t, func() bool {
		return s.Snapshot().TaskDeleted
	}, 2*time.Second, 5*time.Millisecond)

	// The finished session stays pollable until new activity sweeps it.
	_, err = f.manager.Get(f.task.ID)
	require.NoError(t, err)

	other, err := f.tasks.Save(context.Background(), model.Task{
		Title:       "Tidy the desk",
		Description: "Home office",
		Datetime:    "2026-09-03T09:00:00Z",
		Method:      model.MethodPhoto,
		PhotoURI:    "desk.jpg",
	})
	require.NoError(t, err)

	_, err = f.manager.Start(other, nil)
	require.NoError(t, err)

	_, err = f.manager.Get(f.task.ID)
	assert.ErrorIs(t, err, ErrNoAttempt, "finished sessions must not accumulate")
	_, err = f.manager.Get(other.ID)
	assert.NoError(t, err)
}

func TestManager_RetryRequiresFailure(t *testing.T) {
	f := newFixture(t, &scriptedStrategy{method: model.MethodPhoto, script: []scriptedOutcome{pass()}})

	_, err := f.manager.Retry(f.task.ID)
	assert.ErrorIs(t, err, ErrNoAttempt)

	s, err := f.manager.Start(f.task, nil)
	require.NoError(t, err)
	waitForState(t, s, overlay.StateSuccess)

	_, err = f.manager.Retry(f.task.ID)
	assert.ErrorIs(t, err, overlay.ErrNotFailed)
}

func TestManager_ClientSuppliedInputSkipsCapture(t *testing.T) {
	strategy := &scriptedStrategy{
		method:     model.MethodQRCode,
		captureErr: errors.New("capture must not run when the client scanned already"),
		script:     []scriptedOutcome{pass()},
	}
	f := newFixture(t, strategy)

	s, err := f.manager.Start(f.task, &model.CapturedInput{QRData: "scanned"})
	require.NoError(t, err)
	waitForState(t, s, overlay.StateSuccess)
}
