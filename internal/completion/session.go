package completion

import (
	"context"
	"errors"
	"sync"

	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/overlay"
	"github.com/DenisKurek/memoract/internal/telemetry"
	"github.com/DenisKurek/memoract/internal/verify"
)

var (
	ErrAttemptActive = errors.New("a verification attempt is already in progress for this task")
	ErrNoAttempt     = errors.New("no verification attempt for this task")
)

// Session is one task's live verification attempt: the overlay plus the
// captured input feeding it. The UI allows a single active overlay per task.
type Session struct {
	taskID model.TaskID
	method model.CompletionMethod

	orch     *Orchestrator
	strategy verify.Strategy
	task     model.Task
	overlay  *overlay.Overlay

	mu          sync.Mutex
	taskDeleted bool
	captureErr  string
}

// Snapshot is the session's wire representation.
type Snapshot struct {
	TaskID      model.TaskID              `json:"taskId"`
	Method      model.CompletionMethod    `json:"method"`
	State       overlay.State             `json:"state"`
	Result      *model.VerificationResult `json:"result,omitempty"`
	Retryable   bool                      `json:"retryable"`
	TaskDeleted bool                      `json:"taskDeleted"`
	Error       string                    `json:"error,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	state, res := s.overlay.Snapshot()

	s.mu.Lock()
	deleted := s.taskDeleted
	captureErr := s.captureErr
	s.mu.Unlock()

	return Snapshot{
		TaskID:      s.taskID,
		Method:      s.method,
		State:       state,
		Result:      res,
		Retryable:   state == overlay.StateFailure && s.method.Retryable(),
		TaskDeleted: deleted,
		Error:       captureErr,
	}
}

// done reports whether the attempt has run its course: closed, verified with
// the task removed, or aborted at capture before the overlay showed.
func (s *Session) done() bool {
	snap := s.Snapshot()
	switch snap.State {
	case overlay.StateClosed:
		return true
	case overlay.StateSuccess:
		return snap.TaskDeleted
	case overlay.StateIdle:
		return snap.Error != ""
	}
	return false
}

// run performs capture (unless input was supplied by the client) and the
// verify call, resolving the overlay with the outcome. It executes detached
// from the starting request: once in flight, an attempt cannot be aborted.
func (s *Session) run(in *model.CapturedInput) {
	ctx := context.Background()

	var captured model.CapturedInput
	if in != nil {
		captured = *in
	} else {
		var err error
		captured, err = s.strategy.Capture(ctx, s.task)
		if err != nil {
			// A refused capture (e.g. camera permission denied) aborts the
			// attempt before the overlay shows: control returns to Idle with
			// the reason surfaced, and verify never runs.
			s.orch.logger.Printf("completion: capture %s for task %s: %v", s.method, s.taskID, err)
			s.mu.Lock()
			s.captureErr = "could not capture verification input: check app permissions and try again"
			s.mu.Unlock()
			return
		}
	}

	s.mu.Lock()
	s.captureErr = ""
	s.mu.Unlock()

	if err := s.overlay.Begin(); err != nil {
		return
	}

	res, err := s.orch.verifyOnce(ctx, s.strategy, s.task, captured)
	if err != nil {
		s.orch.logger.Printf("completion: verify %s for task %s: %v", s.method, s.taskID, err)
		s.overlay.Fail(failureMessageUnavailable)
		return
	}
	s.overlay.Resolve(res)
}

// Manager tracks at most one session per task.
type Manager struct {
	mu       sync.Mutex
	orch     *Orchestrator
	sessions map[model.TaskID]*Session
}

func NewManager(orch *Orchestrator) *Manager {
	return &Manager{
		orch:     orch,
		sessions: map[model.TaskID]*Session{},
	}
}

// Start opens an attempt for the task. Captured input from the client is
// optional; without it the strategy's own capture provider runs.
func (m *Manager) Start(t model.Task, in *model.CapturedInput) (*Session, error) {
	strategy, err := m.orch.strategies.For(t.Method)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sweepLocked()
	if _, ok := m.sessions[t.ID]; ok {
		m.mu.Unlock()
		return nil, ErrAttemptActive
	}

	s := &Session{
		taskID:   t.ID,
		method:   t.Method,
		orch:     m.orch,
		strategy: strategy,
		task:     t,
	}
	s.overlay = overlay.New(t.Method.Retryable(), m.orch.displayWindow, func() {
		// A miss here means the row was already gone; completion still
		// reports success.
		m.orch.finalize(context.Background(), t)
		s.mu.Lock()
		s.taskDeleted = true
		s.mu.Unlock()
	})
	m.sessions[t.ID] = s
	m.mu.Unlock()

	go s.run(in)
	return s, nil
}

// sweepLocked drops finished sessions so the map holds only live attempts
// plus terminal snapshots still awaiting a poll. Callers hold m.mu.
func (m *Manager) sweepLocked() {
	for id, s := range m.sessions {
		if s.done() {
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) Get(id model.TaskID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoAttempt
	}
	return s, nil
}

// Retry resets a failed attempt to Idle and launches a fresh capture+verify.
func (m *Manager) Retry(id model.TaskID) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.overlay.Retry(); err != nil {
		return nil, err
	}
	m.orch.recordEvent(telemetry.EventVerifyRetried, s.task, nil)

	// Retry discards the previous captured input; a new capture always runs.
	go s.run(nil)
	return s, nil
}

// Cancel closes the attempt without mutating the task store.
func (m *Manager) Cancel(id model.TaskID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNoAttempt
	}
	s.overlay.Cancel()
	m.orch.recordEvent(telemetry.EventVerifyCancelled, s.task, nil)
	return nil
}
