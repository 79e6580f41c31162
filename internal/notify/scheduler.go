// Package notify schedules the local due-time reminders. Delivery is
// fire-and-forget through a callback carrying the task id, which the client
// uses to deep-link back into the completion flow. Reminders are in-process
// only and do not survive a restart.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
)

// Delivery receives the fired reminder's deep-link payload.
type Delivery func(taskID model.TaskID, title string)

type Scheduler struct {
	mu      sync.Mutex
	timers  map[model.TaskID]*time.Timer
	deliver Delivery
	logger  *log.Logger
	stopped bool
}

func NewScheduler(deliver Delivery, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if deliver == nil {
		deliver = func(model.TaskID, string) {}
	}
	return &Scheduler{
		timers:  map[model.TaskID]*time.Timer{},
		deliver: deliver,
		logger:  logger,
	}
}

// ScheduleReminder arms a one-shot reminder at the task's due moment. A due
// moment in the past or an unparseable datetime schedules nothing.
func (s *Scheduler) ScheduleReminder(t model.Task) {
	due, err := time.Parse(time.RFC3339, t.Datetime)
	if err != nil {
		s.logger.Printf("notify: unparseable datetime %q for task %s: %v", t.Datetime, t.ID, err)
		return
	}
	wait := time.Until(due)
	if wait <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.timers[t.ID]; ok {
		prev.Stop()
	}
	id, title := t.ID, t.Title
	s.timers[t.ID] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.deliver(id, title)
	})
}

// CancelReminder disarms a pending reminder. Unknown ids are a no-op.
func (s *Scheduler) CancelReminder(id model.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Stop disarms everything; the scheduler accepts no further reminders.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
