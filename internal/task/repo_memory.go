package task

import (
	"context"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
)

// MemoryRepo keeps the collection in an ordered slice, matching the persisted
// layout (a single JSON array, append order preserved).
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks []model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: []model.Task{}}
}

func (r *MemoryRepo) Save(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	r.tasks = append(r.tasks, t)
	return t, nil
}

func (r *MemoryRepo) GetAll(_ context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (r *MemoryRepo) Update(_ context.Context, id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.tasks {
		if t.ID != id {
			continue
		}
		applyPatch(&t, p)
		t.UpdatedAt = time.Now()
		r.tasks[i] = t
		return t, nil
	}
	return model.Task{}, ErrNotFound
}

func (r *MemoryRepo) Delete(_ context.Context, id model.TaskID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	removed := len(next) != len(r.tasks)
	r.tasks = next
	return removed, nil
}
