package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
)

// FileRepo is the persistent task repository: one JSON array in one file,
// rewritten whole on every mutation. A single mutex serializes writers, so
// the read-modify-write cycle cannot lose updates between in-process callers.
//
// Deserialization failures are deliberately swallowed to an empty collection
// (logged, never propagated); write failures propagate to the caller.
type FileRepo struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

func NewFileRepo(dataDir string, logger *log.Logger) (*FileRepo, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileRepo{
		path:   filepath.Join(dataDir, "tasks.json"),
		logger: logger,
	}, nil
}

// loadLocked reads and deserializes the full collection. A missing file or a
// corrupt blob both yield an empty collection; corruption is logged.
func (r *FileRepo) loadLocked() []model.Task {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Printf("task store: read %s: %v", r.path, err)
		}
		return []model.Task{}
	}

	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		r.logger.Printf("task store: corrupt collection in %s, starting empty: %v", r.path, err)
		return []model.Task{}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks
}

func (r *FileRepo) saveLocked(tasks []model.Task) error {
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("task store: marshal collection: %w", err)
	}
	if err := os.WriteFile(r.path, b, 0o644); err != nil {
		return fmt.Errorf("task store: write %s: %w", r.path, err)
	}
	return nil
}

func (r *FileRepo) Save(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.loadLocked()

	now := time.Now()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	tasks = append(tasks, t)
	if err := r.saveLocked(tasks); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) GetAll(_ context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadLocked(), nil
}

func (r *FileRepo) GetByID(_ context.Context, id model.TaskID) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.loadLocked() {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (r *FileRepo) Update(_ context.Context, id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.loadLocked()
	for i, t := range tasks {
		if t.ID != id {
			continue
		}
		applyPatch(&t, p)
		t.UpdatedAt = time.Now()
		tasks[i] = t
		if err := r.saveLocked(tasks); err != nil {
			return model.Task{}, err
		}
		return t, nil
	}
	return model.Task{}, ErrNotFound
}

func (r *FileRepo) Delete(_ context.Context, id model.TaskID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.loadLocked()
	next := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	if len(next) == len(tasks) {
		return false, nil
	}
	if err := r.saveLocked(next); err != nil {
		return false, err
	}
	return true, nil
}
