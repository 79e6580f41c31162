package task

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/DenisKurek/memoract/internal/model"
)

var (
	ErrNotFound = errors.New("task not found")
)

// Patch represents a partial update.
// nil pointer => "no change". The completion method and its setup payload are
// immutable after creation and have no patch fields.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Datetime    *string `json:"datetime,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Repo is the task collection. Every mutation is a full read-modify-write of
// the whole collection; implementations serialize mutations behind a single
// writer so concurrent callers cannot drop each other's changes.
type Repo interface {
	Save(ctx context.Context, t model.Task) (model.Task, error)
	GetAll(ctx context.Context) ([]model.Task, error)
	GetByID(ctx context.Context, id model.TaskID) (model.Task, error)
	Update(ctx context.Context, id model.TaskID, patch Patch) (model.Task, error)
	// Delete reports whether the id was present. A miss is a no-op, not an
	// error.
	Delete(ctx context.Context, id model.TaskID) (bool, error)
}

func newID() model.TaskID {
	return model.TaskID("task_" + uuid.NewString())
}

func applyPatch(t *model.Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Datetime != nil {
		t.Datetime = strings.TrimSpace(*p.Datetime)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
