package completion

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/overlay"
	"github.com/DenisKurek/memoract/internal/task"
	"github.com/DenisKurek/memoract/internal/verify"
)

type Handler struct {
	tasks   task.Repo
	orch    *Orchestrator
	manager *Manager
}

func NewHandler(tasks task.Repo, orch *Orchestrator) *Handler {
	return &Handler{
		tasks:   tasks,
		orch:    orch,
		manager: NewManager(orch),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type startRequest struct {
	Input *model.CapturedInput `json:"input,omitempty"`
}

// ServeVerify serves the /api/tasks/{id}/verify subtree. It plugs into the
// task handler's sub-route hook.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request, id model.TaskID, actions []string) {
	switch {
	case len(actions) == 0:
		switch r.Method {
		case http.MethodPost:
			h.start(w, r, id)
		case http.MethodGet:
			h.state(w, id)
		case http.MethodDelete:
			h.cancel(w, id)
		default:
			writeErr(w, 405, "method not allowed")
		}

	case len(actions) == 1 && actions[0] == "retry":
		if r.Method != http.MethodPost {
			writeErr(w, 405, "method not allowed")
			return
		}
		h.retry(w, id)

	default:
		writeErr(w, 404, "not found")
	}
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request, id model.TaskID) {
	t, err := h.tasks.GetByID(r.Context(), id)
	if errors.Is(err, task.ErrNotFound) {
		writeErr(w, 404, "not found")
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}

	var in startRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&in)
	}

	// ?wait=1 drives the whole attempt synchronously and returns its outcome.
	if isTruthy(r.URL.Query().Get("wait")) {
		out, err := h.orch.CompleteTask(r.Context(), t, in.Input)
		if errors.Is(err, verify.ErrUnknownMethod) {
			writeErr(w, 400, err.Error())
			return
		}
		if err != nil {
			writeErr(w, 502, err.Error())
			return
		}
		writeJSON(w, 200, out)
		return
	}

	s, err := h.manager.Start(t, in.Input)
	if errors.Is(err, verify.ErrUnknownMethod) {
		writeErr(w, 400, err.Error())
		return
	}
	if errors.Is(err, ErrAttemptActive) {
		writeErr(w, 409, err.Error())
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 202, s.Snapshot())
}

func (h *Handler) state(w http.ResponseWriter, id model.TaskID) {
	s, err := h.manager.Get(id)
	if errors.Is(err, ErrNoAttempt) {
		writeErr(w, 404, err.Error())
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, s.Snapshot())
}

func (h *Handler) retry(w http.ResponseWriter, id model.TaskID) {
	s, err := h.manager.Retry(id)
	switch {
	case errors.Is(err, ErrNoAttempt):
		writeErr(w, 404, err.Error())
	case errors.Is(err, overlay.ErrNotFailed), errors.Is(err, overlay.ErrNotRetryable), errors.Is(err, overlay.ErrClosed):
		writeErr(w, 409, err.Error())
	case err != nil:
		writeErr(w, 500, err.Error())
	default:
		writeJSON(w, 202, s.Snapshot())
	}
}

func (h *Handler) cancel(w http.ResponseWriter, id model.TaskID) {
	err := h.manager.Cancel(id)
	if errors.Is(err, ErrNoAttempt) {
		writeErr(w, 404, err.Error())
		return
	}
	if err != nil {
		writeErr(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"cancelled": true})
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
