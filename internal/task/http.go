package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/telemetry"
	"github.com/DenisKurek/memoract/internal/vault"
)

// SetupVault receives setup-time verification payloads keyed ad hoc
// (qr_<taskId>, photo_<ts>, ...).
type SetupVault interface {
	Set(key, value string) error
	Remove(key string) error
}

// Notifier schedules the due-time reminder carrying the task id deep link.
type Notifier interface {
	ScheduleReminder(t model.Task)
	CancelReminder(id model.TaskID)
}

// VerifyFunc serves the /api/tasks/{id}/verify subtree.
type VerifyFunc func(w http.ResponseWriter, r *http.Request, id model.TaskID, actions []string)

type Handler struct {
	repo     Repo
	vault    SetupVault
	notifier Notifier
	verify   VerifyFunc
	events   telemetry.Recorder
	logger   *log.Logger
}

func NewHandler(repo Repo, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) SetVault(v SetupVault) {
	h.vault = v
}

func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

func (h *Handler) SetVerifyHandler(fn VerifyFunc) {
	h.verify = fn
}

func (h *Handler) SetRecorder(r telemetry.Recorder) {
	h.events = r
}

func (h *Handler) recordEvent(kind telemetry.EventType, t model.Task) {
	if h.events == nil {
		return
	}
	md := telemetry.EventMetadata{
		"task_id": string(t.ID),
		"method":  string(t.Method),
	}
	if err := h.events.RecordEvent(kind, md); err != nil {
		h.logger.Printf("task: record %s: %v", kind, err)
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

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Datetime    string `json:"datetime"`
	Method      string `json:"completionMethod"`

	QRCode   string          `json:"qrCode,omitempty"`
	Location *model.Location `json:"location,omitempty"`
	PhotoURI string          `json:"photoUri,omitempty"`
	FaceData string          `json:"faceData,omitempty"`
}

// buildTask validates the request and assembles the record with exactly one
// method-matching payload, generating setup data where the client left it to
// the server (QR token, face profile token).
func (h *Handler) buildTask(in createRequest) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, errors.New("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return model.Task{}, errors.New("description is required")
	}
	if strings.TrimSpace(in.Datetime) == "" {
		return model.Task{}, errors.New("datetime is required")
	}

	method, err := model.ParseMethod(in.Method)
	if err != nil {
		return model.Task{}, fmt.Errorf("completionMethod %q: %w", in.Method, err)
	}

	t := model.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Datetime:    strings.TrimSpace(in.Datetime),
		Method:      method,
	}

	switch method {
	case model.MethodQRCode:
		if in.Location != nil || in.PhotoURI != "" || in.FaceData != "" {
			return model.Task{}, errors.New("payload does not match completion method")
		}
		t.QRCode = in.QRCode
		if t.QRCode == "" {
			t.QRCode = uuid.NewString()
		}
	case model.MethodGeolocation:
		if in.QRCode != "" || in.PhotoURI != "" || in.FaceData != "" {
			return model.Task{}, errors.New("payload does not match completion method")
		}
		if in.Location == nil {
			return model.Task{}, errors.New("location is required for GEOLOCATION tasks")
		}
		loc := *in.Location
		t.Location = &loc
	case model.MethodPhoto:
		if in.QRCode != "" || in.Location != nil || in.FaceData != "" {
			return model.Task{}, errors.New("payload does not match completion method")
		}
		if in.PhotoURI == "" {
			return model.Task{}, errors.New("photoUri is required for PHOTO tasks")
		}
		t.PhotoURI = in.PhotoURI
	case model.MethodFaceID:
		if in.QRCode != "" || in.Location != nil || in.PhotoURI != "" {
			return model.Task{}, errors.New("payload does not match completion method")
		}
		t.FaceData = in.FaceData
		if t.FaceData == "" {
			t.FaceData = fmt.Sprintf("face_%d", time.Now().UnixMilli())
		}
	}
	return t, nil
}

// storeSetupPayload mirrors the task's setup data into the vault namespace.
func (h *Handler) storeSetupPayload(t model.Task) {
	if h.vault == nil {
		return
	}

	var key, value string
	now := time.Now()
	switch t.Method {
	case model.MethodQRCode:
		key, value = vault.QRKey(t.ID), t.QRCode
	case model.MethodPhoto:
		key, value = vault.PhotoKey(now), t.PhotoURI
	case model.MethodFaceID:
		key, value = vault.FaceKey(now), t.FaceData
	case model.MethodGeolocation:
		b, err := json.Marshal(t.Location)
		if err != nil {
			h.logger.Printf("task: marshal location for %s: %v", t.ID, err)
			return
		}
		key, value = vault.LocationKey(now), string(b)
	}
	if err := h.vault.Set(key, value); err != nil {
		h.logger.Printf("task: store setup payload for %s: %v", t.ID, err)
	}
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ts, err := h.repo.GetAll(r.Context())
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, ts)

	case http.MethodPost:
		var in createRequest
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, 400, "bad json")
			return
		}

		t, err := h.buildTask(in)
		if err != nil {
			writeErr(w, 400, err.Error())
			return
		}

		saved, err := h.repo.Save(r.Context(), t)
		if err != nil {
			writeErr(w, 500, "failed to save task")
			return
		}
		h.storeSetupPayload(saved)
		if h.notifier != nil {
			h.notifier.ScheduleReminder(saved)
		}
		h.recordEvent(telemetry.EventTaskCreated, saved)

		writeJSON(w, 201, saved)

	default:
		writeErr(w, 405, "method not allowed")
	}
}

// /api/tasks/{id} and /api/tasks/{id}/verify[...]
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, 404, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id := model.TaskID(parts[0])

	if len(parts) >= 2 && parts[1] == "verify" {
		if h.verify == nil {
			writeErr(w, 404, "not found")
			return
		}
		h.verify(w, r, id, parts[2:])
		return
	}

	if len(parts) != 1 {
		writeErr(w, 404, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := h.repo.GetByID(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		writeJSON(w, 200, t)

	case http.MethodPatch:
		var p Patch
		if err := decodeJSON(r, &p); err != nil {
			writeErr(w, 400, "bad json")
			return
		}
		t, err := h.repo.Update(r.Context(), id, p)
		if errors.Is(err, ErrNotFound) {
			writeErr(w, 404, "not found")
			return
		}
		if err != nil {
			writeErr(w, 500, "failed to save task")
			return
		}
		writeJSON(w, 200, t)

	case http.MethodDelete:
		removed, err := h.repo.Delete(r.Context(), id)
		if err != nil {
			writeErr(w, 500, "failed to delete task")
			return
		}
		if !removed {
			writeErr(w, 404, "not found")
			return
		}
		if h.notifier != nil {
			h.notifier.CancelReminder(id)
		}
		if h.vault != nil {
			if err := h.vault.Remove(vault.QRKey(id)); err != nil {
				h.logger.Printf("task: remove setup payload for %s: %v", id, err)
			}
		}
		h.recordEvent(telemetry.EventTaskDeleted, model.Task{ID: id})
		writeJSON(w, 200, map[string]any{"deleted": true})

	default:
		writeErr(w, 405, "method not allowed")
	}
}
