package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DenisKurek/memoract/internal/model"
)

func jsonReq(method, path string, body any) *http.Request {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type memVault struct {
	entries map[string]string
}

func newMemVault() *memVault {
	return &memVault{entries: map[string]string{}}
}

func (v *memVault) Set(key, value string) error {
	v.entries[key] = value
	return nil
}

func (v *memVault) Remove(key string) error {
	delete(v.entries, key)
	return nil
}

func TestTasksRoot_CreateQRTaskGeneratesToken(t *testing.T) {
	h := NewHandler(NewMemoryRepo(), nil)
	v := newMemVault()
	h.SetVault(v)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", map[string]any{
		"title":            "scan office door",
		"description":      "back entrance",
		"datetime":         "2026-09-10T09:00:00Z",
		"completionMethod": "QR_CODE",
	}))
	require.Equal(t, 201, rec.Code)

	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.MethodQRCode, created.Method)
	assert.NotEmpty(t, created.QRCode, "server generates the QR token")
	assert.Empty(t, created.PhotoURI)
	assert.Nil(t, created.Location)

	assert.Equal(t, created.QRCode, v.entries["qr_"+string(created.ID)])
}

func TestTasksRoot_CreateValidation(t *testing.T) {
	h := NewHandler(NewMemoryRepo(), nil)

	cases := map[string]map[string]any{
		"missing title": {
			"description": "d", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "PHOTO", "photoUri": "p.jpg",
		},
		"missing description": {
			"title": "t", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "PHOTO", "photoUri": "p.jpg",
		},
		"missing datetime": {
			"title": "t", "description": "d", "completionMethod": "PHOTO", "photoUri": "p.jpg",
		},
		"unknown method": {
			"title": "t", "description": "d", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "RETINA_SCAN",
		},
		"payload mismatch": {
			"title": "t", "description": "d", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "QR_CODE", "photoUri": "p.jpg",
		},
		"geolocation without location": {
			"title": "t", "description": "d", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "GEOLOCATION",
		},
		"photo without photoUri": {
			"title": "t", "description": "d", "datetime": "2026-09-10T09:00:00Z", "completionMethod": "PHOTO",
		},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", body))
			assert.Equal(t, 400, rec.Code)
		})
	}
}

func TestTasksSub_GetPatchDelete(t *testing.T) {
	repo := NewMemoryRepo()
	h := NewHandler(repo, nil)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", map[string]any{
		"title":            "buy milk",
		"description":      "2 liters",
		"datetime":         "2026-09-11T17:00:00Z",
		"completionMethod": "PHOTO",
		"photoUri":         "photo_ref.jpg",
	}))
	require.Equal(t, 201, rec.Code)
	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID), nil))
	require.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPatch, "/api/tasks/"+string(created.ID), map[string]any{
		"title": "buy oat milk",
	}))
	require.Equal(t, 200, rec.Code)
	var patched model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, "buy oat milk", patched.Title)
	assert.Equal(t, created.Method, patched.Method)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodDelete, "/api/tasks/"+string(created.ID), nil))
	require.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodDelete, "/api/tasks/"+string(created.ID), nil))
	assert.Equal(t, 404, rec.Code)
}

func TestTasksSub_VerifySubtreeDelegates(t *testing.T) {
	h := NewHandler(NewMemoryRepo(), nil)

	var gotID model.TaskID
	var gotActions []string
	h.SetVerifyHandler(func(w http.ResponseWriter, r *http.Request, id model.TaskID, actions []string) {
		gotID = id
		gotActions = actions
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPost, "/api/tasks/task_x/verify/retry", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, model.TaskID("task_x"), gotID)
	assert.Equal(t, []string{"retry"}, gotActions)
}

func TestTasksSub_VerifyWithoutHandlerIs404(t *testing.T) {
	h := NewHandler(NewMemoryRepo(), nil)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPost, "/api/tasks/task_x/verify", nil))
	assert.Equal(t, 404, rec.Code)
}
