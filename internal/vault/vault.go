// Package vault holds setup-time verification payloads (QR tokens, reference
// photo handles, target location fixes, face profiles) in a namespace separate
// from the task collection, addressed by ad hoc string keys.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/DenisKurek/memoract/internal/model"
)

var ErrNotFound = errors.New("vault entry not found")

func QRKey(id model.TaskID) string {
	return "qr_" + string(id)
}

func PhotoKey(ts time.Time) string {
	return "photo_" + strconv.FormatInt(ts.UnixMilli(), 10)
}

func LocationKey(ts time.Time) string {
	return "location_" + strconv.FormatInt(ts.UnixMilli(), 10)
}

func FaceKey(ts time.Time) string {
	return "face_" + strconv.FormatInt(ts.UnixMilli(), 10)
}

// FileStore persists the whole namespace as one JSON object, rewritten on
// every mutation, same discipline as the task store.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{path: filepath.Join(dataDir, "vault.json")}, nil
}

func (s *FileStore) loadLocked() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("vault: read %s: %w", s.path, err)
	}
	entries := map[string]string{}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("vault: corrupt store %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) saveLocked(entries map[string]string) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("vault: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}
	entries[key] = value
	return s.saveLocked(entries)
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return "", err
	}
	v, ok := entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.saveLocked(entries)
}
