package ops

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DenisKurek/memoract/internal/model"
)

// DataDirReport summarizes what a memoract data directory holds.
type DataDirReport struct {
	Tasks        int
	VaultEntries int
}

// CheckDataDir validates that a data directory (live or restored) parses as
// the memoract layout: tasks.json as a task array, vault.json as a string
// map. Missing files count as empty; corrupt files are an error here, unlike
// the serving path which swallows them.
func CheckDataDir(dir string) (DataDirReport, error) {
	var report DataDirReport

	tasksPath := filepath.Join(dir, "tasks.json")
	if b, err := os.ReadFile(tasksPath); err == nil {
		var tasks []model.Task
		if err := json.Unmarshal(b, &tasks); err != nil {
			return report, fmt.Errorf("corrupt %s: %w", tasksPath, err)
		}
		report.Tasks = len(tasks)
	} else if !os.IsNotExist(err) {
		return report, err
	}

	vaultPath := filepath.Join(dir, "vault.json")
	if b, err := os.ReadFile(vaultPath); err == nil {
		entries := map[string]string{}
		if err := json.Unmarshal(b, &entries); err != nil {
			return report, fmt.Errorf("corrupt %s: %w", vaultPath, err)
		}
		report.VaultEntries = len(entries)
	} else if !os.IsNotExist(err) {
		return report, err
	}

	return report, nil
}

// DataDigest hashes the memoract data files under dir, name-ordered, for
// drill comparisons between a source and restored data directory. Files the
// layout names but the directory lacks are left out of the hash.
func DataDigest(dir string) (string, error) {
	h := sha256.New()
	for _, name := range dataFiles {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, name)
		_, _ = io.WriteString(h, "\n")
		if _, err := h.Write(b); err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
