package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/DenisKurek/memoract/internal/completion"
	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/httpmw"
	"github.com/DenisKurek/memoract/internal/model"
	"github.com/DenisKurek/memoract/internal/notify"
	"github.com/DenisKurek/memoract/internal/task"
	"github.com/DenisKurek/memoract/internal/telemetry"
	"github.com/DenisKurek/memoract/internal/vault"
	"github.com/DenisKurek/memoract/internal/verify"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger

	// VerifyOptions overrides the simulated backends' randomness. Zero value
	// means production behavior (time-seeded, real delays).
	VerifyOptions verify.Options
}

// App bundles the wired components so callers (and tests) can reach past the
// HTTP surface.
type App struct {
	Handler   http.Handler
	Tasks     task.Repo
	Vault     *vault.FileStore
	Notifier  *notify.Scheduler
	Telemetry telemetry.Repository
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	cfg := opts.Config

	if opts.VerifyOptions.Seed == 0 {
		opts.VerifyOptions.Seed = cfg.Verification.Seed
	}

	taskRepo, err := task.NewFileRepo(cfg.Storage.DataDir, opts.Logger)
	if err != nil {
		return nil, err
	}
	vaultStore, err := vault.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	events := telemetry.NewMemoryRepository()

	// Delivery here is the server-side stand-in for the device notification
	// tray: log the deep-link payload.
	var notifier *notify.Scheduler
	if cfg.Notifications.Enabled {
		notifier = notify.NewScheduler(func(id model.TaskID, title string) {
			opts.Logger.Printf("notify: reminder due, task=%s title=%q", id, title)
		}, opts.Logger)
	}

	registry := verify.NewMockRegistry(cfg.Verification, opts.VerifyOptions)

	displayWindow := time.Duration(cfg.Verification.ResultDisplayMS) * time.Millisecond
	orch := completion.NewOrchestrator(taskRepo, registry, displayWindow, opts.Logger, events)
	completionHandler := completion.NewHandler(taskRepo, orch)

	taskHandler := task.NewHandler(taskRepo, opts.Logger)
	taskHandler.SetVault(vaultStore)
	taskHandler.SetVerifyHandler(completionHandler.ServeVerify)
	taskHandler.SetRecorder(events)
	if notifier != nil {
		taskHandler.SetNotifier(notifier)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "memoract",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		since := time.Now().AddDate(0, 0, -7)
		if s := strings.TrimSpace(r.URL.Query().Get("since")); s != "" {
			parsed, err := time.Parse("2006-01-02", s)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "since must be YYYY-MM-DD"})
				return
			}
			since = parsed
		}
		evs, err := events.GetEvents(since, nil)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		stats, err := telemetry.CalculateStats(evs, since)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := taskRepo.GetAll(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "memoract",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	)

	return &App{
		Handler:   handler,
		Tasks:     taskRepo,
		Vault:     vaultStore,
		Notifier:  notifier,
		Telemetry: events,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
