package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsCourier/internal/config"
	"NewsCourier/internal/ports"
	"NewsCourier/internal/usecase"
)

// Jobs are the three pipeline entry points the HTTP surface can trigger.
type Jobs struct {
	Ingest  *usecase.Ingest
	Publish *usecase.Publish
	Domovoy *usecase.Domovoy
}

// Handler is the HTTP trigger surface: three job endpoints, a health probe,
// and the metrics scrape endpoint.
type Handler struct {
	cfg      config.Config
	jobs     Jobs
	policy   Policy
	recorder ports.Recorder
	logger   *slog.Logger
}

// NewHandler wires the trigger surface.
func NewHandler(cfg config.Config, jobs Jobs, recorder ports.Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:  cfg,
		jobs: jobs,
		policy: Policy{
			Secrets:        Secrets{Cron: cfg.Auth.CronSecret, Admin: cfg.Auth.AdminSecret},
			AllowAutomated: cfg.Auth.AllowAutomated,
		},
		recorder: recorder,
		logger:   logger,
	}
}

// Router builds the chi router for the trigger surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	for _, method := range []func(string, http.HandlerFunc){r.Get, r.Post} {
		method("/run/news", h.guarded(h.runNews))
		method("/run/publish", h.guarded(h.runPublish))
		method("/run/domovoy", h.guarded(h.runDomovoy))
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// guarded classifies the request before any job code runs, attaches a run id,
// and converts panics below it into a JSON 500 instead of a dropped
// connection.
func (h *Handler) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		class := Classify(r, h.policy)
		if !Allowed(class) {
			h.logger.Warn("trigger denied",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
			)
			writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "forbidden"})
			return
		}

		runID := uuid.NewString()
		r = r.WithContext(withRunID(r.Context(), runID))
		h.logger.Info("trigger accepted",
			slog.String("path", r.URL.Path),
			slog.String("class", class),
			slog.String("run_id", runID),
		)

		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("job panicked",
					slog.String("path", r.URL.Path),
					slog.String("run_id", runID),
					slog.Any("panic", rec),
				)
				h.recorder.Event(r.Context(), "trigger", "error",
					fmt.Sprintf("panic in %s: %v", r.URL.Path, rec),
					map[string]string{"runId": runID})
				body := map[string]any{"ok": false, "error": "internal error"}
				if r.URL.Query().Get("debug") == "1" {
					body["error"] = fmt.Sprint(rec)
					body["where"] = firstFrames(debug.Stack(), 6)
				}
				writeJSON(w, http.StatusInternalServerError, body)
			}
		}()

		next(w, r)
	}
}

func (h *Handler) runNews(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Require("STORE_URL", "LLM_API_KEY"); err != nil {
		h.recorder.Heartbeat(r.Context(), "newsbot", err, nil)
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	opts := usecase.IngestOptions{
		Langs: langsParam(r),
		Limit: intParam(r, "limit"),
		Dry:   dryParam(r),
	}
	reports := h.jobs.Ingest.Run(r.Context(), opts)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "runId": runIDFrom(r.Context()), "languages": reports})
}

func (h *Handler) runPublish(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Require("STORE_URL", "TELEGRAM_BOT_TOKEN"); err != nil {
		h.recorder.Heartbeat(r.Context(), "publisher", err, nil)
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	opts := usecase.PublishOptions{
		Langs: langsParam(r),
		Dry:   dryParam(r),
	}
	results := h.jobs.Publish.Run(r.Context(), opts)
	delivered := 0
	for _, res := range results {
		if res.Delivered {
			delivered++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"runId":     runIDFrom(r.Context()),
		"delivered": delivered,
		"languages": results,
	})
}

func (h *Handler) runDomovoy(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Require("STORE_URL", "LLM_API_KEY", "TELEGRAM_BOT_TOKEN"); err != nil {
		h.recorder.Heartbeat(r.Context(), "domovoy", err, nil)
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	opts := usecase.DomovoyOptions{
		Langs: langsParam(r),
		Dry:   dryParam(r),
	}
	reports := h.jobs.Domovoy.Run(r.Context(), opts)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "runId": runIDFrom(r.Context()), "languages": reports})
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func langsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("lang")
	if raw == "" {
		return nil
	}
	var langs []string
	for _, lang := range strings.Split(raw, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}

// dryParam accepts both dry=1 and the older mode=dry form.
func dryParam(r *http.Request) bool {
	return boolParam(r, "dry") || r.URL.Query().Get("mode") == "dry"
}

func firstFrames(stack []byte, n int) string {
	lines := strings.Split(string(stack), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
