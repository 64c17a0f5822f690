package telemetry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

const (
	ringCapacity  = 20
	maxMessageLen = 500
	maxMetaLen    = 200
)

// Telemetry writes heartbeats and ring-buffered events to the state store.
// The ring lives in memory and is written whole on every event: a bounded
// PUT of at most ringCapacity entries, never a read-modify-write of the
// stored collection. Store failures are logged and swallowed; telemetry must
// never fail a run.
type Telemetry struct {
	store   ports.StateStore
	logger  *slog.Logger
	secrets []string

	mu   sync.Mutex
	ring []domain.Event
}

var _ ports.Recorder = (*Telemetry)(nil)

// New builds the shared telemetry sink. secrets are masked out of every
// message and meta value before anything leaves the process.
func New(store ports.StateStore, logger *slog.Logger, secrets ...string) *Telemetry {
	filtered := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	return &Telemetry{store: store, logger: logger, secrets: filtered}
}

// Heartbeat records the outcome of one component run. Last write wins; there
// is exactly one heartbeat document per component.
func (t *Telemetry) Heartbeat(ctx context.Context, component string, runErr error, metrics map[string]int) {
	now := time.Now().UnixMilli()

	var current domain.HeartbeatStatus
	if t.store != nil {
		// Best effort read so lastOkAt survives a failing run.
		_ = t.store.Get(ctx, "ops/heartbeat/"+component, &current)
	}

	current.LastRunAt = now
	if runErr != nil {
		current.LastErrorAt = now
		current.LastErrorMsg = t.sanitize(runErr.Error(), maxMessageLen)
	} else {
		current.LastOkAt = now
	}
	if metrics != nil {
		current.Metrics = metrics
	}

	if t.store == nil {
		return
	}
	if err := t.store.Put(ctx, "ops/heartbeat/"+component, current); err != nil && t.logger != nil {
		t.logger.Warn("heartbeat write failed",
			slog.String("component", component),
			slog.String("error", err.Error()),
		)
	}
}

// Event appends one entry to the operational log, evicting the oldest once
// the ring is full.
func (t *Telemetry) Event(ctx context.Context, component, level, message string, meta map[string]string) {
	event := domain.Event{
		TS:        time.Now().UnixMilli(),
		Component: component,
		Level:     level,
		Message:   t.sanitize(message, maxMessageLen),
	}
	if len(meta) > 0 {
		event.Meta = make(map[string]string, len(meta))
		for k, v := range meta {
			event.Meta[k] = t.sanitize(v, maxMetaLen)
		}
	}

	t.mu.Lock()
	t.ring = append(t.ring, event)
	if len(t.ring) > ringCapacity {
		t.ring = t.ring[len(t.ring)-ringCapacity:]
	}
	snapshot := make([]domain.Event, len(t.ring))
	copy(snapshot, t.ring)
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.Put(ctx, "ops/events", snapshot); err != nil && t.logger != nil {
		t.logger.Warn("event write failed",
			slog.String("component", component),
			slog.String("error", err.Error()),
		)
	}
}

// Events returns a copy of the in-memory ring, newest last.
func (t *Telemetry) Events() []domain.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Event, len(t.ring))
	copy(out, t.ring)
	return out
}

func (t *Telemetry) sanitize(text string, max int) string {
	for _, secret := range t.secrets {
		text = strings.ReplaceAll(text, secret, "***")
	}
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max])
	}
	return text
}
