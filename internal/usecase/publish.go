package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsCourier/internal/config"
	"NewsCourier/internal/ports"
	"NewsCourier/internal/publish"
	"NewsCourier/internal/telemetry"
)

// PublishOptions narrows a delivery run.
type PublishOptions struct {
	Langs []string
	Dry   bool
}

// Publish is the hourly delivery job: one independent pass per language.
type Publish struct {
	cfg       config.Config
	publisher *publish.Publisher
	recorder  ports.Recorder
	logger    *slog.Logger
}

// NewPublish wires the delivery job.
func NewPublish(cfg config.Config, publisher *publish.Publisher, recorder ports.Recorder, logger *slog.Logger) *Publish {
	return &Publish{cfg: cfg, publisher: publisher, recorder: recorder, logger: logger}
}

// Run executes one delivery pass across the configured languages.
func (j *Publish) Run(ctx context.Context, opts PublishOptions) []publish.Result {
	now := time.Now()

	langs := opts.Langs
	if len(langs) == 0 {
		langs = j.cfg.Languages
	}

	results := make([]publish.Result, 0, len(langs))
	delivered := 0
	var runErr error

	for _, lang := range langs {
		result := j.publisher.PublishLanguage(ctx, lang, now, opts.Dry)
		if result.Error != "" {
			runErr = fmt.Errorf("lang %s: %s", lang, result.Error)
		}
		if result.Delivered {
			delivered++
		}
		results = append(results, result)
	}

	outcome := "ok"
	if runErr != nil {
		outcome = "error"
	}
	telemetry.RunsTotal.WithLabelValues("publish", outcome).Inc()
	j.recorder.Heartbeat(ctx, "publisher", runErr, map[string]int{
		"languages": len(langs),
		"delivered": delivered,
	})
	return results
}
