package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsCourier/internal/config"
	"NewsCourier/internal/domain"
	"NewsCourier/internal/domovoy"
	"NewsCourier/internal/ports"
	"NewsCourier/internal/publish"
	"NewsCourier/internal/schedule"
	"NewsCourier/internal/telemetry"
)

const seedStatePath = "domovoy/state"

// DomovoyOptions narrows a companion run.
type DomovoyOptions struct {
	Langs []string
	Dry   bool
}

// DomovoyReport is the per-language outcome of one companion run.
type DomovoyReport struct {
	Lang      string `json:"lang"`
	SeedKey   string `json:"seedKey,omitempty"`
	TopicID   string `json:"topicId,omitempty"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// Domovoy is the companion job: every few hours it picks an unused seed,
// generates a house-voice post, and delivers it to each language channel.
// Unlike news topics, domovoy posts are delivered immediately and persisted
// already posted.
type Domovoy struct {
	cfg       config.Config
	generator *domovoy.Generator
	store     *schedule.Store
	backend   ports.StateStore
	channel   ports.ChannelPublisher
	recorder  ports.Recorder
	logger    *slog.Logger
}

// NewDomovoy wires the companion job.
func NewDomovoy(cfg config.Config, generator *domovoy.Generator, store *schedule.Store, backend ports.StateStore, channel ports.ChannelPublisher, recorder ports.Recorder, logger *slog.Logger) *Domovoy {
	return &Domovoy{cfg: cfg, generator: generator, store: store, backend: backend, channel: channel, recorder: recorder, logger: logger}
}

// Run executes one companion pass across the configured languages.
func (j *Domovoy) Run(ctx context.Context, opts DomovoyOptions) []DomovoyReport {
	now := time.Now()

	langs := opts.Langs
	if len(langs) == 0 {
		langs = j.cfg.Languages
	}

	reports := make([]DomovoyReport, 0, len(langs))
	var runErr error
	delivered := 0

	for _, lang := range langs {
		report := j.runLanguage(ctx, lang, now, opts.Dry)
		if report.Error != "" {
			runErr = fmt.Errorf("lang %s: %s", lang, report.Error)
		}
		if report.Delivered {
			delivered++
		}
		reports = append(reports, report)
	}

	outcome := "ok"
	if runErr != nil {
		outcome = "error"
	}
	telemetry.RunsTotal.WithLabelValues("domovoy", outcome).Inc()
	j.recorder.Heartbeat(ctx, "domovoy", runErr, map[string]int{
		"languages": len(langs),
		"delivered": delivered,
	})
	return reports
}

func (j *Domovoy) runLanguage(ctx context.Context, lang string, now time.Time, dry bool) DomovoyReport {
	report := DomovoyReport{Lang: lang}

	chatID := j.cfg.Telegram.Channels[lang]
	if chatID == "" {
		report.Error = "channel not configured"
		return report
	}

	pool := domovoy.Seeds(lang)
	if len(pool) == 0 {
		report.Error = "no seeds for language"
		return report
	}

	var state domain.SeedRotationState
	err := j.backend.Get(ctx, seedStatePath+"/recent_"+lang, &state)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		report.Error = err.Error()
		return report
	}

	seed, cleared := domovoy.PickSeed(pool, state, now)
	report.SeedKey = seed.Key

	started := time.Now()
	post, err := j.generator.Generate(ctx, seed, lang)
	telemetry.LLMCallDuration.WithLabelValues("domovoy").Observe(time.Since(started).Seconds())
	if err != nil {
		report.Error = err.Error()
		j.recorder.Event(ctx, "domovoy", "error", "generation failed: "+err.Error(),
			map[string]string{"lang": lang, "seed": seed.Key})
		return report
	}

	message := publish.Compose(publish.MessageInput{
		Title: post.Headline,
		Analysis: domain.AnalysisResult{
			Sense:    post.Quote,
			View:     post.Reflection,
			Question: post.Question,
		},
		SiteLink: j.cfg.Site.Links[lang],
		Lang:     lang,
	})

	if dry {
		return report
	}

	messageID, err := j.channel.SendText(ctx, chatID, message)
	if err != nil {
		report.Error = err.Error()
		j.recorder.Event(ctx, "domovoy", "error", "delivery failed: "+err.Error(),
			map[string]string{"lang": lang})
		return report
	}
	report.Delivered = true

	topic := domain.Topic{
		Title:     post.Headline,
		Sense:     post.Quote,
		View:      post.Reflection,
		Question:  post.Question,
		Section:   domain.SectionDomovoy,
		Lang:      lang,
		CreatedAt: now.UnixMilli(),
		Posted:    true,
		PostedAt:  now.UnixMilli(),
		Channel:   chatID,
		Telegram:  &domain.TelegramRef{ChatID: chatID, MessageID: messageID},
	}
	id, err := j.store.ScheduleTopic(ctx, &topic)
	if err != nil {
		// Message is already in the channel; losing the record only costs
		// history, so telemetry instead of failing the run.
		j.recorder.Event(ctx, "domovoy", "error", "topic write failed: "+err.Error(),
			map[string]string{"lang": lang})
	} else {
		report.TopicID = id
	}

	if cleared {
		state.Recent = nil
	}
	state.Recent = append(state.Recent, domain.SeedEntry{SeedKey: seed.Key, Timestamp: now.UnixMilli()})
	if err := j.backend.Put(ctx, seedStatePath+"/recent_"+lang, state); err != nil {
		j.recorder.Event(ctx, "domovoy", "error", "seed state write failed: "+err.Error(),
			map[string]string{"lang": lang})
	}

	return report
}
