package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsCourier/internal/analysis"
	"NewsCourier/internal/config"
	"NewsCourier/internal/domovoy"
	"NewsCourier/internal/feed"
	"NewsCourier/internal/infrastructure/llm"
	"NewsCourier/internal/infrastructure/scheduler"
	"NewsCourier/internal/infrastructure/store"
	"NewsCourier/internal/infrastructure/telegram"
	"NewsCourier/internal/logging"
	"NewsCourier/internal/publish"
	"NewsCourier/internal/schedule"
	"NewsCourier/internal/telemetry"
	"NewsCourier/internal/trigger"
	"NewsCourier/internal/usecase"
)

// Application wires configuration to adapters, use cases, and the two run
// surfaces (HTTP triggers and the in-process cron daemon).
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	jobs   trigger.Jobs
	router http.Handler
}

// New builds a fully wired application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	backend := store.NewRESTStore(cfg.Store)
	recorder := telemetry.New(backend, baseLogger.With("component", "telemetry"),
		cfg.Store.Secret, cfg.LLM.APIKey, cfg.Telegram.BotToken, cfg.Auth.CronSecret, cfg.Auth.AdminSecret)

	fetcher := feed.NewFetcher(nil, baseLogger.With("component", "feed"))
	generator := llm.NewOpenAIClient(cfg.LLM)
	analyzer := analysis.New(generator, cfg.LLM.MaxTokens, cfg.LLM.Temperature,
		baseLogger.With("component", "analysis"))
	topics := schedule.New(backend, baseLogger.With("component", "schedule"))
	channel := telegram.NewChannel(cfg.Telegram.BotToken, "")

	publisher := publish.New(topics, channel, analyzer, recorder, publish.Options{
		Channels:  cfg.Telegram.Channels,
		Usernames: cfg.Telegram.Username,
		SiteLinks: cfg.Site.Links,
	}, baseLogger.With("component", "publisher"))

	jobs := trigger.Jobs{
		Ingest: usecase.NewIngest(cfg, fetcher, analyzer, topics, recorder,
			baseLogger.With("component", "newsbot")),
		Publish: usecase.NewPublish(cfg, publisher, recorder,
			baseLogger.With("component", "publisher")),
		Domovoy: usecase.NewDomovoy(cfg, domovoy.NewGenerator(generator), topics, backend, channel, recorder,
			baseLogger.With("component", "domovoy")),
	}

	handler := trigger.NewHandler(cfg, jobs, recorder, baseLogger.With("component", "trigger"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		jobs:   jobs,
		router: handler.Router(),
	}
}

// Serve runs the HTTP trigger surface until the context is canceled.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Daemon runs the cron loop alongside the HTTP surface, for deployments
// without an external scheduler.
func (a *Application) Daemon(ctx context.Context) error {
	cron := scheduler.NewCronScheduler(a.cfg.Scheduler.Location(), a.logger.With("component", "cron"),
		scheduler.Job{Name: "ingest", Spec: a.cfg.Scheduler.IngestSpec, Run: func(ctx context.Context) {
			a.jobs.Ingest.Run(ctx, usecase.IngestOptions{})
		}},
		scheduler.Job{Name: "publish", Spec: a.cfg.Scheduler.PublishSpec, Run: func(ctx context.Context) {
			a.jobs.Publish.Run(ctx, usecase.PublishOptions{})
		}},
		scheduler.Job{Name: "domovoy", Spec: a.cfg.Scheduler.DomovoySpec, Run: func(ctx context.Context) {
			a.jobs.Domovoy.Run(ctx, usecase.DomovoyOptions{})
		}},
	)
	if err := cron.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	err := a.Serve(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := cron.Stop(stopCtx); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
