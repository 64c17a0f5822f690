package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"NewsCourier/internal/app"
	"NewsCourier/internal/config"
	"NewsCourier/internal/logging"
)

func main() {
	daemon := flag.Bool("daemon", false, "run the in-process cron scheduler alongside the HTTP server")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application := app.New(cfg, logger)

	run := application.Serve
	if *daemon {
		run = application.Daemon
	}

	if err := run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
