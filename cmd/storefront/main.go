package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/cli"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return cli.ExitError
	}

	// Logs go to stderr; stdout carries the rendered views.
	log := logger.New("storefront", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		return cli.ExitError
	}

	code := cli.New(application, log, os.Stdin, os.Stdout, os.Stderr).Run(ctx, os.Args[1:])

	if err := application.Shutdown(); err != nil {
		log.Warn("shutdown error", slog.String("error", err.Error()))
	}
	return code
}
