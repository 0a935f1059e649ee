package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nano-banana-cli/internal/config"
	"nano-banana-cli/internal/httpclient"
	"nano-banana-cli/internal/result"
	"nano-banana-cli/internal/runner"
	"nano-banana-cli/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil:
		_, _ = io.WriteString(stderr, err.Error()+"\n")
		return 2
	}

	logger := newLogger(cfg, stderr)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	opts := runner.Options{
		HTTPClient:       httpClient,
		GeminiBaseURL:    cfg.GeminiBaseURL,
		GeminiAPIVersion: cfg.GeminiAPIVersion,
		Logger:           logger,
	}

	if cfg.DeliveryEnabled() {
		tg, err := telegram.New(telegram.Options{
			Token:      cfg.TelegramToken,
			HTTPClient: httpClient,
			Logger:     logger,
			Debug:      cfg.LogLevel == "debug",
		})
		if err != nil {
			logger.Warn("telegram disabled", "err", err)
		} else {
			opts.Sender = tg
		}
	}

	res := runner.New(opts).Run(ctx, runner.Request{
		Root:           cfg.Root,
		Prompt:         cfg.Prompt,
		Model:          cfg.Model,
		Out:            cfg.Out,
		TelegramChatID: cfg.TelegramChatID,
	})

	if err := result.Write(stdout, res); err != nil {
		logger.Error("write result failed", "err", err)
		return 1
	}
	return res.ExitCode()
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
