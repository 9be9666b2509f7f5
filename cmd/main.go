package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/scx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "scx",
		Usage:    "Download tracks, sets, and user collections from SoundCloud",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidFlag):
			logger.Fatalf("invalid usage: %v", err)
		case errors.Is(err, shared.ErrTranscoderMissing):
			logger.Fatalf("environment error: %v", err)
		case errors.Is(err, shared.ErrInvalidToken):
			logger.Fatalf("authentication error: %v", err)
		case errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
