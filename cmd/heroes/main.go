package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/hero-records/internal/app"
	"github.com/samvad-hq/hero-records/internal/config"
	"github.com/samvad-hq/hero-records/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "heroes: %v\n", err)
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprint(os.Stderr, app.Usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := app.ParseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("heroes starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	heroesApp, err := app.New(ctx, cfg, logger.Wrap(log), os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize heroes client", "error", err)
		return err
	}
	defer heroesApp.Close()

	return heroesApp.Run(ctx, cmd)
}
