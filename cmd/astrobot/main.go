package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexguevara007/Astrobot-2.0/internal/app"
	"github.com/alexguevara007/Astrobot-2.0/internal/config"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug)
	logger.Info("starting astrobot")

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("cannot initialize app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("app stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("astrobot stopped")
}
