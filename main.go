package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmorgan81/barroco/internal/config"
	"github.com/dmorgan81/barroco/internal/inject"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/server"
	"github.com/samber/do"
)

func main() {
	logger := log.New(os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.NewContext(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	injector := inject.Setup(ctx, cfg)
	defer func() { _ = injector.Shutdown() }()

	srv := do.MustInvoke[*server.Server](injector)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
