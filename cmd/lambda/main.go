package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/barroco/internal/config"
	"github.com/dmorgan81/barroco/internal/handler"
	"github.com/dmorgan81/barroco/internal/inject"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/samber/do"
)

func main() {
	logger := log.New(os.Stderr)
	ctx := log.NewContext(context.Background(), logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	injector := inject.Setup(ctx, cfg)
	handler := do.MustInvoke[*handler.Handler](injector)
	lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
		_ = injector.Shutdown()
	}))
}
