package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"printshop/internal/bootstrap"
	"printshop/internal/config"
	"printshop/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close(context.Background())

	if err := bootstrap.Serve(ctx, rt); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = rt.Close(context.Background())
		os.Exit(1)
	}
}
