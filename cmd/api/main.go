package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/srCredoftn/dao-dash/internal/infra/app"
	"github.com/srCredoftn/dao-dash/internal/infra/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("dao-dash api: %v", err)
	}
}

func run() error {
	// Missing .env files are fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	return application.Run(ctx)
}
