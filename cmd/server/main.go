package main

import (
	"context"
	"feedbackbot/internal/app"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if cfg.UsesDefaultAdminCredentials() {
		log.Warn("admin API is using the default password or JWT secret; set ADMIN_PASSWORD and JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	log.Info("feedback bot started",
		"port", cfg.Port,
		"classifier_enabled", cfg.Classifier.IsEnabled(),
		"sheets_enabled", cfg.Sheets.IsEnabled(),
	)
	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		return
	}
	log.Info("server exited")
}
