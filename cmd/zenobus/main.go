package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/BlackAll2225/ZenoBus-sub000/docs"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/app"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/config"
)

// @title ZenoBus API
// @version 1.0
// @description Bus ticket booking service: schedules, seat inventory and the booking lifecycle.
// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
