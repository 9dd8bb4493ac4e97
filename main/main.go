package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Nazarious-ucu/nmc-weather-station/internal/app"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/config"
	"github.com/Nazarious-ucu/nmc-weather-station/internal/services/metrics"
	"github.com/Nazarious-ucu/nmc-weather-station/pkg/logger"
)

const serviceName = "nmc-weather-station"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogsPath, serviceName)
	m := metrics.NewMetrics("nmc_station")

	application := app.New(*cfg, l, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		l.Error().Err(err).Msg("application failed to run")
		stop()
		log.Panic(err)
	}
}
