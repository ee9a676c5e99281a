package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmwatch/farmwatch/internal/api"
	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/metrics"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/monitoring"
	"github.com/farmwatch/farmwatch/internal/notifications"
	"github.com/farmwatch/farmwatch/internal/scheduler"
	"github.com/farmwatch/farmwatch/internal/sources"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting farm surveillance simulator")

	loc, err := cfg.Location()
	if err != nil {
		logrus.Fatalf("Failed to resolve time zone: %v", err)
	}
	clock := sources.ClockIn(loc)
	models.SetTimestampLocation(loc)

	var notificationService notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notificationService = notifications.NewService(cfg)
	}

	m := metrics.New()
	source := sources.NewMockSource(sources.NewRand(cfg.RandomSeed), clock)
	monitoringService := monitoring.NewService(cfg, source, notificationService,
		monitoring.WithClock(clock),
		monitoring.WithMetrics(m),
	)
	monitoringService.Seed(cfg.SeedDetections)

	schedulerService := scheduler.NewService(cfg, monitoringService)
	defer monitoringService.Close()
	defer schedulerService.Close()

	if cfg.SimulationAutostart {
		if err := schedulerService.Start(); err != nil {
			logrus.Fatalf("Failed to start simulation: %v", err)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(monitoringService, schedulerService, m),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Close the driver first so no tick, and no late start request, writes into
	// state being torn down
	schedulerService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Closing the state ends open event streams
	monitoringService.Close()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
