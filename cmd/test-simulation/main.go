package main

import (
	"fmt"
	"log"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/monitoring"
	"github.com/farmwatch/farmwatch/internal/scheduler"
	"github.com/farmwatch/farmwatch/internal/sources"
	"github.com/joho/godotenv"
)

// consoleNotification prints alerts instead of delivering them
type consoleNotification struct{}

func (c *consoleNotification) SendAlert(alert *models.Alert) error {
	fmt.Printf("🚨 ALERT [%s]: %s\n", alert.Severity, alert.Message)
	return nil
}

func main() {
	fmt.Println("🧪 Farm Surveillance - Local Simulation Test")
	fmt.Println("============================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.SimulationInterval = 500 * time.Millisecond

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to resolve time zone: %v", err)
	}
	clock := sources.ClockIn(loc)

	source := sources.NewMockSource(sources.NewRand(cfg.RandomSeed), clock)
	service := monitoring.NewService(cfg, source, &consoleNotification{}, monitoring.WithClock(clock))
	defer service.Close()

	service.Seed(cfg.SeedDetections)
	fmt.Printf("🌱 Seeded %d detections and %d alerts\n", len(service.Detections()), len(service.Alerts()))

	_, events := service.Subscribe()

	driver := scheduler.NewService(cfg, service)
	if err := driver.Start(); err != nil {
		log.Fatalf("Failed to start simulation: %v", err)
	}

	fmt.Printf("⏱️  Ticking every %s for 5 seconds...\n\n", cfg.SimulationInterval)
	deadline := time.After(5 * time.Second)

loop:
	for {
		select {
		case <-deadline:
			break loop
		case event := <-events:
			if event.Type != models.EventDetectionAdded || event.Detection == nil {
				continue
			}
			d := event.Detection
			fmt.Printf("🔸 %s %-6s %-16s %.0f%% %s\n", d.Timestamp, d.Kind, d.Location, d.Confidence*100, d.SpeciesName())
		}
	}

	driver.Stop()
	stats := service.Stats()

	fmt.Println("\n📊 Final statistics:")
	fmt.Printf("   • Detections: %d\n", len(service.Detections()))
	fmt.Printf("   • Animals: %d, Humans: %d (unauthorized %d)\n", stats.TotalAnimals, stats.TotalHumans, stats.UnauthorizedHumans)
	fmt.Printf("   • Unread alerts: %d\n", service.UnreadAlertCount())
	fmt.Println("\n📋 Summary:")
	fmt.Println(service.GetSummary())

	fmt.Println("\n✅ Local simulation test completed!")
}
