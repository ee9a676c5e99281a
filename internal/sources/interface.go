package sources

import (
	"github.com/farmwatch/farmwatch/internal/models"
)

// Source interface defines the contract for detection producers
type Source interface {
	GetName() string
	IsEnabled() bool
	// NextDetection produces one live detection, backdated by at most a couple of minutes
	NextDetection() models.Detection
	// Batch produces count seed detections spread over the last three days, newest first
	Batch(count int) []models.Detection
}
